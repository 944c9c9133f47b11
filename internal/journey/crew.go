package journey

import (
	"context"

	"github.com/xkilldash9x/charterbots/internal/locate"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

var (
	availabilityTab    = with(tab("Availability"), tab("Schedule")...)
	availabilityToggle = []locate.Locator{
		locate.Role("switch", ""),
		locate.Role("checkbox", "Available"),
		locate.Role("button", "Mark Available"),
		locate.Text("Available"),
	}
	availabilitySaved = with([]locate.Locator{
		locate.Text("Availability updated"),
		locate.Text("Saved"),
	}, successToast...)
)

// Crew checks the schedule and flips their availability.
func Crew() Journey {
	return Journey{
		Name:         "crew",
		Role:         persona.RoleCrew,
		DefaultRoute: "/crew",
		steps:        crewSteps,
	}
}

func crewSteps(ctx context.Context, s *Script) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	if err := s.Absorb(ctx); err != nil {
		return err
	}
	if err := s.SignIn(ctx); err != nil {
		return err
	}
	if _, err := s.Expect(ctx, "crew dashboard loaded", dashboardMarkers("Crew")...); err != nil {
		return err
	}

	if _, err := s.Click(ctx, "open availability tab", availabilityTab...); err != nil {
		return err
	}
	if err := s.Scroll(ctx); err != nil {
		return err
	}
	toggled, err := s.Click(ctx, "toggle availability", availabilityToggle...)
	if err != nil || !toggled {
		return err
	}
	if err := s.Think(ctx, readingMs); err != nil {
		return err
	}
	_, err = s.Expect(ctx, "availability saved", availabilitySaved...)
	return err
}
