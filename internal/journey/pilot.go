package journey

import (
	"context"

	"github.com/xkilldash9x/charterbots/internal/locate"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

var (
	assignmentsTab = with(tab("Assignments"), tab("My Flights")...)
	acceptButton   = []locate.Locator{
		locate.Role("button", "Accept"),
		locate.Role("button", "Accept Assignment"),
		locate.Text("Accept"),
	}
	assignmentAccepted = with([]locate.Locator{
		locate.Text("Accepted"),
		locate.Text("Confirmed"),
	}, successToast...)
)

// Pilot browses open assignments and accepts one when the board offers it.
func Pilot() Journey {
	return Journey{
		Name:         "pilot",
		Role:         persona.RolePilot,
		DefaultRoute: "/pilot",
		steps:        pilotSteps,
	}
}

func pilotSteps(ctx context.Context, s *Script) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	if err := s.Absorb(ctx); err != nil {
		return err
	}
	if err := s.SignIn(ctx); err != nil {
		return err
	}
	if _, err := s.Expect(ctx, "pilot dashboard loaded", dashboardMarkers("Pilot")...); err != nil {
		return err
	}

	if _, err := s.Click(ctx, "open assignments tab", assignmentsTab...); err != nil {
		return err
	}
	if err := s.Scroll(ctx); err != nil {
		return err
	}
	if err := s.Think(ctx, readingMs); err != nil {
		return err
	}

	accepted, err := s.Click(ctx, "accept assignment", acceptButton...)
	if err != nil {
		return err
	}
	if !accepted {
		// Nothing to accept; keep browsing like a pilot checking the board.
		return s.Scroll(ctx)
	}
	if err := s.Think(ctx, readingMs); err != nil {
		return err
	}
	_, err = s.Expect(ctx, "assignment accepted", assignmentAccepted...)
	return err
}
