package journey

import (
	"context"

	"github.com/xkilldash9x/charterbots/internal/locate"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// CharterRequest is the form a broker posts to the marketplace.
type CharterRequest struct {
	Origin      string
	Destination string
	Date        string
	Time        string
	Passengers  string
}

// DefaultCharterRequest is the London Luton to Nice request used by demos.
var DefaultCharterRequest = CharterRequest{
	Origin:      "LTN",
	Destination: "NCE",
	Date:        "2025-02-15",
	Time:        "10:00",
	Passengers:  "8",
}

var (
	brokerRequestsTab = tab("Requests")
	brokerCreate      = []locate.Locator{
		locate.Role("button", "New Request"),
		locate.Role("button", "Create Request"),
		locate.Text("New Request"),
		locate.CSS("[data-testid=create-request]"),
	}
	originField      = field("Origin", "origin")
	destinationField = field("Destination", "destination")
	dateField        = with(field("Date", "date"), locate.CSS("input[type=date]"))
	timeField        = with(field("Time", "time"), locate.CSS("input[type=time]"))
	passengersField  = with(field("Passengers", "passengers"), locate.Label("Pax"))
	brokerSubmit     = []locate.Locator{
		locate.Role("button", "Submit Request"),
		locate.Role("button", "Submit"),
		locate.Text("Submit Request"),
		locate.CSS("form button[type=submit]"),
	}
	brokerPosted = with([]locate.Locator{
		locate.Text("Request submitted"),
		locate.Text("Request posted"),
	}, successToast...)
)

// Broker posts a charter request, or occasionally abandons it half way.
func Broker(req CharterRequest) Journey {
	return Journey{
		Name:         "broker",
		Role:         persona.RoleBroker,
		DefaultRoute: "/broker",
		steps: func(ctx context.Context, s *Script) error {
			return brokerSteps(ctx, s, req)
		},
	}
}

func brokerSteps(ctx context.Context, s *Script, req CharterRequest) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	if err := s.Absorb(ctx); err != nil {
		return err
	}
	if err := s.SignIn(ctx); err != nil {
		return err
	}
	if _, err := s.Expect(ctx, "broker dashboard loaded", dashboardMarkers("Broker")...); err != nil {
		return err
	}

	if err := s.Scroll(ctx); err != nil {
		return err
	}
	if _, err := s.Click(ctx, "open requests tab", brokerRequestsTab...); err != nil {
		return err
	}
	if _, err := s.Click(ctx, "create request", brokerCreate...); err != nil {
		return err
	}

	// Each field is independent; a missing one is skipped, not retried.
	fills := []struct {
		step       string
		value      string
		candidates []locate.Locator
		commit     bool
	}{
		{"fill origin", req.Origin, originField, false},
		{"fill destination", req.Destination, destinationField, false},
		{"fill date", req.Date, dateField, true},
		{"fill time", req.Time, timeField, true},
		{"fill passengers", req.Passengers, passengersField, false},
	}
	for _, f := range fills {
		var err error
		if f.commit {
			_, err = s.FillAndCommit(ctx, f.step, f.value, f.candidates...)
		} else {
			_, err = s.Fill(ctx, f.step, f.value, f.candidates...)
		}
		if err != nil {
			return err
		}
	}

	committed, err := s.Commit(ctx, "request", discardButton, brokerSubmit)
	if err != nil || !committed {
		return err
	}
	if err := s.Think(ctx, readingMs); err != nil {
		return err
	}
	_, err = s.Expect(ctx, "request posted", brokerPosted...)
	return err
}
