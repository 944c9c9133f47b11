package journey

import (
	"context"

	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/locate"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// Quote is an operator's answer to an open request.
type Quote struct {
	Price    string
	Aircraft string
	Notes    string
	// Followup is sent from the messages tab when the persona allows it.
	Followup string
}

// DefaultQuote is a plausible light-jet offer for the demo request.
var DefaultQuote = Quote{
	Price:    "18500",
	Aircraft: "Citation XLS+",
	Notes:    "Two crew, catering on request.",
	Followup: "Happy to hold this aircraft for 24 hours. Let me know if the timing works.",
}

var (
	operatorRequestsTab = with(tab("Open Requests"), tab("Requests")...)
	operatorRequestCard = []locate.Locator{
		locate.CSS("[data-testid=request-card]"),
		locate.Role("button", "View"),
		locate.Text("LTN"),
		locate.Role("row", ""),
	}
	operatorQuoteButton = []locate.Locator{
		locate.Role("button", "Quote"),
		locate.Role("button", "Make Offer"),
		locate.Text("Submit Quote"),
	}
	priceField    = with(field("Price", "price"), locate.CSS("input[type=number]"))
	aircraftField = field("Aircraft", "aircraft")
	notesField    = with(field("Notes", "notes"), locate.CSS("textarea"))
	quoteSubmit   = []locate.Locator{
		locate.Role("button", "Send Quote"),
		locate.Role("button", "Submit Quote"),
		locate.Role("button", "Submit"),
		locate.CSS("form button[type=submit]"),
	}
	quoteSent = with([]locate.Locator{
		locate.Text("Quote sent"),
		locate.Text("Quote submitted"),
	}, successToast...)
	messagesTab  = tab("Messages")
	messageInput = []locate.Locator{
		locate.Placeholder("Type a message"),
		locate.Placeholder("Message"),
		locate.Role("textbox", "Message"),
		locate.CSS("textarea"),
	}
)

// Operator answers a broker's request with a quote and, for personas that
// allow it, follows up in the message thread.
func Operator(q Quote) Journey {
	return Journey{
		Name:         "operator",
		Role:         persona.RoleOperator,
		DefaultRoute: "/operator",
		steps: func(ctx context.Context, s *Script) error {
			return operatorSteps(ctx, s, q)
		},
	}
}

func operatorSteps(ctx context.Context, s *Script, q Quote) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	if err := s.Absorb(ctx); err != nil {
		return err
	}
	if err := s.SignIn(ctx); err != nil {
		return err
	}
	if _, err := s.Expect(ctx, "operator dashboard loaded", dashboardMarkers("Operator")...); err != nil {
		return err
	}

	if _, err := s.Click(ctx, "open requests tab", operatorRequestsTab...); err != nil {
		return err
	}
	if err := s.Scroll(ctx); err != nil {
		return err
	}
	if _, err := s.Click(ctx, "open request", operatorRequestCard...); err != nil {
		return err
	}
	if err := s.Think(ctx, readingMs); err != nil {
		return err
	}
	if _, err := s.Click(ctx, "start quote", operatorQuoteButton...); err != nil {
		return err
	}

	if _, err := s.Fill(ctx, "fill price", q.Price, priceField...); err != nil {
		return err
	}
	if _, err := s.Fill(ctx, "fill aircraft", q.Aircraft, aircraftField...); err != nil {
		return err
	}
	if _, err := s.Fill(ctx, "fill notes", q.Notes, notesField...); err != nil {
		return err
	}

	committed, err := s.Commit(ctx, "quote", discardButton, quoteSubmit)
	if err != nil {
		return err
	}
	if committed {
		if err := s.Think(ctx, readingMs); err != nil {
			return err
		}
		if _, err := s.Expect(ctx, "quote sent", quoteSent...); err != nil {
			return err
		}
	}

	if !committed || !s.persona.AllowsFollowup || q.Followup == "" {
		return nil
	}
	return operatorFollowup(ctx, s, q.Followup)
}

func operatorFollowup(ctx context.Context, s *Script, text string) error {
	if _, err := s.Click(ctx, "open messages", messagesTab...); err != nil {
		return err
	}
	ok, err := s.Fill(ctx, "type follow-up", text, messageInput...)
	if err != nil || !ok {
		return err
	}
	return s.human.PressKey(ctx, humanoid.KeyEnter)
}
