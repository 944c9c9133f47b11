// Package journey holds the per-role scripts that drive a simulated actor
// through the target application. Stages run strictly in order. A missing
// element is a soft miss: it is logged as a warning and the stage is skipped.
// Anything else ends the journey and is returned from Run.
package journey

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/xkilldash9x/charterbots/internal/humanoid"
	"github.com/xkilldash9x/charterbots/internal/locate"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// AbandonProbability is the chance that a form is discarded instead of submitted.
const AbandonProbability = 0.10

const (
	// pollIntervalMs is the nominal wait between indicator probes.
	pollIntervalMs = 750.0
	// readingMs is the base think pause after a page settles.
	readingMs = 900.0
)

// Page is the part of a browser tab a journey drives directly. Element
// interactions go through the humanoid controller instead.
type Page interface {
	locate.Prober
	Navigate(ctx context.Context, path string) error
	ClearState(ctx context.Context) error
	WaitNetworkIdle(ctx context.Context) error
}

// Chooser returns a number in [0, 1) for randomized branches.
type Chooser func() float64

// Env is everything one run of a journey needs.
type Env struct {
	Page    Page
	Human   humanoid.Controller
	Persona persona.Persona
	Logger  *zap.Logger
	// Route is the entry path; empty means the journey's default.
	Route string
	// Chooser drives the abandon branch. Nil draws from Human.
	Chooser Chooser
}

// Journey is a named, role-specific script.
type Journey struct {
	Name         string
	Role         persona.Role
	DefaultRoute string
	steps        func(ctx context.Context, s *Script) error
}

// New defines a custom journey from a step function.
func New(name string, role persona.Role, defaultRoute string, steps func(ctx context.Context, s *Script) error) Journey {
	return Journey{Name: name, Role: role, DefaultRoute: defaultRoute, steps: steps}
}

// Run executes j. Soft misses never surface; a hard failure or a panic ends
// the journey early and is logged and returned so the caller can report it.
func Run(ctx context.Context, j Journey, env Env) (err error) {
	if env.Page == nil || env.Human == nil {
		return errors.New("journey: page and controller are required")
	}
	s := newScript(j, env)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("❌ Journey panicked.", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("journey %s panicked: %v", j.Name, r)
		}
	}()

	if err := j.steps(ctx, s); err != nil {
		s.logger.Error("❌ Journey ended early.", zap.Error(err))
		return fmt.Errorf("journey %s: %w", j.Name, err)
	}
	return nil
}

// Script is the step vocabulary shared by every journey.
type Script struct {
	page    Page
	human   humanoid.Controller
	persona persona.Persona
	logger  *zap.Logger
	route   string
	choose  Chooser
}

func newScript(j Journey, env Env) *Script {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	route := env.Route
	if route == "" {
		route = j.DefaultRoute
	}
	choose := env.Chooser
	if choose == nil {
		human := env.Human
		choose = func() float64 { return human.Uniform(0, 1) }
	}
	return &Script{
		page:    env.Page,
		human:   env.Human,
		persona: env.Persona,
		logger:  logger.Named("journey").With(zap.String("journey", j.Name), zap.String("persona", env.Persona.Name)),
		route:   route,
		choose:  choose,
	}
}

// Open navigates to the entry route and starts from a blank terminal.
func (s *Script) Open(ctx context.Context) error {
	if err := s.page.Navigate(ctx, s.route); err != nil {
		return err
	}
	if err := s.page.ClearState(ctx); err != nil {
		return err
	}
	s.logger.Debug("Entry page opened.", zap.String("route", s.route))
	return nil
}

// Absorb waits for the page to settle and then reads it.
func (s *Script) Absorb(ctx context.Context) error {
	if err := s.page.WaitNetworkIdle(ctx); err != nil {
		return err
	}
	return s.Think(ctx, readingMs)
}

// Think pauses for a reading/deciding interval scaled by the persona's hesitation.
func (s *Script) Think(ctx context.Context, baseMs float64) error {
	return s.human.Think(ctx, s.persona.ThinkMs(baseMs))
}

// Scroll browses the page with a few wheel bursts.
func (s *Script) Scroll(ctx context.Context) error {
	return s.human.ScrollHuman(ctx)
}

// Find resolves the first matching candidate. A miss is logged as a warning.
func (s *Script) Find(ctx context.Context, step string, candidates ...locate.Locator) (locate.Match, bool) {
	m, ok := locate.FindFirstMatch(ctx, s.page, s.logger, locate.Candidates(candidates...))
	if !ok {
		s.miss(step, candidates)
	}
	return m, ok
}

// Click finds and clicks a control. The bool reports whether anything was clicked.
func (s *Script) Click(ctx context.Context, step string, candidates ...locate.Locator) (bool, error) {
	m, ok := s.Find(ctx, step, candidates...)
	if !ok {
		return false, nil
	}
	if err := s.human.ClickHuman(ctx, m.Selector); err != nil {
		return false, fmt.Errorf("%s: %w", step, err)
	}
	s.hit(step, m)
	return true, nil
}

// Fill types text into a field at the persona's speed and accuracy.
func (s *Script) Fill(ctx context.Context, step, text string, candidates ...locate.Locator) (bool, error) {
	m, ok := s.Find(ctx, step, candidates...)
	if !ok {
		return false, nil
	}
	if err := s.human.FillHuman(ctx, m.Selector, text, s.persona.TypingWPM, s.persona.ErrorRate); err != nil {
		return false, fmt.Errorf("%s: %w", step, err)
	}
	s.hit(step, m)
	return true, nil
}

// FillAndCommit fills a field and then tabs out of it, which closes the
// native pickers of date and time inputs.
func (s *Script) FillAndCommit(ctx context.Context, step, text string, candidates ...locate.Locator) (bool, error) {
	ok, err := s.Fill(ctx, step, text, candidates...)
	if !ok || err != nil {
		return ok, err
	}
	if err := s.human.PressKey(ctx, humanoid.KeyTab); err != nil {
		return true, fmt.Errorf("%s: %w", step, err)
	}
	return true, nil
}

// Select chooses value in a dropdown.
func (s *Script) Select(ctx context.Context, step, value string, candidates ...locate.Locator) (bool, error) {
	m, ok := s.Find(ctx, step, candidates...)
	if !ok {
		return false, nil
	}
	if err := s.human.SelectHuman(ctx, m.Selector, value); err != nil {
		return false, fmt.Errorf("%s: %w", step, err)
	}
	s.hit(step, m)
	return true, nil
}

// Expect waits for any of the indicators to appear, polling for as long as
// the persona's patience allows. It never fails; a miss is a warning.
func (s *Script) Expect(ctx context.Context, step string, indicators ...locate.Locator) (bool, error) {
	budget := s.human.Uniform(
		float64(s.persona.Patience.Min.Milliseconds()),
		float64(s.persona.Patience.Max.Milliseconds()),
	)
	matchers := locate.Candidates(indicators...)

	for waited := 0.0; ; waited += pollIntervalMs {
		if m, ok := locate.FindFirstMatch(ctx, s.page, s.logger, matchers); ok {
			s.hit(step, m)
			return true, nil
		}
		if waited+pollIntervalMs > budget {
			break
		}
		if err := s.human.WaitHuman(ctx, pollIntervalMs); err != nil {
			return false, err
		}
	}
	s.miss(step, indicators)
	return false, nil
}

// Abandon draws the abandon branch.
func (s *Script) Abandon() bool {
	return s.choose() < AbandonProbability
}

// Commit either discards or submits the current form. committed is true when
// a submit control was clicked.
func (s *Script) Commit(ctx context.Context, form string, discard, submit []locate.Locator) (committed bool, err error) {
	if s.Abandon() {
		s.logger.Info("Abandoning "+form+".", zap.String("branch", "abandon"))
		_, err := s.Click(ctx, "discard "+form, discard...)
		return false, err
	}
	return s.Click(ctx, "submit "+form, submit...)
}

// SignIn logs in with the persona's credentials when a login form is showing.
// An already signed-in terminal is not a miss.
func (s *Script) SignIn(ctx context.Context) error {
	m, ok := locate.FindFirstMatch(ctx, s.page, s.logger, locate.Candidates(emailField...))
	if !ok {
		s.logger.Debug("No login form; assuming an authenticated terminal.")
		return nil
	}
	creds := s.persona.Credentials
	if err := s.human.FillHuman(ctx, m.Selector, creds.Username, s.persona.TypingWPM, s.persona.ErrorRate); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	s.hit("enter email", m)

	// Passwords go in without typos.
	if pm, ok := s.Find(ctx, "enter password", passwordField...); ok {
		if err := s.human.FillHuman(ctx, pm.Selector, creds.Password, s.persona.TypingWPM, 0); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		s.hit("enter password", pm)
	}
	if _, err := s.Click(ctx, "sign in", signInButton...); err != nil {
		return err
	}
	return s.Absorb(ctx)
}

func (s *Script) hit(step string, m locate.Match) {
	s.logger.Info("✅ "+step, zap.String("matched", m.Locator.String()))
}

func (s *Script) miss(step string, candidates []locate.Locator) {
	tried := make([]string, len(candidates))
	for i, c := range candidates {
		tried[i] = c.String()
	}
	s.logger.Warn("⚠️ "+step+": no candidate matched, skipping.", zap.Strings("tried", tried))
}
