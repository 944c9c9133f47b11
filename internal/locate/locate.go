// Package locate finds UI elements by heuristics instead of a fixed markup
// contract. Candidates are tried in order and the first one that resolves to a
// visible element wins; a candidate that errors is skipped like a miss.
package locate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Strategy names how a Locator interprets its value.
type Strategy string

const (
	ByCSS         Strategy = "css"
	ByText        Strategy = "text"
	ByPlaceholder Strategy = "placeholder"
	ByLabel       Strategy = "label"
	ByRole        Strategy = "role"
	ByName        Strategy = "name"
)

// RefAttribute is the attribute stamped onto a matched element so later
// interactions can address it with a plain CSS selector.
const RefAttribute = "data-cb-ref"

// ErrNotFound reports that no candidate matched a visible element.
var ErrNotFound = errors.New("locate: no candidate matched")

// Locator is a single way of finding an element.
type Locator struct {
	By    Strategy `json:"by"`
	Value string   `json:"value"`
	// Name narrows a role lookup by accessible name.
	Name string `json:"name,omitempty"`
}

func CSS(selector string) Locator     { return Locator{By: ByCSS, Value: selector} }
func Text(text string) Locator        { return Locator{By: ByText, Value: text} }
func Placeholder(text string) Locator { return Locator{By: ByPlaceholder, Value: text} }
func Label(text string) Locator       { return Locator{By: ByLabel, Value: text} }
func Name(attr string) Locator        { return Locator{By: ByName, Value: attr} }

// Role matches an ARIA role (explicit or implicit), optionally by accessible name.
func Role(role, name string) Locator { return Locator{By: ByRole, Value: role, Name: name} }

func (l Locator) String() string {
	if l.By == ByRole && l.Name != "" {
		return fmt.Sprintf("%s=%s[name~%q]", l.By, l.Value, l.Name)
	}
	return fmt.Sprintf("%s=%q", l.By, l.Value)
}

// Match is a resolved element.
type Match struct {
	Locator Locator
	// Selector addresses the tagged element, e.g. [data-cb-ref="..."].
	Selector string
}

// Prober resolves one locator against the live page. found=false with a nil
// error is an ordinary miss.
type Prober interface {
	Probe(ctx context.Context, l Locator) (selector string, found bool, err error)
}

// Matcher is one ranked strategy for FindFirstMatch.
type Matcher interface {
	Match(ctx context.Context, p Prober) (Match, bool, error)
}

// Match makes a Locator usable as a Matcher.
func (l Locator) Match(ctx context.Context, p Prober) (Match, bool, error) {
	sel, found, err := p.Probe(ctx, l)
	if err != nil || !found {
		return Match{}, false, err
	}
	return Match{Locator: l, Selector: sel}, true, nil
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(ctx context.Context, p Prober) (Match, bool, error)

func (f MatcherFunc) Match(ctx context.Context, p Prober) (Match, bool, error) { return f(ctx, p) }

// Candidates converts locators to matchers, preserving rank.
func Candidates(locators ...Locator) []Matcher {
	out := make([]Matcher, len(locators))
	for i, l := range locators {
		out[i] = l
	}
	return out
}

// FindFirstMatch evaluates matchers in order and returns the first hit.
// Matcher errors are logged at debug and treated as misses. A cancelled
// context stops the scan.
func FindFirstMatch(ctx context.Context, p Prober, logger *zap.Logger, matchers []Matcher) (Match, bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for i, m := range matchers {
		if ctx.Err() != nil {
			return Match{}, false
		}
		match, ok, err := m.Match(ctx, p)
		if err != nil {
			logger.Debug("Candidate failed, trying next.", zap.Int("rank", i), zap.Error(err))
			continue
		}
		if ok {
			return match, true
		}
	}
	return Match{}, false
}

// NewRef returns a fresh value for RefAttribute.
func NewRef() string {
	return uuid.NewString()
}

// SelectorForRef is the CSS selector of an element tagged with ref.
func SelectorForRef(ref string) string {
	return fmt.Sprintf("[%s=%q]", RefAttribute, ref)
}
