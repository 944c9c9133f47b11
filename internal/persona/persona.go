// Package persona defines the simulated actors and the immutable registry the
// session runner looks them up in.
package persona

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xkilldash9x/charterbots/api/schemas"
	"github.com/xkilldash9x/charterbots/internal/config"
)

// ErrUnknownPersona is returned by Lookup for names that are not registered.
var ErrUnknownPersona = errors.New("persona: unknown persona")

// Role is the marketplace role a persona plays.
type Role string

const (
	RoleBroker   Role = "broker"
	RoleOperator Role = "operator"
	RolePilot    Role = "pilot"
	RoleCrew     Role = "crew"
)

// Roles lists every supported role in journey order.
var Roles = []Role{RoleBroker, RoleOperator, RolePilot, RoleCrew}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("persona: unknown role %q", s)
}

// Patience bounds how long an actor waits for something to show up.
type Patience struct {
	Min time.Duration
	Max time.Duration
}

// Persona is a named parameter set for one simulated actor. It is a value type;
// nothing downstream mutates it.
type Persona struct {
	Name        string
	Credentials schemas.Credential
	Role        Role
	// TypingWPM is the nominal typing speed in words per minute.
	TypingWPM float64
	// Hesitation in [0,1] stretches every think pause.
	Hesitation float64
	// ErrorRate is the per-alphanumeric-character typo probability.
	ErrorRate      float64
	Patience       Patience
	AllowsFollowup bool
}

// ThinkMs scales a base think pause by the persona's hesitation.
func (p Persona) ThinkMs(baseMs float64) float64 {
	return baseMs * (1 + p.Hesitation)
}

// Validate checks that every parameter is usable by the timing models.
func (p Persona) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return errors.New("persona: name is required")
	case p.TypingWPM <= 0:
		return fmt.Errorf("persona %q: typing_wpm must be positive", p.Name)
	case p.Hesitation < 0 || p.Hesitation > 1:
		return fmt.Errorf("persona %q: hesitation must be in [0, 1]", p.Name)
	case p.ErrorRate < 0 || p.ErrorRate > 1:
		return fmt.Errorf("persona %q: error_rate must be in [0, 1]", p.Name)
	case p.Patience.Min < 0 || p.Patience.Min > p.Patience.Max:
		return fmt.Errorf("persona %q: patience min must be non-negative and not exceed max", p.Name)
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return fmt.Errorf("persona %q: %w", p.Name, err)
	}
	return nil
}

// Registry is an immutable name -> Persona table.
type Registry struct {
	byName map[string]Persona
	order  []string
}

// NewRegistry builds a registry, rejecting invalid or duplicate personas.
func NewRegistry(personas []Persona) (*Registry, error) {
	r := &Registry{byName: make(map[string]Persona, len(personas))}
	for _, p := range personas {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("persona: duplicate name %q", p.Name)
		}
		r.byName[p.Name] = p
		r.order = append(r.order, p.Name)
	}
	return r, nil
}

// Lookup returns the persona registered under name.
func (r *Registry) Lookup(name string) (Persona, error) {
	p, ok := r.byName[name]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPersona, name, strings.Join(r.order, ", "))
	}
	return p, nil
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns every persona in registration order.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

// ForRole returns the personas playing role, sorted by name.
func (r *Registry) ForRole(role Role) []Persona {
	var out []Persona
	for _, n := range r.order {
		if p := r.byName[n]; p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge returns a new registry in which overrides replace same-named entries
// field by field (zero values inherit) and unknown names are appended.
// The receiver is left unchanged.
func (r *Registry) Merge(overrides []Persona) (*Registry, error) {
	merged := r.All()
	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[p.Name] = i
	}
	for _, o := range overrides {
		if i, ok := index[o.Name]; ok {
			merged[i] = overlay(merged[i], o)
			continue
		}
		index[o.Name] = len(merged)
		merged = append(merged, o)
	}
	return NewRegistry(merged)
}

func overlay(base, o Persona) Persona {
	if o.Role != "" {
		base.Role = o.Role
	}
	if o.Credentials.Username != "" {
		base.Credentials = o.Credentials
	}
	if o.TypingWPM > 0 {
		base.TypingWPM = o.TypingWPM
	}
	if o.Hesitation > 0 {
		base.Hesitation = o.Hesitation
	}
	if o.ErrorRate > 0 {
		base.ErrorRate = o.ErrorRate
	}
	if o.Patience.Max > 0 {
		base.Patience = o.Patience
	}
	if o.AllowsFollowup {
		base.AllowsFollowup = true
	}
	return base
}

// FromConfig converts the personas section of the configuration. Zero fields
// are left zero so Merge can inherit them.
func FromConfig(entries []config.PersonaConfig) ([]Persona, error) {
	out := make([]Persona, 0, len(entries))
	for _, e := range entries {
		p := Persona{
			Name:           e.Name,
			Credentials:    e.Credentials,
			TypingWPM:      e.TypingWPM,
			Hesitation:     e.Hesitation,
			ErrorRate:      e.ErrorRate,
			AllowsFollowup: e.AllowsFollowup,
			Patience: Patience{
				Min: seconds(e.PatienceMinSec),
				Max: seconds(e.PatienceMaxSec),
			},
		}
		if e.Role != "" {
			role, err := ParseRole(e.Role)
			if err != nil {
				return nil, fmt.Errorf("persona %q: %w", e.Name, err)
			}
			p.Role = role
		}
		out = append(out, p)
	}
	return out, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Load builds the registry used by the CLI: the archetypes merged with any
// personas from configuration. New personas that leave typing speed or typo
// rate unset take the humanoid defaults.
func Load(cfg *config.Config) (*Registry, error) {
	overrides, err := FromConfig(cfg.Personas)
	if err != nil {
		return nil, err
	}
	base, err := NewRegistry(Default())
	if err != nil {
		return nil, err
	}
	for i, o := range overrides {
		if _, known := base.byName[o.Name]; known {
			continue
		}
		if o.TypingWPM == 0 {
			overrides[i].TypingWPM = cfg.Humanoid.DefaultWPM
		}
		if o.ErrorRate == 0 {
			overrides[i].ErrorRate = cfg.Humanoid.DefaultErrorRate
		}
	}
	merged, err := base.Merge(overrides)
	if err != nil {
		return nil, fmt.Errorf("persona: invalid personas configuration: %w", err)
	}
	return merged, nil
}
