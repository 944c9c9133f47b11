package persona

import (
	"time"

	"github.com/xkilldash9x/charterbots/api/schemas"
)

// Default returns the four archetypes, one per role. Each call returns a fresh slice.
func Default() []Persona {
	return []Persona{
		{
			Name:        "james-broker",
			Role:        RoleBroker,
			Credentials: schemas.Credential{Username: "james@broker.demo", Password: "demo"},
			TypingWPM:   55,
			Hesitation:  0.2,
			ErrorRate:   0.03,
			Patience:    Patience{Min: 4 * time.Second, Max: 9 * time.Second},
		},
		{
			Name:           "olivia-operator",
			Role:           RoleOperator,
			Credentials:    schemas.Credential{Username: "olivia@operator.demo", Password: "demo"},
			TypingWPM:      48,
			Hesitation:     0.35,
			ErrorRate:      0.04,
			Patience:       Patience{Min: 6 * time.Second, Max: 12 * time.Second},
			AllowsFollowup: true,
		},
		{
			Name:        "marco-pilot",
			Role:        RolePilot,
			Credentials: schemas.Credential{Username: "marco@pilot.demo", Password: "demo"},
			TypingWPM:   35,
			Hesitation:  0.5,
			ErrorRate:   0.06,
			Patience:    Patience{Min: 8 * time.Second, Max: 15 * time.Second},
		},
		{
			Name:        "ana-crew",
			Role:        RoleCrew,
			Credentials: schemas.Credential{Username: "ana@crew.demo", Password: "demo"},
			TypingWPM:   40,
			Hesitation:  0.4,
			ErrorRate:   0.05,
			Patience:    Patience{Min: 5 * time.Second, Max: 10 * time.Second},
		},
	}
}
