package journey

import (
	"fmt"

	"github.com/xkilldash9x/charterbots/internal/config"
	"github.com/xkilldash9x/charterbots/internal/persona"
)

// ForRole returns the stock journey for role.
func ForRole(role persona.Role) (Journey, error) {
	switch role {
	case persona.RoleBroker:
		return Broker(DefaultCharterRequest), nil
	case persona.RoleOperator:
		return Operator(DefaultQuote), nil
	case persona.RolePilot:
		return Pilot(), nil
	case persona.RoleCrew:
		return Crew(), nil
	default:
		return Journey{}, fmt.Errorf("journey: no journey for role %q", role)
	}
}

// RouteFor picks the configured entry path for role. Empty means the
// journey's own default.
func RouteFor(role persona.Role, routes config.RoutesConfig) string {
	switch role {
	case persona.RoleBroker:
		return routes.Broker
	case persona.RoleOperator:
		return routes.Operator
	case persona.RolePilot:
		return routes.Pilot
	case persona.RoleCrew:
		return routes.Crew
	}
	return ""
}
