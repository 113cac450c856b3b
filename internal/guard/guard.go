// Package guard decides whether a session may enter a role's area.
package guard

import "civic_reporter/internal/model"

// Decision is the outcome of Check. A zero LoginPath means allow.
type Decision struct {
	LoginPath string
	// NoSession distinguishes "log in first" from "wrong role".
	NoSession bool
}

func (d Decision) Allowed() bool { return d.LoginPath == "" }

var loginPaths = map[model.Role]string{
	model.RoleCitizen:      "/login/citizen",
	model.RoleAdmin:        "/login/admin",
	model.RoleMunicipality: "/login/municipality",
}

// LoginPath returns the login route for role, or "/" for an unknown role.
func LoginPath(role model.Role) string {
	if p, ok := loginPaths[role]; ok {
		return p
	}
	return "/"
}

// Check allows s into an area that requires role. Anything else is
// redirected to the required role's login path.
func Check(required model.Role, s *model.Session) Decision {
	switch {
	case s == nil:
		return Decision{LoginPath: LoginPath(required), NoSession: true}
	case s.Role != required:
		return Decision{LoginPath: LoginPath(required)}
	default:
		return Decision{}
	}
}
