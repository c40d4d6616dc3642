package session

import (
	"slices"

	"github.com/CodeWithGeorg/Academic/internal/domain"
)

const LoginRoute = "/login"

type DecisionKind int

const (
	// Loading means the session is not resolved yet: render nothing and
	// do not redirect.
	Loading DecisionKind = iota
	RedirectLogin
	Redirect
	Allow
)

type Decision struct {
	Kind  DecisionKind
	Route string
}

// HomeRoute is where each role lands after sign-in.
func HomeRoute(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// Authorize decides whether a route guarded by allowed may render. No
// allowed roles means any signed-in user.
func (m *Manager) Authorize(allowed ...domain.Role) Decision {
	m.mu.RLock()
	state, role := m.state, m.session.Role
	m.mu.RUnlock()

	switch state {
	case StateInit, StateLoading:
		return Decision{Kind: Loading}
	case StateAuthenticated:
		if len(allowed) > 0 && !slices.Contains(allowed, role) {
			return Decision{Kind: Redirect, Route: HomeRoute(role)}
		}
		return Decision{Kind: Allow}
	default:
		return Decision{Kind: RedirectLogin, Route: LoginRoute}
	}
}
