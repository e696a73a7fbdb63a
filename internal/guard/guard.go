// Package guard decides, on every navigation, whether a view may render for
// the current authentication state or must redirect to the login route.
package guard

import (
	"strings"

	"github.com/jonathan/jobboard/internal/session"
)

// Route identifies a top-level view.
type Route string

// Views of the client.
const (
	Home                 Route = "/"
	Jobs                 Route = "/jobs"
	Notifications        Route = "/notifications"
	Applications         Route = "/applications"
	BulkAnalysis         Route = "/bulk-analysis"
	Profile              Route = "/profile"
	Login                Route = "/login"
	Register             Route = "/register"
	PasswordReset        Route = "/password-reset"
	PasswordResetConfirm Route = "/password-reset-confirm"
)

// authRoutes are reachable without a session.
var authRoutes = map[Route]bool{
	Login:                true,
	Register:             true,
	PasswordReset:        true,
	PasswordResetConfirm: true,
}

// ProtectedRoutes lists the views that require a session.
var ProtectedRoutes = []Route{Home, Jobs, Notifications, Applications, BulkAnalysis, Profile}

// Policy holds the product decisions the guard does not infer.
type Policy struct {
	// RedirectAuthenticated sends users with a session away from the
	// login and registration routes to Home. Off by default.
	RedirectAuthenticated bool
}

// Decision is the outcome of evaluating a navigation.
type Decision struct {
	Allow    bool
	Redirect Route
}

// StateSource reports the current authentication state.
type StateSource interface {
	State() session.State
}

// Guard evaluates navigations against the live session state.
type Guard struct {
	source StateSource
	policy Policy
}

// New returns a guard reading state from source at every evaluation.
func New(source StateSource, policy Policy) *Guard {
	return &Guard{source: source, policy: policy}
}

// Evaluate decides route against the state at call time. Nothing is cached,
// so a logout that happens while a view is open is seen by the next navigation.
func (g *Guard) Evaluate(route Route) Decision {
	return Decide(route, g.source.State(), g.policy)
}

// Decide is the pure transition rule behind Evaluate.
func Decide(route Route, state session.State, policy Policy) Decision {
	route = Normalize(string(route))

	if IsPublic(route) {
		if state == session.Authenticated && policy.RedirectAuthenticated &&
			(route == Login || route == Register) {
			return Decision{Redirect: Home}
		}
		return Decision{Allow: true}
	}

	if state != session.Authenticated {
		return Decision{Redirect: Login}
	}
	return Decision{Allow: true}
}

// IsPublic reports whether route is reachable without a session.
// Unknown routes are protected.
func IsPublic(route Route) bool {
	return authRoutes[Normalize(string(route))]
}

// Normalize maps a request path to its top-level route:
// "/applications/12/status?x=1" becomes "/applications".
func Normalize(path string) Route {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return Home
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return Route("/" + path)
}
