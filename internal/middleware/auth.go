package middleware

import (
	"net/http"

	"github.com/garrethdev/coastal-elements/internal/session"
)

// RequireSession gates protected pages: visitors without an authenticated
// session are sent to the login page. Must run after EnsureVisitor.
func RequireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			visitorID := VisitorID(r)
			if visitorID == "" || !sessions.Current(visitorID).Authenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
