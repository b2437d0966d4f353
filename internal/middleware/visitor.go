package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// VisitorCookie names the anonymous visitor id cookie. It identifies a
// browser, not an account; auth state is keyed off it in the snapshot store.
const VisitorCookie = "coastal_visitor"

type visitorKey struct{}

// WithVisitorID stores the visitor id in the context.
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorKey{}, id)
}

// VisitorID retrieves the visitor id from the request context.
func VisitorID(r *http.Request) string {
	id, _ := r.Context().Value(visitorKey{}).(string)
	return id
}

// EnsureVisitor assigns a visitor id cookie on first contact and makes the
// id available to downstream handlers.
func EnsureVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(VisitorCookie); err == nil && cookie.Value != "" {
			id = cookie.Value
		} else {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     VisitorCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   180 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
	})
}
