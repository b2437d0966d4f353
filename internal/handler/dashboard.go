package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/garrethdev/coastal-elements/internal/middleware"
	"github.com/garrethdev/coastal-elements/internal/session"
)

// DashboardHandler shows the account overview and handles subscription
// mutations.
type DashboardHandler struct {
	sessions *session.Manager
	renderer *Renderer
	logger   *slog.Logger
}

func NewDashboardHandler(sessions *session.Manager, renderer *Renderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{sessions: sessions, renderer: renderer, logger: logger}
}

// Dashboard renders profile, credits, and subscription state. The profile is
// refreshed first so credit balances are current; a failed refresh falls back
// to the cached snapshot.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	visitorID := middleware.VisitorID(r)
	if err := h.sessions.RefreshProfile(r.Context(), visitorID); err != nil {
		h.logger.Warn("profile refresh", "error", err)
	}

	st := h.sessions.Current(visitorID)
	h.renderer.Render(w, "dashboard.html", map[string]any{
		"User":    st.User,
		"Profile": st.Profile,
		"Notice":  r.URL.Query().Get("notice"),
	})
}

// Subscribe creates or changes the subscription for the posted plan id.
func (h *DashboardHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	visitorID := middleware.VisitorID(r)
	err := h.sessions.Subscribe(r.Context(), visitorID, r.FormValue("plan_id"))
	if err != nil {
		h.renderError(w, r, err, "Failed to create subscription")
		return
	}
	http.Redirect(w, r, "/dashboard?notice=subscribed", http.StatusSeeOther)
}

// CancelSubscription schedules cancellation at period end.
func (h *DashboardHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	visitorID := middleware.VisitorID(r)
	if err := h.sessions.CancelSubscription(r.Context(), visitorID); err != nil {
		h.renderError(w, r, err, "Failed to cancel subscription")
		return
	}
	http.Redirect(w, r, "/dashboard?notice=cancelled", http.StatusSeeOther)
}

func (h *DashboardHandler) renderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	st := h.sessions.Current(middleware.VisitorID(r))
	h.renderer.Render(w, "dashboard.html", map[string]any{
		"User":    st.User,
		"Profile": st.Profile,
		"Error":   msg,
	})
}
