package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/garrethdev/coastal-elements/internal/crm"
	"github.com/garrethdev/coastal-elements/internal/metrics"
	"github.com/garrethdev/coastal-elements/internal/store"
)

// WaitlistHandler serves the landing page and captures waitlist emails: each
// signup is forwarded to the CRM and mirrored into the local waitlist log.
type WaitlistHandler struct {
	crmClient     *crm.Client
	waitlistStore *store.WaitlistStore
	renderer      *Renderer
	collector     *metrics.Collector
	logger        *slog.Logger
}

func NewWaitlistHandler(
	crmClient *crm.Client,
	ws *store.WaitlistStore,
	renderer *Renderer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *WaitlistHandler {
	return &WaitlistHandler{
		crmClient:     crmClient,
		waitlistStore: ws,
		renderer:      renderer,
		collector:     collector,
		logger:        logger,
	}
}

// Landing renders the marketing page with the email capture form.
func (h *WaitlistHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, "index.html", nil)
}

// ThankYou renders the post-signup page.
func (h *WaitlistHandler) ThankYou(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, "thanks.html", map[string]any{
		"AlreadyJoined": r.URL.Query().Get("existing") == "1",
	})
}

// Join handles the landing page form post.
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, "index.html", map[string]any{"Error": "Invalid form data"})
		return
	}

	email := r.FormValue("email")
	if email == "" {
		h.renderer.Render(w, "index.html", map[string]any{"Error": "Email is required"})
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		h.renderer.Render(w, "index.html", map[string]any{"Error": "Please enter a valid email address", "Email": email})
		return
	}

	already, err := h.submit(r.Context(), email)
	if err != nil {
		h.logger.Error("waitlist submit", "error", err)
		h.renderer.Render(w, "index.html", map[string]any{"Error": "Failed to save email. Please try again.", "Email": email})
		return
	}

	target := "/thanks"
	if already {
		target = "/thanks?existing=1"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// JoinAPI is the JSON variant of the signup used by the single-page landing
// flow: POST /api/submit-email.
func (h *WaitlistHandler) JoinAPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email is required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Please enter a valid email address"})
		return
	}

	already, err := h.submit(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("waitlist submit", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to save email"})
		return
	}
	if already {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "You're already on the waitlist."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// submit forwards the email to the CRM and mirrors it locally. The local
// mirror is best-effort: a CRM success with a failed mirror still counts.
func (h *WaitlistHandler) submit(ctx context.Context, email string) (already bool, err error) {
	if h.crmClient != nil && h.crmClient.Configured() {
		err = h.crmClient.SubmitContact(ctx, email)
		if errors.Is(err, crm.ErrAlreadyOnWaitlist) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
	} else {
		h.logger.Info("crm not configured, waitlist signup recorded locally only", "email", email)
	}

	if err := h.waitlistStore.Create(email, crm.Source); err != nil {
		h.logger.Error("waitlist mirror", "error", err)
	}
	h.collector.RecordWaitlistSignup()
	h.logger.Info("waitlist signup", "email", email)
	return false, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
