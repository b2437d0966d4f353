package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/garrethdev/coastal-elements/internal/metrics"
	"github.com/garrethdev/coastal-elements/internal/middleware"
	"github.com/garrethdev/coastal-elements/internal/otp"
	"github.com/garrethdev/coastal-elements/internal/session"
)

// AuthHandler drives the passwordless login flow: email form → OTP entry →
// verified session.
type AuthHandler struct {
	sessions  *session.Manager
	renderer  *Renderer
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewAuthHandler(sessions *session.Manager, renderer *Renderer, collector *metrics.Collector, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		renderer:  renderer,
		collector: collector,
		logger:    logger,
	}
}

// LoginPage renders the email form, or skips straight to the dashboard for
// an already-authenticated visitor.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.sessions.Current(middleware.VisitorID(r)).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderer.Render(w, "login.html", nil)
}

// RequestOTP handles the email form post. Validation failures are resolved
// locally; the backend is only contacted with a plausible address.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, "login.html", map[string]any{"Error": "Invalid form data"})
		return
	}

	email := r.FormValue("email")
	if email == "" {
		h.renderer.Render(w, "login.html", map[string]any{"Error": "Please enter your email"})
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		h.renderer.Render(w, "login.html", map[string]any{"Error": "Please enter a valid email address", "Email": email})
		return
	}

	if err := h.sessions.RequestOTP(r.Context(), email); err != nil {
		h.renderer.Render(w, "login.html", map[string]any{"Error": err.Error(), "Email": email})
		return
	}

	h.collector.RecordOTPRequest()
	h.renderVerify(w, otp.NewEntry(), email, otp.NewCountdown(otp.ResendWait))
}

// Verify handles the OTP entry form post. Cell values arrive as otp0..otp5;
// a paste field carries clipboard input when the browser reported one.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, "login.html", map[string]any{"Error": "Invalid form data"})
		return
	}

	email := r.FormValue("email")
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	entry := otp.NewEntry()
	if pasted := r.FormValue("paste"); pasted != "" {
		entry.Paste(pasted)
	} else {
		for i := 0; i < otp.Length; i++ {
			v := r.FormValue(fmt.Sprintf("otp%d", i))
			for _, ch := range v {
				entry.Input(i, ch)
				break
			}
		}
	}

	if !entry.Complete() {
		entry.Fail("Please enter the complete 6-digit code")
		h.renderVerify(w, entry, email, otp.NewCountdown(otp.ResendWait))
		return
	}

	entry.BeginSubmit()
	if err := h.sessions.Login(r.Context(), middleware.VisitorID(r), email, entry.Code()); err != nil {
		entry.Fail(err.Error())
		h.collector.RecordLogin("failure")
		h.renderVerify(w, entry, email, otp.NewCountdown(otp.ResendWait))
		return
	}
	entry.Succeed()

	h.collector.RecordLogin("success")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Resend requests a fresh code: the timer restarts and the cells clear, but
// focus is left alone.
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, "login.html", map[string]any{"Error": "Invalid form data"})
		return
	}
	email := r.FormValue("email")
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	entry := otp.NewEntry()
	entry.Resend()
	countdown := otp.NewCountdown(otp.ResendWait)

	if err := h.sessions.RequestOTP(r.Context(), email); err != nil {
		entry.Fail(err.Error())
	} else {
		h.collector.RecordOTPRequest()
	}
	h.renderVerify(w, entry, email, countdown)
}

// Logout destroys the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), middleware.VisitorID(r))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) renderVerify(w http.ResponseWriter, entry *otp.Entry, email string, countdown *otp.Countdown) {
	cells := entry.Cells()
	h.renderer.Render(w, "verify.html", map[string]any{
		"Email":     email,
		"Cells":     cells[:],
		"Focus":     entry.Focus(),
		"Error":     entry.Err(),
		"Countdown": countdown.String(),
	})
}
