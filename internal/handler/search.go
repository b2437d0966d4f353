package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/garrethdev/coastal-elements/internal/api"
	"github.com/garrethdev/coastal-elements/internal/filter"
	"github.com/garrethdev/coastal-elements/internal/metrics"
	"github.com/garrethdev/coastal-elements/internal/middleware"
	"github.com/garrethdev/coastal-elements/internal/session"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	exportLimit  = 1000
)

const insufficientCredits = "Insufficient credits. You need at least 1 credit to search."

// SearchHandler serves the property search page: structured and
// natural-language searches, CSV export, and saved-search management.
type SearchHandler struct {
	sessions  *session.Manager
	client    *api.Client
	renderer  *Renderer
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewSearchHandler(
	sessions *session.Manager,
	client *api.Client,
	renderer *Renderer,
	collector *metrics.Collector,
	logger *slog.Logger,
) *SearchHandler {
	return &SearchHandler{
		sessions:  sessions,
		client:    client,
		renderer:  renderer,
		collector: collector,
		logger:    logger,
	}
}

// Page renders the empty search form. Quick lists are fetched best-effort;
// the form works without them.
func (h *SearchHandler) Page(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Current(middleware.VisitorID(r))

	data := map[string]any{"Profile": st.Profile}
	if lists, err := h.client.QuickLists(r.Context(), st.User.AccessToken); err != nil {
		h.logger.Warn("quick lists", "error", err)
	} else {
		data["QuickLists"] = lists
	}
	h.renderer.Render(w, "search.html", data)
}

// Search runs a structured search from the filter form.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSearchError(w, r, "Invalid form data")
		return
	}

	in := filter.FromForm(r.Form)
	filters, err := filter.Build(in)
	if err != nil {
		// Validation failures never reach the backend.
		h.renderSearchError(w, r, err.Error())
		return
	}

	visitorID := middleware.VisitorID(r)
	st := h.sessions.Current(visitorID)
	if st.Profile != nil && st.Profile.CurrentCredits < 1 {
		h.renderSearchError(w, r, insufficientCredits)
		return
	}

	results, err := h.client.Search(r.Context(), st.User.AccessToken, in.Query, filters, formInt(r, "page", defaultPage), defaultLimit)
	if err != nil {
		h.renderSearchError(w, r, err.Error())
		return
	}
	h.collector.RecordSearch("structured")

	if err := h.sessions.RefreshProfile(r.Context(), visitorID); err != nil {
		h.logger.Warn("profile refresh after search", "error", err)
	}
	st = h.sessions.Current(visitorID)

	h.renderer.Render(w, "search.html", map[string]any{
		"Profile":   st.Profile,
		"Query":     in.Query,
		"Results":   results,
		"LastQuery": in.Query,
	})
}

// AISearch runs a natural-language search; the structured filters do not
// apply here.
func (h *SearchHandler) AISearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSearchError(w, r, "Invalid form data")
		return
	}

	query := strings.TrimSpace(r.FormValue("query"))
	if query == "" {
		h.renderSearchError(w, r, "Please enter your search question")
		return
	}

	visitorID := middleware.VisitorID(r)
	st := h.sessions.Current(visitorID)
	if st.Profile != nil && st.Profile.CurrentCredits < 1 {
		h.renderSearchError(w, r, insufficientCredits)
		return
	}

	results, err := h.client.AISearch(r.Context(), st.User.AccessToken, query, formInt(r, "page", defaultPage), defaultLimit)
	if err != nil {
		h.renderSearchError(w, r, err.Error())
		return
	}
	h.collector.RecordSearch("ai")

	if err := h.sessions.RefreshProfile(r.Context(), visitorID); err != nil {
		h.logger.Warn("profile refresh after search", "error", err)
	}
	st = h.sessions.Current(visitorID)

	h.renderer.Render(w, "search.html", map[string]any{
		"Profile":   st.Profile,
		"Query":     query,
		"Results":   results,
		"LastQuery": query,
	})
}

// Export re-runs the posted search server-side and streams the CSV back as a
// download. The export form re-posts the same filter fields as the search.
func (h *SearchHandler) Export(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderSearchError(w, r, "Invalid form data")
		return
	}

	in := filter.FromForm(r.Form)
	filters, err := filter.Build(in)
	if err != nil {
		h.renderSearchError(w, r, "Please perform a search first before exporting")
		return
	}

	visitorID := middleware.VisitorID(r)
	st := h.sessions.Current(visitorID)
	if st.Profile != nil && st.Profile.CurrentCredits < 1 {
		h.renderSearchError(w, r, "Insufficient credits. You need at least 1 credit to export.")
		return
	}

	export, err := h.client.Export(r.Context(), st.User.AccessToken, in.Query, filters, exportLimit)
	if err != nil {
		h.renderSearchError(w, r, err.Error())
		return
	}

	if export.CSV == "" || export.CSV == "No properties found" {
		h.renderSearchError(w, r, "No properties found to export. Try different search criteria.")
		return
	}
	h.collector.RecordExport()

	if err := h.sessions.RefreshProfile(r.Context(), visitorID); err != nil {
		h.logger.Warn("profile refresh after export", "error", err)
	}

	filename := export.Filename
	if filename == "" {
		filename = "property-export.csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write([]byte(export.CSV))
}

// SavedSearches lists the visitor's saved searches.
func (h *SearchHandler) SavedSearches(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Current(middleware.VisitorID(r))

	page := queryInt(r, "page", defaultPage)
	list, err := h.client.SavedSearches(r.Context(), st.User.AccessToken, page, defaultLimit)
	if err != nil {
		h.renderer.Render(w, "saved_searches.html", map[string]any{"Error": err.Error()})
		return
	}
	h.renderer.Render(w, "saved_searches.html", map[string]any{
		"Searches": list.Data,
		"Total":    list.Total,
		"Page":     list.Page,
	})
}

// SaveSearch stores the last executed query.
func (h *SearchHandler) SaveSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}
	query := r.FormValue("query")
	if query == "" {
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	st := h.sessions.Current(middleware.VisitorID(r))
	if _, err := h.client.SaveSearch(r.Context(), st.User.AccessToken, query); err != nil {
		h.renderSearchError(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/saved-searches", http.StatusSeeOther)
}

// DeleteSavedSearch removes a saved search by id.
func (h *SearchHandler) DeleteSavedSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/saved-searches", http.StatusSeeOther)
		return
	}
	id := r.FormValue("id")
	if id == "" {
		http.Redirect(w, r, "/saved-searches", http.StatusSeeOther)
		return
	}

	st := h.sessions.Current(middleware.VisitorID(r))
	if err := h.client.DeleteSavedSearch(r.Context(), st.User.AccessToken, id); err != nil {
		h.renderer.Render(w, "saved_searches.html", map[string]any{"Error": err.Error()})
		return
	}
	http.Redirect(w, r, "/saved-searches", http.StatusSeeOther)
}

// renderSearchError returns the search page to its interactive state with the
// message shown inline. Errors here are terminal for the interaction; nothing
// retries.
func (h *SearchHandler) renderSearchError(w http.ResponseWriter, r *http.Request, msg string) {
	st := h.sessions.Current(middleware.VisitorID(r))
	h.renderer.Render(w, "search.html", map[string]any{
		"Profile": st.Profile,
		"Query":   r.FormValue("query"),
		"Error":   msg,
	})
}

func formInt(r *http.Request, key string, fallback int) int {
	if v := r.FormValue(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
