// Package api is the HTTP client for the search backend. Every call is a
// single attempt: failures are mapped to a user-facing *Error and surfaced,
// never retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/garrethdev/coastal-elements/internal/model"
)

const (
	defaultTimeout = 10 * time.Second
	// Export runs the full search server-side before building the CSV, so it
	// gets a much longer budget than ordinary calls.
	defaultExportTimeout = 60 * time.Second
)

// Error is a backend-reported or transport failure normalized to the message
// the UI shows. Status is zero for transport failures.
type Error struct {
	Message string
	Status  int
	Timeout bool
}

func (e *Error) Error() string { return e.Message }

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message"`
	Err     string          `json:"error"`
}

func (e *envelope) errorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != "" {
		return e.Err
	}
	return "Request failed"
}

// Client talks to the backend REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	exportTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

func WithExportTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.exportTimeout = d
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		httpClient:    http.DefaultClient,
		timeout:       defaultTimeout,
		exportTimeout: defaultExportTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one request and decodes the envelope. A non-2xx status or a
// success:false body becomes an *Error carrying the backend's message.
func (c *Client) do(ctx context.Context, method, path, token string, body any, timeout time.Duration) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &Error{Message: "Request timeout", Timeout: true}
		}
		return nil, &Error{Message: "Network error"}
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{Message: "Network error", Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return nil, &Error{Message: env.errorMessage(), Status: resp.StatusCode}
	}
	return &env, nil
}

func (c *Client) post(ctx context.Context, path, token string, body any) (*envelope, error) {
	return c.do(ctx, http.MethodPost, path, token, body, c.timeout)
}

func (c *Client) get(ctx context.Context, path, token string) (*envelope, error) {
	return c.do(ctx, http.MethodGet, path, token, nil, c.timeout)
}

// RequestOTP asks the backend to email a one-time passcode.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	_, err := c.post(ctx, "/auth/otp/request", "", map[string]any{"email": email})
	return err
}

type verifyData struct {
	User    model.User    `json:"user"`
	Profile model.Profile `json:"profile"`
}

// VerifyOTP exchanges an emailed code for a session and profile.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*model.User, *model.Profile, error) {
	env, err := c.post(ctx, "/auth/otp/verify", "", map[string]any{"email": email, "token": code})
	if err != nil {
		return nil, nil, err
	}
	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, nil, &Error{Message: "Network error"}
	}
	return &data.User, &data.Profile, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.post(ctx, "/auth/logout", token, map[string]any{})
	return err
}

// Profile fetches the caller's account record.
func (c *Client) Profile(ctx context.Context, token string) (*model.Profile, error) {
	env, err := c.get(ctx, "/users/profile", token)
	if err != nil {
		return nil, err
	}
	var profile model.Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, &Error{Message: "Network error"}
	}
	return &profile, nil
}

// decodeOptionalProfile tolerates an empty data field: subscription mutations
// may return the updated profile directly or nothing at all.
func decodeOptionalProfile(env *envelope) (*model.Profile, error) {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}
	var profile model.Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return nil, nil
	}
	if profile.ID == "" {
		return nil, nil
	}
	return &profile, nil
}

// CreateSubscription subscribes the account to a plan. The returned profile
// may be nil when the backend omits it.
func (c *Client) CreateSubscription(ctx context.Context, token, planID string) (*model.Profile, error) {
	env, err := c.post(ctx, "/users/subscription", token, map[string]any{"planId": planID})
	if err != nil {
		return nil, err
	}
	return decodeOptionalProfile(env)
}

// CancelSubscription schedules the subscription for cancellation.
func (c *Client) CancelSubscription(ctx context.Context, token string) (*model.Profile, error) {
	env, err := c.post(ctx, "/users/subscription/cancel", token, map[string]any{})
	if err != nil {
		return nil, err
	}
	return decodeOptionalProfile(env)
}

// Search runs a structured property search.
func (c *Client) Search(ctx context.Context, token, query string, filters map[string]any, page, limit int) (*model.SearchResults, error) {
	env, err := c.post(ctx, "/search", token, map[string]any{
		"query":   query,
		"filters": filters,
		"page":    page,
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}
	return decodeResults(env)
}

// AISearch runs a natural-language property search.
func (c *Client) AISearch(ctx context.Context, token, query string, page, limit int) (*model.SearchResults, error) {
	env, err := c.post(ctx, "/search/ai", token, map[string]any{
		"query": query,
		"page":  page,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	return decodeResults(env)
}

func decodeResults(env *envelope) (*model.SearchResults, error) {
	var results model.SearchResults
	if err := json.Unmarshal(env.Data, &results); err != nil {
		return nil, &Error{Message: "Network error"}
	}
	return &results, nil
}

// Export runs a search server-side and returns the results as CSV. Uses the
// extended export timeout.
func (c *Client) Export(ctx context.Context, token, query string, filters map[string]any, limit int) (*model.Export, error) {
	env, err := c.do(ctx, http.MethodPost, "/search/export", token, map[string]any{
		"query":   query,
		"filters": filters,
		"limit":   limit,
	}, c.exportTimeout)
	if err != nil {
		return nil, err
	}
	var export model.Export
	if err := json.Unmarshal(env.Data, &export); err != nil {
		return nil, &Error{Message: "Network error"}
	}
	return &export, nil
}

// QuickLists fetches the predefined search shortcuts.
func (c *Client) QuickLists(ctx context.Context, token string) ([]model.QuickList, error) {
	env, err := c.get(ctx, "/search/quick-lists", token)
	if err != nil {
		return nil, err
	}
	var lists []model.QuickList
	if err := json.Unmarshal(env.Data, &lists); err != nil {
		return nil, &Error{Message: "Network error"}
	}
	return lists, nil
}

// SavedSearches fetches one page of the caller's saved searches.
func (c *Client) SavedSearches(ctx context.Context, token string, page, limit int) (*model.SavedSearchList, error) {
	path := "/saved-searches"
	if page > 0 || limit > 0 {
		path = fmt.Sprintf("%s?page=%d&limit=%d", path, page, limit)
	}
	env, err := c.get(ctx, path, token)
	if err != nil {
		return nil, err
	}
	var list model.SavedSearchList
	if err := json.Unmarshal(env.Data, &list); err != nil {
		return nil, &Error{Message: "Network error"}
	}
	return &list, nil
}

// SaveSearch stores a query for later re-runs.
func (c *Client) SaveSearch(ctx context.Context, token, query string) (*model.SavedSearch, error) {
	env, err := c.post(ctx, "/saved-searches", token, map[string]any{"search_query": query})
	if err != nil {
		return nil, err
	}
	var saved model.SavedSearch
	if err := json.Unmarshal(env.Data, &saved); err != nil {
		return nil, &Error{Message: "Network error"}
	}
	return &saved, nil
}

// DeleteSavedSearch removes a saved search by id.
func (c *Client) DeleteSavedSearch(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/saved-searches/"+id, token, nil, c.timeout)
	return err
}
