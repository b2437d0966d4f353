// Package crm forwards waitlist emails to the HubSpot contacts API.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrAlreadyOnWaitlist is returned when the CRM reports a duplicate contact.
var ErrAlreadyOnWaitlist = errors.New("You're already on the waitlist.")

// Source tags every forwarded contact with where it came from.
const Source = "wait_list_page"

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    "https://api.hubapi.com",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the private app token is set.
func (c *Client) Configured() bool {
	return c.token != ""
}

type contactRequest struct {
	Properties map[string]string `json:"properties"`
}

type errorResponse struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// SubmitContact creates a CRM contact for the email. A 409 CONFLICT from the
// CRM means the address is already a contact and maps to ErrAlreadyOnWaitlist.
func (c *Client) SubmitContact(ctx context.Context, email string) error {
	if !c.Configured() {
		return fmt.Errorf("crm client not configured: missing token")
	}

	payload := contactRequest{
		Properties: map[string]string{
			"email":  email,
			"source": Source,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal contact: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crm/v3/objects/contacts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit contact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if resp.StatusCode == http.StatusConflict && apiErr.Category == "CONFLICT" {
			return ErrAlreadyOnWaitlist
		}
		if apiErr.Message != "" {
			return fmt.Errorf("hubspot API error: %s", apiErr.Message)
		}
		return fmt.Errorf("hubspot API error: status %d", resp.StatusCode)
	}

	return nil
}
