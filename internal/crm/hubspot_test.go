package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitContact(t *testing.T) {
	var gotBody contactRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/contacts" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "101"})
	}))
	defer srv.Close()

	c := NewClient("pat-123", WithBaseURL(srv.URL))
	if err := c.SubmitContact(context.Background(), "new@example.com"); err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if gotAuth != "Bearer pat-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Properties["email"] != "new@example.com" || gotBody.Properties["source"] != Source {
		t.Errorf("properties = %v", gotBody.Properties)
	}
}

func TestSubmitContactConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "error",
			"message":  "Contact already exists",
			"category": "CONFLICT",
		})
	}))
	defer srv.Close()

	c := NewClient("pat-123", WithBaseURL(srv.URL))
	err := c.SubmitContact(context.Background(), "dup@example.com")
	if !errors.Is(err, ErrAlreadyOnWaitlist) {
		t.Fatalf("err = %v, want ErrAlreadyOnWaitlist", err)
	}
	if err.Error() != "You're already on the waitlist." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSubmitContactOtherError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
	}{
		{"validation error", http.StatusBadRequest, map[string]any{"message": "Invalid email", "category": "VALIDATION_ERROR"}},
		{"conflict without category", http.StatusConflict, map[string]any{"message": "conflict"}},
		{"opaque failure", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != nil {
					json.NewEncoder(w).Encode(tt.body)
				}
			}))
			defer srv.Close()

			c := NewClient("pat-123", WithBaseURL(srv.URL))
			err := c.SubmitContact(context.Background(), "x@example.com")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrAlreadyOnWaitlist) {
				t.Errorf("err = %v, must not map to duplicate", err)
			}
		})
	}
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient("")
	if c.Configured() {
		t.Error("empty token reported as configured")
	}
	if err := c.SubmitContact(context.Background(), "x@example.com"); err == nil {
		t.Error("expected error from unconfigured client")
	}
}
