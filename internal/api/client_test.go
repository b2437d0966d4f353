package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVerifyOTPSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/otp/verify" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "user@x.com" || body["token"] != "123456" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user": map[string]any{
					"id":           "u1",
					"email":        "user@x.com",
					"access_token": "tok-abc",
					"token_type":   "bearer",
				},
				"profile": map[string]any{
					"id":              "p1",
					"email":           "user@x.com",
					"current_credits": 25,
					"plan_name":       "Starter",
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	user, profile, err := c.VerifyOTP(context.Background(), "user@x.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if user.AccessToken != "tok-abc" {
		t.Errorf("access token = %q", user.AccessToken)
	}
	if profile.CurrentCredits != 25 {
		t.Errorf("credits = %d, want 25", profile.CurrentCredits)
	}
}

func TestVerifyOTPBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Invalid OTP code",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.VerifyOTP(context.Background(), "user@x.com", "000000")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Message != "Invalid OTP code" {
		t.Errorf("message = %q, want backend message passed through", apiErr.Message)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.Status)
	}
}

func TestSuccessFalseWithOKStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "Insufficient credits",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Search(context.Background(), "tok", "miami", nil, 1, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Insufficient credits" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestTimeoutMapsToRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	err := c.RequestOTP(context.Background(), "user@x.com")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if !apiErr.Timeout || apiErr.Message != "Request timeout" {
		t.Errorf("got %+v, want timeout error", apiErr)
	}
}

func TestBearerTokenSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": "p1", "email": "a@b.c"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Profile(context.Background(), "tok-abc"); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestSearchDecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["query"] != "miami" {
			t.Errorf("query = %v", body["query"])
		}
		if _, ok := body["filters"].(map[string]any); !ok {
			t.Errorf("filters = %v, want object", body["filters"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"data":              []map[string]any{{"address": "1 Ocean Dr"}},
				"credits_used":      1,
				"remaining_credits": 24,
				"pagination":        map[string]any{"total": 1, "page": 1, "limit": 10, "pages": 1},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	results, err := c.Search(context.Background(), "tok", "miami", map[string]any{"beds": map[string]any{"min": 2}}, 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results.Data) != 1 || results.Data[0]["address"] != "1 Ocean Dr" {
		t.Errorf("data = %v", results.Data)
	}
	if results.CreditsUsed != 1 || results.RemainingCredits != 24 {
		t.Errorf("credits = %d/%d", results.CreditsUsed, results.RemainingCredits)
	}
	if results.Pagination == nil || results.Pagination.Pages != 1 {
		t.Errorf("pagination = %+v", results.Pagination)
	}
}

func TestCreateSubscriptionOptionalProfile(t *testing.T) {
	tests := []struct {
		name        string
		data        any
		wantProfile bool
	}{
		{"profile returned", map[string]any{"id": "p1", "email": "a@b.c", "plan_name": "Pro"}, true},
		{"no data", nil, false},
		{"empty object", map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"success": true, "data": tt.data})
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			profile, err := c.CreateSubscription(context.Background(), "tok", "pro-monthly")
			if err != nil {
				t.Fatalf("CreateSubscription: %v", err)
			}
			if (profile != nil) != tt.wantProfile {
				t.Errorf("profile = %+v, want present=%v", profile, tt.wantProfile)
			}
		})
	}
}

func TestDeleteSavedSearchUsesDeleteVerb(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.DeleteSavedSearch(context.Background(), "tok", "s42"); err != nil {
		t.Fatalf("DeleteSavedSearch: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q", gotMethod)
	}
	if gotPath != "/saved-searches/s42" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestNetworkErrorMapsUniformly(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	err := c.RequestOTP(context.Background(), "user@x.com")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Message != "Network error" {
		t.Errorf("message = %q, want Network error", apiErr.Message)
	}
}
