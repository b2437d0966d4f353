package model

import "time"

// User is the authenticated identity the backend returns on OTP verification.
// The access token is the bearer credential for every authenticated call.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Profile mirrors the backend's account record. It is a read-mostly cache:
// re-fetched after every credit-consuming action rather than mutated locally.
type Profile struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	CurrentCredits      int    `json:"current_credits"`
	PlanID              string `json:"plan_id"`
	PlanName            string `json:"plan_name"`
	Status              string `json:"status"`
	AutoRenews          bool   `json:"auto_renews"`
	PeriodEnd           string `json:"period_end"`
	CancelPeriodAt      string `json:"cancel_period_at"`
	ChargebeeCustomerID string `json:"chargebee_customer_id"`
	CreatedAt           string `json:"created_at"`
}

// SavedSearch is a named query a user can re-run or delete.
type SavedSearch struct {
	ID          string `json:"id"`
	SearchQuery string `json:"search_query"`
	CreatedAt   string `json:"created_at"`
}

// SavedSearchList is one page of saved searches.
type SavedSearchList struct {
	Data  []SavedSearch `json:"data"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Pagination describes the backend's paging metadata for a result set.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// SearchResults is one search response: property records, credit accounting,
// and paging. Replaced wholesale on each new search, never merged.
type SearchResults struct {
	Data             []map[string]any `json:"data"`
	CreditsUsed      int              `json:"credits_used"`
	RemainingCredits int              `json:"remaining_credits"`
	Pagination       *Pagination      `json:"pagination,omitempty"`
}

// Export is the backend's CSV export payload.
type Export struct {
	CSV             string `json:"csv"`
	Filename        string `json:"filename"`
	TotalProperties int    `json:"total_properties"`
}

// QuickList is a predefined search shortcut.
type QuickList struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Filters     map[string]any `json:"filters,omitempty"`
}

// WaitlistEntry is a locally mirrored waitlist signup.
type WaitlistEntry struct {
	ID        int64
	Email     string
	Source    string
	CreatedAt time.Time
}
