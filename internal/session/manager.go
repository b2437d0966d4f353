// Package session owns the per-visitor auth lifecycle: anonymous → awaiting
// code → authenticated → anonymous. State lives in memory for fast reads and
// in the snapshot store for reload survival.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/garrethdev/coastal-elements/internal/api"
	"github.com/garrethdev/coastal-elements/internal/model"
	"github.com/garrethdev/coastal-elements/internal/store"
)

// Storage keys. All three are written together on login and cleared together
// on logout or corruption; a visitor with a partial set is treated as anonymous.
const (
	KeyToken   = "coastal_auth_token"
	KeyUser    = "coastal_user"
	KeyProfile = "coastal_profile"
)

var (
	ErrNotAuthenticated = errors.New("Not authenticated")
	ErrPlanRequired     = errors.New("Plan ID is required")
)

// State is what the rest of the UI sees for one visitor.
type State struct {
	User    *model.User
	Profile *model.Profile
}

// Authenticated reports whether the visitor holds a session.
func (s *State) Authenticated() bool {
	return s != nil && s.User != nil && s.User.AccessToken != ""
}

// Manager orchestrates OTP auth against the backend and keeps the snapshot
// store and the in-memory cache in sync.
type Manager struct {
	store  *store.SnapshotStore
	client *api.Client
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*State
}

func NewManager(s *store.SnapshotStore, client *api.Client, logger *slog.Logger) *Manager {
	return &Manager{
		store:  s,
		client: client,
		logger: logger,
		cache:  make(map[string]*State),
	}
}

// Current returns the visitor's session state, loading it from storage on
// first access. Corrupt or partial snapshots are wiped and reported as
// anonymous; recovery is silent by contract, not an error.
func (m *Manager) Current(visitorID string) *State {
	m.mu.Lock()
	if st, ok := m.cache[visitorID]; ok {
		m.mu.Unlock()
		return st
	}
	m.mu.Unlock()

	st := m.load(visitorID)

	m.mu.Lock()
	m.cache[visitorID] = st
	m.mu.Unlock()
	return st
}

func (m *Manager) load(visitorID string) *State {
	token, okToken, err := m.store.Get(visitorID, KeyToken)
	if err != nil {
		m.logger.Error("read token snapshot", "error", err)
		return &State{}
	}
	userJSON, okUser, err := m.store.Get(visitorID, KeyUser)
	if err != nil {
		m.logger.Error("read user snapshot", "error", err)
		return &State{}
	}
	profileJSON, okProfile, err := m.store.Get(visitorID, KeyProfile)
	if err != nil {
		m.logger.Error("read profile snapshot", "error", err)
		return &State{}
	}

	if !okToken || !okUser || !okProfile {
		if okToken || okUser || okProfile {
			m.wipe(visitorID)
		}
		return &State{}
	}

	var user model.User
	var profile model.Profile
	if json.Unmarshal([]byte(userJSON), &user) != nil ||
		json.Unmarshal([]byte(profileJSON), &profile) != nil ||
		user.AccessToken == "" || user.AccessToken != token {
		m.logger.Warn("corrupt auth snapshot, resetting to anonymous", "visitor", visitorID)
		m.wipe(visitorID)
		return &State{}
	}

	return &State{User: &user, Profile: &profile}
}

func (m *Manager) wipe(visitorID string) {
	if err := m.store.DeleteAll(visitorID); err != nil {
		m.logger.Error("clear auth snapshots", "error", err)
	}
}

// RequestOTP asks the backend to email a code. No local validation beyond
// what callers already did.
func (m *Manager) RequestOTP(ctx context.Context, email string) error {
	return m.client.RequestOTP(ctx, email)
}

// Login exchanges an OTP for a session. On success the token, user snapshot,
// and profile snapshot are persisted in one transaction; on any failure the
// stored state is left exactly as it was.
func (m *Manager) Login(ctx context.Context, visitorID, email, code string) error {
	user, profile, err := m.client.VerifyOTP(ctx, email, code)
	if err != nil {
		return err
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return err
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	if err := m.store.SetAll(visitorID, map[string]string{
		KeyToken:   user.AccessToken,
		KeyUser:    string(userJSON),
		KeyProfile: string(profileJSON),
	}); err != nil {
		return err
	}

	m.mu.Lock()
	m.cache[visitorID] = &State{User: user, Profile: profile}
	m.mu.Unlock()
	return nil
}

// Logout notifies the backend on a best-effort basis and unconditionally
// clears local state.
func (m *Manager) Logout(ctx context.Context, visitorID string) {
	st := m.Current(visitorID)
	if st.Authenticated() {
		if err := m.client.Logout(ctx, st.User.AccessToken); err != nil {
			m.logger.Warn("backend logout", "error", err)
		}
	}

	m.wipe(visitorID)
	m.mu.Lock()
	delete(m.cache, visitorID)
	m.mu.Unlock()
}

// RefreshProfile re-fetches the profile with the stored token. A visitor
// without a session is a no-op. The error is returned so callers decide
// whether to surface it; most treat a stale profile as acceptable.
func (m *Manager) RefreshProfile(ctx context.Context, visitorID string) error {
	st := m.Current(visitorID)
	if !st.Authenticated() {
		return nil
	}

	profile, err := m.client.Profile(ctx, st.User.AccessToken)
	if err != nil {
		return err
	}
	return m.applyProfile(visitorID, st, profile)
}

func (m *Manager) applyProfile(visitorID string, st *State, profile *model.Profile) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := m.store.Set(visitorID, KeyProfile, string(profileJSON)); err != nil {
		return err
	}

	m.mu.Lock()
	m.cache[visitorID] = &State{User: st.User, Profile: profile}
	m.mu.Unlock()
	return nil
}

// Subscribe creates or changes the visitor's subscription. The backend may
// return the updated profile directly; otherwise a full refresh runs.
func (m *Manager) Subscribe(ctx context.Context, visitorID, planID string) error {
	if planID == "" {
		return ErrPlanRequired
	}
	st := m.Current(visitorID)
	if !st.Authenticated() {
		return ErrNotAuthenticated
	}

	profile, err := m.client.CreateSubscription(ctx, st.User.AccessToken, planID)
	if err != nil {
		return err
	}
	if profile != nil {
		return m.applyProfile(visitorID, st, profile)
	}
	return m.RefreshProfile(ctx, visitorID)
}

// CancelSubscription schedules cancellation at period end.
func (m *Manager) CancelSubscription(ctx context.Context, visitorID string) error {
	st := m.Current(visitorID)
	if !st.Authenticated() {
		return ErrNotAuthenticated
	}

	profile, err := m.client.CancelSubscription(ctx, st.User.AccessToken)
	if err != nil {
		return err
	}
	if profile != nil {
		return m.applyProfile(visitorID, st, profile)
	}
	return m.RefreshProfile(ctx, visitorID)
}
