package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNoSession            = errors.New("no such session")
	ErrAlreadyAuthenticated = errors.New("session is already authenticated")
	ErrNotAuthenticating    = errors.New("session has no login attempt in flight")
	ErrStateMismatch        = errors.New("state parameter does not match the pending login")
)

// Manager owns the authentication state machine of every browser
// session. It is the only writer of credentials; handlers and the
// activity store read copies. All state transitions happen under one
// mutex, never across the provider call.
type Manager struct {
	provider IdentityProvider
	logger   zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	onLogout []func(uuid.UUID)
}

func NewManager(provider IdentityProvider, logger zerolog.Logger) *Manager {
	return &Manager{
		provider: provider,
		logger:   logger.With().Str("component", "session").Logger(),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// OnLogout registers a hook fired with the session ID whenever a session
// logs out, so session-scoped derived state elsewhere is discarded with
// the credential. Hooks must be registered during wiring, before the
// server starts.
func (m *Manager) OnLogout(fn func(uuid.UUID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = append(m.onLogout, fn)
}

// Create starts a new unauthenticated session.
func (m *Manager) Create() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := &Session{
		ID:        uuid.New(),
		State:     StateUnauthenticated,
		CreatedAt: time.Now().UTC(),
	}
	m.sessions[sess.ID] = sess
	return *sess
}

// Get returns a copy of the session, if it exists.
func (m *Manager) Get(id uuid.UUID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Credential returns the session's credential when it is authenticated.
func (m *Manager) Credential(id uuid.UUID) (Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok || sess.State != StateAuthenticated {
		return Credential{}, false
	}
	return sess.Credential, true
}

// BeginLogin transitions the session to authenticating and returns the
// provider URL to redirect to. While a login is already in flight the
// call is an idempotent no-op returning the same URL, so repeated login
// clicks never start a second authorization flow. An authenticated
// session gets ErrAlreadyAuthenticated instead.
func (m *Manager) BeginLogin(id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return "", ErrNoSession
	}

	switch sess.State {
	case StateAuthenticated:
		return "", ErrAlreadyAuthenticated
	case StateAuthenticating:
		// Guard flag, not UI debouncing: one flow per session.
		return sess.authURL, nil
	}

	state := uuid.NewString()
	sess.State = StateAuthenticating
	sess.FailureMessage = ""
	sess.authState = state
	sess.authURL = m.provider.AuthURL(state)

	m.logger.Debug().Str("session_id", sess.ID.String()).Msg("Login flow started")
	return sess.authURL, nil
}

// CompleteLogin finishes the flow with the provider callback values.
// On success the session holds the credential; on failure it transitions
// to failed with a user-visible message and login may be re-attempted.
func (m *Manager) CompleteLogin(ctx context.Context, id uuid.UUID, state, code string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNoSession
	}
	if sess.State != StateAuthenticating {
		m.mu.Unlock()
		return ErrNotAuthenticating
	}
	if state == "" || state != sess.authState {
		sess.State = StateFailed
		sess.FailureMessage = "Login could not be verified. Please try again."
		sess.authState = ""
		sess.authURL = ""
		m.mu.Unlock()
		return ErrStateMismatch
	}
	m.mu.Unlock()

	// The exchange is a network call; it runs outside the lock. A logout
	// racing it wins: the session is re-checked before the credential is
	// stored, so a cancelled attempt's token is discarded.
	cred, exchangeErr := m.provider.Exchange(ctx, code)

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok = m.sessions[id]
	if !ok || sess.State != StateAuthenticating {
		return ErrNotAuthenticating
	}
	sess.authState = ""
	sess.authURL = ""

	if exchangeErr != nil {
		sess.State = StateFailed
		if errors.Is(exchangeErr, ErrProviderUnreachable) {
			sess.FailureMessage = "The login service is not reachable right now. Please try again later."
		} else {
			sess.FailureMessage = "Login was rejected by the identity provider."
		}
		m.logger.Warn().Err(exchangeErr).Str("session_id", sess.ID.String()).Msg("Login failed")
		return exchangeErr
	}

	sess.State = StateAuthenticated
	sess.Credential = cred
	sess.FailureMessage = ""

	m.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("subject", cred.Claims.Subject).
		Msg("Login successful")
	return nil
}

// Logout clears the credential and returns the session to
// unauthenticated. Callable from any state; during an in-flight
// authentication it cancels the attempt. Registered hooks run so all
// session-scoped derived state is discarded with the credential.
func (m *Manager) Logout(id uuid.UUID) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}

	cancelled := sess.State == StateAuthenticating
	sess.State = StateUnauthenticated
	sess.Credential = Credential{}
	sess.FailureMessage = ""
	sess.authState = ""
	sess.authURL = ""
	hooks := make([]func(uuid.UUID), len(m.onLogout))
	copy(hooks, m.onLogout)
	m.mu.Unlock()

	if cancelled {
		m.logger.Debug().Str("session_id", id.String()).Msg("Pending login cancelled by logout")
	}
	for _, fn := range hooks {
		fn(id)
	}
	m.logger.Info().Str("session_id", id.String()).Msg("Logged out")
}
