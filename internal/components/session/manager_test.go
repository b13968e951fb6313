package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a scriptable in-memory identity provider.
type fakeProvider struct {
	authURLCalls atomic.Int32
	exchange     func(ctx context.Context, code string) (Credential, error)
}

func (p *fakeProvider) AuthURL(state string) string {
	p.authURLCalls.Add(1)
	return "https://idp.example/auth?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (Credential, error) {
	if p.exchange != nil {
		return p.exchange(ctx, code)
	}
	return Credential{Token: "access-" + code, Claims: Claims{Subject: "user-1", Name: "Test User"}}, nil
}

func newTestManager(provider IdentityProvider) *Manager {
	return NewManager(provider, zerolog.Nop())
}

func stateFromURL(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(&fakeProvider{})

	sess := m.Create()
	require.Equal(t, StateUnauthenticated, sess.State)
	require.NotEqual(t, uuid.Nil, sess.ID)

	got, ok := m.Get(sess.ID)
	require.True(t, ok)
	require.Equal(t, sess.ID, got.ID)

	_, ok = m.Get(uuid.New())
	require.False(t, ok)
}

func TestLoginFlow(t *testing.T) {
	provider := &fakeProvider{}
	m := newTestManager(provider)
	sess := m.Create()

	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)
	require.Contains(t, authURL, "https://idp.example/auth")

	got, _ := m.Get(sess.ID)
	require.Equal(t, StateAuthenticating, got.State)

	err = m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "code-1")
	require.NoError(t, err)

	got, _ = m.Get(sess.ID)
	require.Equal(t, StateAuthenticated, got.State)
	require.True(t, got.Authenticated())
	require.Equal(t, "access-code-1", got.Credential.Token)
	require.Equal(t, "Test User", got.Credential.Claims.Name)

	cred, ok := m.Credential(sess.ID)
	require.True(t, ok)
	require.Equal(t, "access-code-1", cred.Token)
}

func TestBeginLoginIsIdempotentWhileAuthenticating(t *testing.T) {
	provider := &fakeProvider{}
	m := newTestManager(provider)
	sess := m.Create()

	first, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)
	second, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)

	require.Equal(t, first, second, "repeated login clicks must reuse the pending flow")
	require.Equal(t, int32(1), provider.authURLCalls.Load())
}

func TestBeginLoginWhenAuthenticated(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	sess := m.Create()

	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)
	require.NoError(t, m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "code-1"))

	_, err = m.BeginLogin(sess.ID)
	require.ErrorIs(t, err, ErrAlreadyAuthenticated)
}

func TestBeginLoginUnknownSession(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	_, err := m.BeginLogin(uuid.New())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestCompleteLoginStateMismatch(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	sess := m.Create()

	_, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)

	err = m.CompleteLogin(context.Background(), sess.ID, "forged-state", "code-1")
	require.ErrorIs(t, err, ErrStateMismatch)

	got, _ := m.Get(sess.ID)
	require.Equal(t, StateFailed, got.State)
	require.NotEmpty(t, got.FailureMessage)
	require.Empty(t, got.Credential.Token)
}

func TestCompleteLoginWithoutPendingAttempt(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	sess := m.Create()

	err := m.CompleteLogin(context.Background(), sess.ID, "any", "code-1")
	require.ErrorIs(t, err, ErrNotAuthenticating)
}

func TestCompleteLoginProviderRejects(t *testing.T) {
	provider := &fakeProvider{
		exchange: func(ctx context.Context, code string) (Credential, error) {
			return Credential{}, errors.New("invalid_grant")
		},
	}
	m := newTestManager(provider)
	sess := m.Create()

	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)

	err = m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "bad-code")
	require.Error(t, err)

	got, _ := m.Get(sess.ID)
	require.Equal(t, StateFailed, got.State)
	require.Equal(t, "Login was rejected by the identity provider.", got.FailureMessage)
}

func TestCompleteLoginProviderUnreachable(t *testing.T) {
	provider := &fakeProvider{
		exchange: func(ctx context.Context, code string) (Credential, error) {
			return Credential{}, fmt.Errorf("%w: connection refused", ErrProviderUnreachable)
		},
	}
	m := newTestManager(provider)
	sess := m.Create()

	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)

	err = m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "code-1")
	require.ErrorIs(t, err, ErrProviderUnreachable)

	got, _ := m.Get(sess.ID)
	require.Equal(t, StateFailed, got.State)
	require.Contains(t, got.FailureMessage, "not reachable")
}

func TestFailedLoginCanBeRetried(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	sess := m.Create()

	_, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)
	require.ErrorIs(t, m.CompleteLogin(context.Background(), sess.ID, "forged", "code"), ErrStateMismatch)

	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)
	require.NoError(t, m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "code-2"))

	got, _ := m.Get(sess.ID)
	require.True(t, got.Authenticated())
	require.Empty(t, got.FailureMessage)
}

func TestLogoutClearsCredentialAndFiresHooks(t *testing.T) {
	m := newTestManager(&fakeProvider{})

	var dropped []uuid.UUID
	m.OnLogout(func(id uuid.UUID) { dropped = append(dropped, id) })

	sess := m.Create()
	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)
	require.NoError(t, m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "code-1"))

	m.Logout(sess.ID)

	got, _ := m.Get(sess.ID)
	require.Equal(t, StateUnauthenticated, got.State)
	require.Empty(t, got.Credential.Token)
	require.Equal(t, []uuid.UUID{sess.ID}, dropped)

	_, ok := m.Credential(sess.ID)
	require.False(t, ok)
}

func TestLogoutUnknownSessionIsNoop(t *testing.T) {
	m := newTestManager(&fakeProvider{})
	m.OnLogout(func(id uuid.UUID) { t.Fatal("hook must not fire for unknown sessions") })
	m.Logout(uuid.New())
}

func TestLogoutDuringExchangeDiscardsToken(t *testing.T) {
	exchangeStarted := make(chan struct{})
	releaseExchange := make(chan struct{})
	provider := &fakeProvider{
		exchange: func(ctx context.Context, code string) (Credential, error) {
			close(exchangeStarted)
			<-releaseExchange
			return Credential{Token: "late-token"}, nil
		},
	}
	m := newTestManager(provider)
	sess := m.Create()

	authURL, err := m.BeginLogin(sess.ID)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- m.CompleteLogin(context.Background(), sess.ID, stateFromURL(t, authURL), "code-1")
	}()

	<-exchangeStarted
	m.Logout(sess.ID)
	close(releaseExchange)

	require.ErrorIs(t, <-done, ErrNotAuthenticating)

	got, _ := m.Get(sess.ID)
	require.Equal(t, StateUnauthenticated, got.State)
	require.Empty(t, got.Credential.Token, "a cancelled attempt's token must be discarded")
}
