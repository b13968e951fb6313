package session

import (
	"time"

	"github.com/google/uuid"
)

// State is the authentication state of one browser session.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateFailed          State = "failed"
)

type (
	// Claims are the identity attributes extracted from the issued token.
	// They are display data for this client; the backend re-validates the
	// token on every API call.
	Claims struct {
		Subject string
		Name    string
		Email   string
	}

	// Credential is the bearer token plus identity claims issued by the
	// identity provider. It is owned by the session manager; everything
	// else receives a read-only copy.
	Credential struct {
		Token  string
		Claims Claims
	}

	// Session is one browser session. The manager is the only writer;
	// handlers receive value copies.
	Session struct {
		ID             uuid.UUID
		State          State
		Credential     Credential
		FailureMessage string
		CreatedAt      time.Time

		// authState is the pending OAuth state parameter while the
		// session is authenticating; authURL is the provider URL that
		// flow redirects to.
		authState string
		authURL   string
	}
)

// Authenticated reports whether the session currently holds a credential.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated
}
