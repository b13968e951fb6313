package middleware

import (
	"context"
	"net/http"

	"github.com/fittrack/webclient/internal/components/session"
	"github.com/fittrack/webclient/internal/shared/cookie"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const sessionKey contextKey = "session"

// GetSession extracts the authenticated session from the request context
func GetSession(ctx context.Context) session.Session {
	sess, _ := ctx.Value(sessionKey).(session.Session)
	return sess
}

// WithSession stores the session on the context. Exposed for handler tests.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// RequireSession creates middleware that resolves the session cookie and
// protects routes from unauthenticated access. Requests without a valid
// authenticated session are redirected to the welcome page; everything
// downstream can rely on GetSession returning an authenticated session.
func RequireSession(manager *session.Manager, secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := cookie.GetCookie(r, secretKey)
			if err != nil {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			sess, ok := manager.Get(*sessionID)
			if !ok || !sess.Authenticated() {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			ctx := WithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
