package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/fittrack/webclient/internal/components/session"
	"github.com/fittrack/webclient/internal/shared/cookie"
)

//go:embed templates/*.html
var templatesFS embed.FS

type welcomePageData struct {
	FailureMessage string
}

// NewRootHandler serves the application root: authenticated sessions are
// redirected to the activity list, everyone else gets the welcome page
// with the login prompt. A failed login attempt's message is shown here.
func NewRootHandler(manager *session.Manager, secretKey []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r)

		data := welcomePageData{}
		if sessionID, err := cookie.GetCookie(r, secretKey); err == nil {
			if sess, ok := manager.Get(*sessionID); ok {
				if sess.Authenticated() {
					http.Redirect(w, r, "/activities", http.StatusSeeOther)
					return
				}
				data.FailureMessage = sess.FailureMessage
			}
		}

		tmpl, err := template.ParseFS(templatesFS, "templates/welcome.html")
		if err != nil {
			logger.Error().Err(err).Msg("Failed to parse welcome template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tmpl.Execute(w, data); err != nil {
			logger.Error().Err(err).Msg("Failed to execute welcome template")
		}
	}
}
