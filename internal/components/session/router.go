package session

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/fittrack/webclient/internal/shared/cookie"
)

type (
	Router struct {
		manager *Manager
		secret  []byte
	}
)

func NewRouter(manager *Manager, secret []byte) chi.Router {
	router := &Router{manager: manager, secret: secret}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/login", r.Login)
	router.Get("/callback", r.Callback)
	router.Post("/logout", r.Logout)
	return router
}

// Login begins the authorization flow and redirects to the identity
// provider. Repeated requests while a flow is pending redirect to the
// same provider URL without starting a second flow.
func (r *Router) Login(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)

	sess, ok := r.currentSession(req)
	if !ok {
		sess = r.manager.Create()
	}

	authURL, err := r.manager.BeginLogin(sess.ID)
	if errors.Is(err, ErrAlreadyAuthenticated) {
		http.Redirect(w, req, "/activities", http.StatusSeeOther)
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Could not begin login")
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return
	}

	if err := cookie.SetCookie(w, sess.ID, r.secret); err != nil {
		logger.Error().Err(err).Msg("Could not set session cookie")
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, req, authURL, http.StatusSeeOther)
}

// Callback completes the flow with the provider's state and code. The
// welcome page renders any failure message the manager recorded, so all
// error branches land there.
func (r *Router) Callback(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	sess, ok := r.currentSession(req)
	if !ok {
		logger.Warn().Msg("Callback without a session cookie")
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return
	}

	state := req.URL.Query().Get("state")
	code := req.URL.Query().Get("code")

	if err := r.manager.CompleteLogin(ctx, sess.ID, state, code); err != nil {
		logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("Login callback failed")
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, req, "/activities", http.StatusSeeOther)
}

// Logout clears the session and its cookie from any state.
func (r *Router) Logout(w http.ResponseWriter, req *http.Request) {
	if sess, ok := r.currentSession(req); ok {
		r.manager.Logout(sess.ID)
	}
	cookie.RemoveCookie(w)
	http.Redirect(w, req, "/", http.StatusSeeOther)
}

func (r *Router) currentSession(req *http.Request) (Session, bool) {
	sessionID, err := cookie.GetCookie(req, r.secret)
	if err != nil {
		return Session{}, false
	}
	return r.manager.Get(*sessionID)
}
