package activity

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/fittrack/webclient/internal/components/session"
	"github.com/fittrack/webclient/internal/shared/cookie"
	"github.com/fittrack/webclient/internal/shared/fitapi"
	"github.com/fittrack/webclient/internal/shared/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

type (
	Router struct {
		store   *Store
		manager *session.Manager
		secret  []byte
	}

	formData struct {
		Type           string
		Duration       string
		CaloriesBurned string
		Error          string
	}

	activitiesPageData struct {
		UserName   string
		Activities []fitapi.Activity
		Loaded     bool
		Refreshing bool
		ListError  string
		Types      []fitapi.ActivityType
		Form       formData
	}

	detailPageData struct {
		UserName string
		Activity *fitapi.Activity
		Error    string
	}
)

func NewRouter(store *Store, manager *session.Manager, secret []byte) chi.Router {
	router := &Router{store: store, manager: manager, secret: secret}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.ActivitiesPage)
	router.Post("/", r.CreateActivity)
	router.Get("/{id}", r.DetailPage)

	return router
}

// ActivitiesPage refreshes the list and renders it together with the
// add-activity form. A failed refresh still renders any previously
// cached list, with the error banner on top.
func (r *Router) ActivitiesPage(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	sess := middleware.GetSession(ctx)

	state := r.store.RefreshList(ctx, sess.ID, sess.Credential.Token)
	if fitapi.IsKind(state.Err, fitapi.KindUnauthorized) {
		r.forceRelogin(w, req, sess)
		return
	}

	r.renderActivities(w, req, sess, state, formData{Type: string(fitapi.TypeRunning)}, http.StatusOK)
}

// CreateActivity handles the form submit. Validation failures re-render
// the form inline without losing the entered values; success redirects
// back to the list, which the store already refreshed.
func (r *Router) CreateActivity(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)
	sess := middleware.GetSession(ctx)

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	form := formData{
		Type:           req.FormValue("type"),
		Duration:       req.FormValue("duration"),
		CaloriesBurned: req.FormValue("caloriesBurned"),
	}

	draft := fitapi.Draft{Type: fitapi.ActivityType(form.Type)}
	var parseErr string
	if draft.Duration, parseErr = parseNumberField(form.Duration, "duration"); parseErr == "" {
		draft.CaloriesBurned, parseErr = parseNumberField(form.CaloriesBurned, "calories burned")
	}
	if parseErr != "" {
		form.Error = parseErr
		r.renderActivities(w, req, sess, r.store.ListState(sess.ID), form, http.StatusUnprocessableEntity)
		return
	}

	_, err := r.store.Create(ctx, sess.ID, sess.Credential.Token, draft)
	if err != nil {
		switch fitapi.KindOf(err) {
		case fitapi.KindUnauthorized:
			r.forceRelogin(w, req, sess)
		case fitapi.KindValidation:
			form.Error = errMessage(err)
			r.renderActivities(w, req, sess, r.store.ListState(sess.ID), form, http.StatusUnprocessableEntity)
		default:
			logger.Error().Err(err).Msg("Error creating activity")
			form.Error = "The activity could not be saved: " + errMessage(err)
			r.renderActivities(w, req, sess, r.store.ListState(sess.ID), form, http.StatusBadGateway)
		}
		return
	}

	http.Redirect(w, req, "/activities", http.StatusSeeOther)
}

// DetailPage loads one activity, including its recommendation when the
// backend has computed one, every time the id is requested.
func (r *Router) DetailPage(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)
	sess := middleware.GetSession(ctx)

	id := chi.URLParam(req, "id")
	state := r.store.LoadDetail(ctx, sess.ID, sess.Credential.Token, id)

	if state.Err != nil {
		switch fitapi.KindOf(state.Err) {
		case fitapi.KindUnauthorized:
			r.forceRelogin(w, req, sess)
		case fitapi.KindNotFound:
			r.renderTemplate(w, req, "not_found.html", detailPageData{UserName: r.userName(sess)}, http.StatusNotFound)
		default:
			logger.Error().Err(state.Err).Str("activity_id", id).Msg("Error loading activity detail")
			data := detailPageData{
				UserName: r.userName(sess),
				Activity: state.Activity, // stale copy, when one is cached
				Error:    "The activity could not be loaded: " + errMessage(state.Err),
			}
			r.renderTemplate(w, req, "activity_detail.html", data, http.StatusBadGateway)
		}
		return
	}

	data := detailPageData{
		UserName: r.userName(sess),
		Activity: state.Activity,
	}
	r.renderTemplate(w, req, "activity_detail.html", data, http.StatusOK)
}

func (r *Router) renderActivities(w http.ResponseWriter, req *http.Request, sess session.Session, state ListState, form formData, status int) {
	var listError string
	if state.Err != nil {
		listError = errMessage(state.Err)
	}
	if form.Type == "" {
		form.Type = string(fitapi.TypeRunning)
	}

	data := activitiesPageData{
		UserName:   r.userName(sess),
		Activities: state.Activities,
		Loaded:     state.Loaded,
		Refreshing: state.Refreshing,
		ListError:  listError,
		Types:      fitapi.Types,
		Form:       form,
	}
	r.renderTemplate(w, req, "activities.html", data, status)
}

func (r *Router) renderTemplate(w http.ResponseWriter, req *http.Request, name string, data any, status int) {
	logger := hlog.FromRequest(req)

	tmpl, err := template.ParseFS(templatesFS, "templates/"+name)
	if err != nil {
		logger.Error().Err(err).Str("template", name).Msg("Failed to parse template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		logger.Error().Err(err).Str("template", name).Msg("Failed to execute template")
	}
}

// forceRelogin resolves a rejected credential: the session goes back to
// unauthenticated (discarding the store's cache via the logout hook) and
// the user lands on the welcome page to log in again.
func (r *Router) forceRelogin(w http.ResponseWriter, req *http.Request, sess session.Session) {
	hlog.FromRequest(req).Warn().Str("session_id", sess.ID.String()).Msg("Credential rejected, forcing re-login")
	r.manager.Logout(sess.ID)
	cookie.RemoveCookie(w)
	http.Redirect(w, req, "/", http.StatusSeeOther)
}

func (r *Router) userName(sess session.Session) string {
	if sess.Credential.Claims.Name != "" {
		return sess.Credential.Claims.Name
	}
	return sess.Credential.Claims.Subject
}

// parseNumberField converts a form number field into the draft's
// optional int. Empty stays nil (unset, caught by draft validation);
// anything non-numeric is reported against the field name.
func parseNumberField(value, field string) (*int, string) {
	if value == "" {
		return nil, ""
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, "Please enter a number for " + field + "."
	}
	return &n, ""
}

func errMessage(err error) string {
	var apiErr *fitapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
