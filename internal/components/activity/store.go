package activity

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fittrack/webclient/internal/shared/fitapi"
)

type (
	// Store is the in-memory cache of fetched and created activities,
	// scoped per session. It follows the stale-but-available policy: a
	// failed refresh keeps the previously cached value and surfaces the
	// error alongside it. Contents are discarded on logout via the
	// session manager's hook.
	Store struct {
		client *fitapi.Client
		logger zerolog.Logger

		mu       sync.Mutex
		sessions map[uuid.UUID]*sessionCache
	}

	sessionCache struct {
		list           []fitapi.Activity
		listErr        error
		listLoaded     bool
		listRefreshing bool

		detail    map[string]*fitapi.Activity
		detailErr map[string]error
	}

	// ListState is the view snapshot of the cached list: the last
	// successful value, the last error and whether a refresh is in
	// flight. Err and Activities can both be set (stale-but-available).
	ListState struct {
		Activities []fitapi.Activity
		Err        error
		Loaded     bool
		Refreshing bool
	}

	// DetailState is the view snapshot of one cached detail entry.
	DetailState struct {
		Activity *fitapi.Activity
		Err      error
	}
)

func NewStore(client *fitapi.Client, logger zerolog.Logger) *Store {
	return &Store{
		client:   client,
		logger:   logger.With().Str("component", "activity-store").Logger(),
		sessions: make(map[uuid.UUID]*sessionCache),
	}
}

func (s *Store) cache(sessionID uuid.UUID) *sessionCache {
	c, ok := s.sessions[sessionID]
	if !ok {
		c = &sessionCache{
			detail:    make(map[string]*fitapi.Activity),
			detailErr: make(map[string]error),
		}
		s.sessions[sessionID] = c
	}
	return c
}

// RefreshList reloads the activity list from the backend and replaces
// the held list on success. On failure the previous list is retained and
// the error is surfaced on the returned state. Overlapping refreshes are
// not guarded against ordering: the last response to arrive wins.
func (s *Store) RefreshList(ctx context.Context, sessionID uuid.UUID, token string) ListState {
	s.mu.Lock()
	s.cache(sessionID).listRefreshing = true
	s.mu.Unlock()

	activities, err := s.client.ListActivities(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cache(sessionID)
	c.listRefreshing = false
	if err != nil {
		c.listErr = err
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("List refresh failed")
	} else {
		c.list = activities
		c.listErr = nil
		c.listLoaded = true
	}
	return c.listState()
}

// ListState returns the current cached list without contacting the API.
func (s *Store) ListState(sessionID uuid.UUID) ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache(sessionID).listState()
}

func (c *sessionCache) listState() ListState {
	return ListState{
		Activities: c.list,
		Err:        c.listErr,
		Loaded:     c.listLoaded,
		Refreshing: c.listRefreshing,
	}
}

// LoadDetail fetches one activity and replaces the held detail entry for
// that id, with the same stale-but-available discipline as the list.
func (s *Store) LoadDetail(ctx context.Context, sessionID uuid.UUID, token, id string) DetailState {
	detail, err := s.client.GetActivity(ctx, token, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cache(sessionID)
	if err != nil {
		c.detailErr[id] = err
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Str("activity_id", id).Msg("Detail load failed")
	} else {
		c.detail[id] = detail
		delete(c.detailErr, id)
	}
	return DetailState{Activity: c.detail[id], Err: c.detailErr[id]}
}

// Create validates the draft locally, submits it, and on success runs
// exactly one list refresh so the list reflects the new entry. The
// refresh starts only after the create response arrived; the backend
// stays the source of truth, there is no local insertion.
func (s *Store) Create(ctx context.Context, sessionID uuid.UUID, token string, draft fitapi.Draft) (*fitapi.Activity, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	created, err := s.client.CreateActivity(ctx, token, draft)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Str("activity_id", created.ID).
		Str("type", string(created.Type)).
		Msg("Activity created")

	s.RefreshList(ctx, sessionID, token)
	return created, nil
}

// DropSession discards every cached value of the session. Wired to the
// session manager's logout hook.
func (s *Store) DropSession(sessionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
