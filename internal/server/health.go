package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/fittrack/webclient/internal/shared/config"
	"github.com/fittrack/webclient/internal/shared/fitapi"
)

type (
	// HealthSrvc handles health check operations
	HealthSrvc struct {
		client  *fitapi.Client
		version string
	}

	HealthResponse struct {
		Status    string    `json:"status"`
		Version   string    `json:"version"`
		Timestamp time.Time `json:"timestamp"`
		Upstream  bool      `json:"upstream"`
	}
)

func NewHealthSrvc(client *fitapi.Client, cfg *config.Config) *HealthSrvc {
	return &HealthSrvc{client: client, version: cfg.Version}
}

// Check reports whether the activity API is reachable. The client itself
// is always "healthy"; upstream reachability is reported separately so a
// backend outage does not take the web client out of rotation.
func (s *HealthSrvc) Check(ctx context.Context) HealthResponse {
	resp := HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: time.Now().UTC(),
		Upstream:  true,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx); err != nil {
		resp.Upstream = false
	}

	return resp
}

func NewHealthHandler(srvc *HealthSrvc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r)

		resp := srvc.Check(r.Context())
		if !resp.Upstream {
			logger.Warn().Msg("Activity API unreachable")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error().Err(err).Msg("Failed to encode health response")
		}
	}
}
