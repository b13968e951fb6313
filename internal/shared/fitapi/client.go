package fitapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fittrack/webclient/internal/shared/config"
)

// Client wraps outbound calls to the activity service. It holds no state
// besides the base URL; the bearer token is passed in per call because
// the session manager owns it. No timeout is set on the underlying
// client: cancellation comes from the initiating request's context.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ActivityAPIURL, "/"),
		httpc:   &http.Client{},
		logger:  logger.With().Str("component", "fitapi").Logger(),
	}
}

// ListActivities fetches all activities belonging to the token's identity.
func (c *Client) ListActivities(ctx context.Context, token string) ([]Activity, error) {
	var activities []Activity
	if err := c.do(ctx, token, http.MethodGet, "/api/activities", nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// GetActivity fetches one activity, including its recommendation when
// the backend has computed one.
func (c *Client) GetActivity(ctx context.Context, token, id string) (*Activity, error) {
	var activity Activity
	if err := c.do(ctx, token, http.MethodGet, "/api/activities/"+id, nil, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// CreateActivity posts a new activity and returns the server-assigned
// record. The recommendation is typically not present yet; enrichment
// happens asynchronously on the backend and this client does not poll.
func (c *Client) CreateActivity(ctx context.Context, token string, draft Draft) (*Activity, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	var activity Activity
	if err := c.do(ctx, token, http.MethodPost, "/api/activities", draft.request(), &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Ping probes upstream reachability for the health endpoint. Any HTTP
// response, including an auth rejection, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/activities", nil)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("activity service unreachable: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do issues one authorized request and maps the outcome onto the error
// taxonomy. An empty token fails fast with an unauthorized error before
// any request is made.
func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	if token == "" {
		return &Error{Kind: KindUnauthorized, Message: "no credential held for this session"}
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindTransport, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("activity service unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if apiErr := errorFromStatus(resp); apiErr != nil {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("kind", string(apiErr.Kind)).
			Msg("Request rejected")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// errorFromStatus maps HTTP status semantics onto the taxonomy:
// 401/403 unauthorized, 404 not found, remaining 4xx validation,
// 5xx transport. Returns nil for success statuses.
func errorFromStatus(resp *http.Response) *Error {
	if resp.StatusCode < 400 {
		return nil
	}

	message := upstreamMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "credential rejected by the activity service"
		}
		return &Error{Kind: KindUnauthorized, Status: resp.StatusCode, Message: message}
	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "activity not found"
		}
		return &Error{Kind: KindNotFound, Status: resp.StatusCode, Message: message}
	case resp.StatusCode < 500:
		if message == "" {
			message = "request rejected by the activity service"
		}
		return &Error{Kind: KindValidation, Status: resp.StatusCode, Message: message}
	default:
		if message == "" {
			message = "activity service error"
		}
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: message}
	}
}

// upstreamMessage pulls a human-readable message out of an error body,
// accepting the common {"message": ...} and {"error": ...} shapes and
// falling back to the raw body.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var wire struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &wire); err == nil {
		if wire.Message != "" {
			return wire.Message
		}
		if wire.Error != "" {
			return wire.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
