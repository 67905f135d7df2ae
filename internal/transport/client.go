// =============================================================================
// Census Bulk Importer - Transport
// =============================================================================
//
// This module posts the exported records to the bulk-import endpoint.
//
// WIRE FORMAT:
//   POST /api/bulk-import
//   Content-Type: application/json
//   X-Import-Session: <session uuid>
//
//   {"datos": [{"COMUNIDAD": "...", "TORRE": "...", ...}, ...]}
//
// Any 2xx response is success. Everything else is a *StatusError. There is
// no retry here; the caller decides whether to submit again.
//
// =============================================================================

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// SessionHeader carries the import session id.
const SessionHeader = "X-Import-Session"

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Payload is the request body.
type Payload struct {
	Datos []types.Row `json:"datos"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Client submits rows to one endpoint.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient returns a client for endpoint with the given request timeout.
func NewClient(endpoint string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// Submit posts rows as one batch.
func (c *Client) Submit(ctx context.Context, sessionID string, rows []types.Row) error {
	if rows == nil {
		rows = []types.Row{}
	}
	body, err := json.Marshal(Payload{Datos: rows})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	c.Logger.Debug("Posting records", "endpoint", c.Endpoint, "records", len(rows), "bytes", len(body))

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	c.Logger.Debug("Endpoint accepted records", "status", resp.StatusCode)
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
