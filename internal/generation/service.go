// internal/generation/service.go
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"strengthlab/fitness-app/internal/domain"
)

// --- Error Definitions ---
var (
	// ErrLimitExceeded is the business-rule rejection: the user's free
	// generation quota is spent. Callers route this to the paywall.
	ErrLimitExceeded = errors.New("workout limit exceeded")
	// ErrEmptyResult means the endpoint answered success with no usable body.
	ErrEmptyResult = errors.New("generation returned no data")
)

// LimitExceededReason is the machine-readable reason string the endpoint
// sends when the quota rejection fires.
const LimitExceededReason = "WORKOUT_LIMIT_EXCEEDED"

// --- Service Interface ---

// Service issues one generation request per call. Any error other than
// ErrLimitExceeded and ErrEmptyResult is transient: retrying is legitimate,
// but this layer never retries on its own.
type Service interface {
	Generate(ctx context.Context, params domain.GenerationParams) (*domain.WeeklyWorkout, *domain.DebugInfo, error)
}

// --- Service Implementation ---

type service struct {
	endpoint   string
	httpClient *http.Client
}

// NewService creates a Service talking to the given endpoint URL. A nil
// client falls back to http.DefaultClient; timeouts are whatever the
// supplied transport carries.
func NewService(endpoint string, httpClient *http.Client) Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &service{endpoint: endpoint, httpClient: httpClient}
}

// errorReply is the endpoint's non-2xx body shape.
type errorReply struct {
	Error string `json:"error"`
}

// Generate posts the params and normalizes the response: the reserved debug
// entry is split onto the side channel and stripped from the returned
// workout so rendering code never sees internal diagnostics.
func (s *service) Generate(ctx context.Context, params domain.GenerationParams) (*domain.WeeklyWorkout, *domain.DebugInfo, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode generation params: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var reply errorReply
		if json.Unmarshal(body, &reply) == nil && reply.Error == LimitExceededReason {
			return nil, nil, ErrLimitExceeded
		}
		if reply.Error != "" {
			return nil, nil, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, reply.Error)
		}
		return nil, nil, fmt.Errorf("generation endpoint returned %d", resp.StatusCode)
	}

	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, nil, ErrEmptyResult
	}

	stripped, debug, err := splitDebug(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	var workout domain.WeeklyWorkout
	if err := json.Unmarshal(stripped, &workout); err != nil {
		return nil, nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	return &workout, debug, nil
}

// splitDebug removes the reserved debug entry from a raw response object and
// decodes it separately. Responses without the entry pass through untouched.
func splitDebug(body []byte) ([]byte, *domain.DebugInfo, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, nil, err
	}

	raw, ok := entries[domain.DebugKey]
	if !ok {
		return body, nil, nil
	}
	delete(entries, domain.DebugKey)

	debug := &domain.DebugInfo{}
	if err := json.Unmarshal(raw, debug); err != nil {
		// Diagnostics are best-effort; an unexpected shape is kept verbatim.
		debug = &domain.DebugInfo{Notes: string(raw)}
	}

	stripped, err := json.Marshal(entries)
	if err != nil {
		return nil, nil, err
	}
	return stripped, debug, nil
}
