package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	dErrors "linkgate/pkg/domain-errors"
)

const defaultRESTTimeout = 5 * time.Second

// RESTStore persists events in a remote key-value store reached over its
// Upstash-style REST protocol. Events live in one capped list, newest first.
//
// Append submits LPUSH and LTRIM together in a single pipeline request so a
// crash between the two can never leave the list unbounded. The bounded
// client timeout caps resource hold time; callers fire appends without
// awaiting them, so it never shows up in user-visible latency.
type RESTStore struct {
	baseURL    string
	token      string
	key        string
	listMax    int
	httpClient *http.Client
}

var _ Store = (*RESTStore)(nil)

// RESTOption configures the RESTStore.
type RESTOption func(*RESTStore)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) RESTOption {
	return func(s *RESTStore) {
		s.httpClient = client
	}
}

// WithKey overrides the list key.
func WithKey(key string) RESTOption {
	return func(s *RESTStore) {
		s.key = key
	}
}

// WithListMax overrides the list cap.
func WithListMax(max int) RESTOption {
	return func(s *RESTStore) {
		s.listMax = max
	}
}

// NewRESTStore creates a store backed by the REST endpoint at baseURL,
// authenticated with a bearer token.
func NewRESTStore(baseURL, token string, opts ...RESTOption) *RESTStore {
	s := &RESTStore{
		baseURL: baseURL,
		token:   token,
		key:     "audit:events",
		listMax: ListMax,
		httpClient: &http.Client{
			Timeout: defaultRESTTimeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RESTStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	// Push and trim travel in one request; the remote executes them back
	// to back, keeping the list capped even if we crash right after.
	_, err = s.pipeline(ctx, [][]string{
		{"LPUSH", s.key, string(payload)},
		{"LTRIM", s.key, "0", strconv.Itoa(s.listMax - 1)},
	})
	return err
}

// Recent fetches the first limit elements of the list (newest first) and
// reverses them to chronological order. Malformed elements are skipped.
func (s *RESTStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	results, err := s.pipeline(ctx, [][]string{
		{"LRANGE", s.key, "0", strconv.Itoa(limit - 1)},
	})
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, dErrors.New(dErrors.CodeInternal, "unexpected pipeline response shape")
	}

	var raw []string
	if err := json.Unmarshal(results[0], &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed list response")
	}

	// The list holds newest-first; walk it backwards to restore
	// chronological ascending order.
	events := make([]Event, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var event Event
		if err := json.Unmarshal([]byte(raw[i]), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *RESTStore) Name() string { return "upstash-rest" }

type pipelineResult struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// pipeline submits commands to the /pipeline endpoint in one request and
// returns the per-command results.
func (s *RESTStore) pipeline(ctx context.Context, commands [][]string) ([]json.RawMessage, error) {
	body, err := json.Marshal(commands)
	if err != nil {
		return nil, fmt.Errorf("marshal pipeline: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pipeline", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create pipeline request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "audit backend timeout")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit backend unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read pipeline response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "audit backend rejected credentials")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("audit backend returned status %d", resp.StatusCode))
	}

	var results []pipelineResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "malformed pipeline response")
	}

	out := make([]json.RawMessage, 0, len(results))
	for _, res := range results {
		if res.Error != "" {
			return nil, dErrors.New(dErrors.CodeInternal, "pipeline command failed: "+res.Error)
		}
		out = append(out, res.Result)
	}
	return out, nil
}
