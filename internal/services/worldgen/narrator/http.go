package narrator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/emberfall/worldforge/internal/platform/timeouts"
	"github.com/emberfall/worldforge/internal/worldgen/domain"
	"github.com/emberfall/worldforge/internal/worldgen/stream"
)

// maxEventSize bounds one SSE line so a misbehaving narrator cannot
// grow the scanner buffer without limit.
const maxEventSize = 1 << 20

// HTTPClient talks to the narrator service over SSE.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient builds a narrator client. httpClient may be nil; the
// default has no overall timeout because exchanges are long-lived, but
// idle reads are bounded per response.
func NewHTTPClient(baseURL, apiKey string, httpClient *http.Client) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("narrator base url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: timeouts.NarratorDial,
				IdleConnTimeout:       timeouts.NarratorIdle,
			},
		}
	}
	return &HTTPClient{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}, nil
}

// Stream opens one narrator exchange and returns its stream handle.
func (c *HTTPClient) Stream(ctx context.Context, req Request) (*stream.Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode narrator request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/narrate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build narrator request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("call narrator: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("narrator returned status %d", resp.StatusCode)
	}

	st := stream.New(cancel)
	go c.read(resp.Body, st)
	return st, nil
}

// read parses the SSE body and publishes events until a terminal event
// or a transport failure. Publish returning false means the consumer is
// gone; reading stops immediately.
func (c *HTTPClient) read(body io.ReadCloser, st *stream.Stream) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var eventName string
	var data strings.Builder
	terminal := false

	dispatch := func() bool {
		if eventName == "" && data.Len() == 0 {
			return true
		}
		event, ok := decodeEvent(eventName, data.String())
		eventName = ""
		data.Reset()
		if !ok {
			return true
		}
		if event.Terminal() {
			terminal = true
		}
		return st.Publish(event)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if !dispatch() {
				return
			}
			if terminal {
				return
			}
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	// Flush a final event that was not followed by a blank line.
	if !dispatch() || terminal {
		return
	}

	reason := "narrator stream ended unexpectedly"
	if err := scanner.Err(); err != nil {
		log.Printf("worldgen: narrator stream read failed: %v", err)
		reason = "narrator connection lost"
	}
	st.Publish(domain.StreamEvent{Type: domain.StreamEventError, Reason: reason})
}

type chunkPayload struct {
	Delta string `json:"delta"`
}

type completePayload struct {
	Content     string                     `json:"content"`
	StepUpdates map[string]json.RawMessage `json:"stepUpdates"`
}

type errorPayload struct {
	Reason string `json:"reason"`
}

// decodeEvent maps one SSE event onto the domain event taxonomy. Unknown
// event names are skipped so the narrator can add kinds without breaking
// older clients.
func decodeEvent(name, data string) (domain.StreamEvent, bool) {
	switch name {
	case "chunk":
		var payload chunkPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return domain.StreamEvent{}, false
		}
		return domain.StreamEvent{Type: domain.StreamEventChunk, Delta: payload.Delta}, true
	case "complete":
		var payload completePayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return domain.StreamEvent{
				Type:   domain.StreamEventError,
				Reason: "narrator sent a malformed completion",
			}, true
		}
		return domain.StreamEvent{
			Type:        domain.StreamEventComplete,
			Content:     payload.Content,
			StepUpdates: payload.StepUpdates,
		}, true
	case "error":
		var payload errorPayload
		_ = json.Unmarshal([]byte(data), &payload)
		if payload.Reason == "" {
			payload.Reason = "narrator reported an error"
		}
		return domain.StreamEvent{Type: domain.StreamEventError, Reason: payload.Reason}, true
	case "aborted":
		return domain.StreamEvent{Type: domain.StreamEventAborted}, true
	default:
		return domain.StreamEvent{}, false
	}
}
