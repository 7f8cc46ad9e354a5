package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Operation names the commands understood by the external executor. The
// executor performs the real file I/O, restoration and agent-driven conflict
// resolution; the review core only tracks confirmed outcomes.
type Operation string

const (
	OpAcceptChangeGroup    Operation = "acceptChangeGroup"
	OpRejectChangeGroup    Operation = "rejectChangeGroup"
	OpAcceptFile           Operation = "acceptFile"
	OpRejectFile           Operation = "rejectFile"
	OpModifyChange         Operation = "modifyChange"
	OpRequestExplanation   Operation = "requestExplanation"
	OpSelectImplementation Operation = "selectImplementation"
	OpAddAnnotation        Operation = "addAnnotation"
	OpEditAnnotation       Operation = "editAnnotation"
	OpDeleteAnnotation     Operation = "deleteAnnotation"
	OpReplyToAnnotation    Operation = "replyToAnnotation"
	OpCreateCheckpoint     Operation = "createCheckpoint"
	OpRestoreCheckpoint    Operation = "restoreCheckpoint"
	OpDeleteCheckpoint     Operation = "deleteCheckpoint"
	OpViewCheckpointDiff   Operation = "viewCheckpointDiff"
	OpResolveConflict      Operation = "resolveConflict"
	OpRequestAIResolution  Operation = "requestAIResolution"
	OpResetStorage         Operation = "resetStorage"
)

// Command is the request envelope sent to the executor.
type Command struct {
	CommandID string      `json:"command_id"`
	Operation Operation   `json:"operation"`
	Payload   interface{} `json:"payload,omitempty"`
}

// CommandResult is the executor's direct response to a command.
type CommandResult struct {
	CommandID string          `json:"command_id"`
	Status    string          `json:"status"` // "ok" or "error"
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Event is a message pushed on the executor's event stream, used for the
// long-running flows that do not block on a direct response.
type Event struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// Interface defines the executor client surface so the coordinator can be
// tested against a scripted executor.
type Interface interface {
	Execute(ctx context.Context, op Operation, payload interface{}) (json.RawMessage, error)
	StreamEvents(ctx context.Context) (*websocket.Conn, error)
	IsHealthy(ctx context.Context) bool
}

// Client handles communication with the executor service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

var _ Interface = (*Client)(nil)

// NewClient creates a new executor client. An empty baseURL falls back to
// the EXECUTOR_URL environment variable, then to the in-cluster default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("EXECUTOR_URL")
	}
	if baseURL == "" {
		baseURL = "http://review-executor-service:8090"
		log.Printf("WARN: EXECUTOR_URL not set, defaulting to %s", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "review-executor",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tracer:  otel.Tracer("executor-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute sends one command and returns the confirmed result payload. Any
// error means the command must be treated as not applied.
func (c *Client) Execute(ctx context.Context, op Operation, payload interface{}) (json.RawMessage, error) {
	ctx, span := c.tracer.Start(ctx, "executor.execute")
	defer span.End()

	cmd := Command{
		CommandID: uuid.New().String(),
		Operation: op,
		Payload:   payload,
	}

	span.SetAttributes(
		attribute.String("command.id", cmd.CommandID),
		attribute.String("command.operation", string(op)),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.executeInternal(ctx, cmd)
	})

	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to execute %s: %w", op, err)
	}

	return result.(json.RawMessage), nil
}

// executeInternal performs the actual HTTP request
func (c *Client) executeInternal(ctx context.Context, cmd Command) (json.RawMessage, error) {
	jsonData, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}

	url := fmt.Sprintf("%s/executor/commands", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	// Inject trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("executor returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("executor returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result CommandResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Status != "ok" {
		return nil, fmt.Errorf("executor rejected %s: %s", cmd.Operation, result.Error)
	}

	return result.Result, nil
}

// StreamEvents establishes a WebSocket connection to the executor's event
// stream. Conflict finalizations, detected conflicts and incoming proposals
// arrive here rather than as direct command responses.
func (c *Client) StreamEvents(ctx context.Context) (*websocket.Conn, error) {
	ctx, span := c.tracer.Start(ctx, "executor.stream_events")
	defer span.End()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.streamEventsInternal(ctx)
	})

	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to establish event stream: %w", err)
	}

	return result.(*websocket.Conn), nil
}

// streamEventsInternal performs the actual WebSocket connection
func (c *Client) streamEventsInternal(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}

	u.Path = "/executor/events"

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	headers := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))

	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			bodyBytes, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("failed to dial event stream (status %d): %s, error: %w", resp.StatusCode, string(bodyBytes), err)
		}
		return nil, fmt.Errorf("failed to dial event stream: %w", err)
	}

	return conn, nil
}

// IsHealthy checks if the executor service is healthy
func (c *Client) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "executor.health_check")
	defer span.End()

	// Use circuit breaker state as a quick health indicator
	if c.breaker.State() == gobreaker.StateOpen {
		span.SetAttributes(attribute.Bool("healthy", false), attribute.String("reason", "circuit_breaker_open"))
		return false
	}

	url := fmt.Sprintf("%s/health", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		span.RecordError(err)
		return false
	}

	// Short timeout for health checks
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	span.SetAttributes(attribute.Bool("healthy", healthy))

	return healthy
}
