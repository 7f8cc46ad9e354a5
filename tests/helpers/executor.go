package helpers

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
)

// FakeExecutor is an in-process executor service for integration tests. It
// serves the real wire protocol: scripted responses on the command endpoint,
// a WebSocket event stream tests can push events into, and a health endpoint.
type FakeExecutor struct {
	server *httptest.Server

	mu       sync.Mutex
	results  map[executor.Operation]json.RawMessage
	failures map[executor.Operation]string
	calls    []executor.Command
	streams  map[*websocket.Conn]struct{}
	healthy  bool
}

var fakeUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewFakeExecutor starts a fake executor server. It is shut down automatically
// when the test finishes.
func NewFakeExecutor(t *testing.T) *FakeExecutor {
	t.Helper()

	f := &FakeExecutor{
		results:  make(map[executor.Operation]json.RawMessage),
		failures: make(map[executor.Operation]string),
		streams:  make(map[*websocket.Conn]struct{}),
		healthy:  true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/executor/commands", f.handleCommand)
	mux.HandleFunc("/executor/events", f.handleEvents)
	mux.HandleFunc("/health", f.handleHealth)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// URL returns the base URL of the fake executor server.
func (f *FakeExecutor) URL() string {
	return f.server.URL
}

// Close shuts down the server and drops all event stream connections.
func (f *FakeExecutor) Close() {
	f.mu.Lock()
	for conn := range f.streams {
		conn.Close()
	}
	f.streams = make(map[*websocket.Conn]struct{})
	f.mu.Unlock()
	f.server.Close()
}

// ScriptResult sets the result payload returned for an operation. Operations
// without a scripted result confirm with an empty object.
func (f *FakeExecutor) ScriptResult(op executor.Operation, result interface{}) {
	data, err := json.Marshal(result)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[op] = data
}

// ScriptFailure makes an operation respond with a rejection.
func (f *FakeExecutor) ScriptFailure(op executor.Operation, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = message
}

// Calls returns a copy of every command received so far.
func (f *FakeExecutor) Calls() []executor.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]executor.Command(nil), f.calls...)
}

// CallCount counts received commands for one operation.
func (f *FakeExecutor) CallCount(op executor.Operation) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, cmd := range f.calls {
		if cmd.Operation == op {
			n++
		}
	}
	return n
}

// LastCall returns the most recent command for an operation.
func (f *FakeExecutor) LastCall(op executor.Operation) (executor.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Operation == op {
			return f.calls[i], true
		}
	}
	return executor.Command{}, false
}

// SetHealthy controls the health endpoint response.
func (f *FakeExecutor) SetHealthy(healthy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy = healthy
}

// PushEvent sends an event to every connected event stream subscriber.
func (f *FakeExecutor) PushEvent(eventType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	ev := executor.Event{EventType: eventType, Data: raw}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.streams {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("fake executor: dropping event stream subscriber: %v", err)
			conn.Close()
			delete(f.streams, conn)
		}
	}
}

// StreamCount returns the number of connected event stream subscribers.
func (f *FakeExecutor) StreamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

// WaitForStream blocks until at least one event stream subscriber connects.
// Events pushed before a subscriber is attached are lost, so tests must wait
// before pushing.
func (f *FakeExecutor) WaitForStream(t *testing.T, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f.StreamCount() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no event stream subscriber connected within %s", timeout)
}

func (f *FakeExecutor) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd executor.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "malformed command", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	failure, failed := f.failures[cmd.Operation]
	result, scripted := f.results[cmd.Operation]
	f.mu.Unlock()

	resp := executor.CommandResult{CommandID: cmd.CommandID, Status: "ok"}
	switch {
	case failed:
		resp.Status = "error"
		resp.Error = failure
	case scripted:
		resp.Result = result
	default:
		resp.Result = json.RawMessage(`{}`)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (f *FakeExecutor) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := fakeUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	f.mu.Lock()
	f.streams[conn] = struct{}{}
	f.mu.Unlock()

	// Hold the connection open; subscribers only read.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				f.mu.Lock()
				delete(f.streams, conn)
				f.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func (f *FakeExecutor) handleHealth(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	healthy := f.healthy
	f.mu.Unlock()

	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}
