package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/store"
)

// scriptedExecutor implements executor.Interface with canned results so the
// coordinator can be tested without a server.
type scriptedExecutor struct {
	mu      sync.Mutex
	calls   []executor.Operation
	results map[executor.Operation]json.RawMessage
	fail    map[executor.Operation]error
}

func newScriptedExecutor() *scriptedExecutor {
	return &scriptedExecutor{
		results: make(map[executor.Operation]json.RawMessage),
		fail:    make(map[executor.Operation]error),
	}
}

func (s *scriptedExecutor) Execute(ctx context.Context, op executor.Operation, payload interface{}) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	if err, ok := s.fail[op]; ok {
		return nil, err
	}
	if result, ok := s.results[op]; ok {
		return result, nil
	}
	return json.RawMessage(`{}`), nil
}

func (s *scriptedExecutor) StreamEvents(ctx context.Context) (*websocket.Conn, error) {
	return nil, errors.New("no event stream in scripted executor")
}

func (s *scriptedExecutor) IsHealthy(ctx context.Context) bool {
	return true
}

func (s *scriptedExecutor) callCount(op executor.Operation) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, call := range s.calls {
		if call == op {
			count++
		}
	}
	return count
}

func newTestCoordinator(t *testing.T) (*Coordinator, *scriptedExecutor) {
	t.Helper()
	im, err := metrics.NewIntentMetrics()
	require.NoError(t, err)

	exec := newScriptedExecutor()
	user := models.Author{ID: "u1", Name: "Reviewer", Type: models.AuthorTypeHuman}
	return NewCoordinator(exec, im, user, time.Second), exec
}

func singleFileGroup(id, path string) models.ChangeGroup {
	return models.ChangeGroup{
		ID:        id,
		Title:     "Refactor " + path,
		AgentID:   "agent-1",
		AgentName: "Refactorer",
		Timestamp: time.Now(),
		Files: models.FileBuckets{
			Modify: []models.FileChange{{Path: path, Content: "new"}},
		},
	}
}

func TestCoordinator_ProposeChanges(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))

	snap := c.Snapshot()
	require.Len(t, snap.ChangeGroups, 1)
	assert.Equal(t, "g1", snap.ChangeGroups[0].ID)

	// Proposals are local; nothing goes over the wire.
	assert.Empty(t, exec.calls)

	err := c.ProposeChanges(ctx, singleFileGroup("g1", "b.ts"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCoordinator_AcceptFile_CascadeRemovesEmptyGroup(t *testing.T) {
	// A group holding exactly one change: accepting that single file must
	// leave the session with no groups, exactly as a group-level accept would.
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))
	require.NoError(t, c.AcceptFile(ctx, "g1", "a.ts", models.BucketModify))

	snap := c.Snapshot()
	assert.Empty(t, snap.ChangeGroups)
}

func TestCoordinator_SingleEntryEquivalence(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))
	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g2", "b.ts")))

	require.NoError(t, c.AcceptFile(ctx, "g1", "a.ts", models.BucketModify))
	require.NoError(t, c.AcceptGroup(ctx, "g2"))

	assert.Empty(t, c.Snapshot().ChangeGroups)
}

func TestCoordinator_ExecutorFailureIsNoOp(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))

	ch, cancel := c.Subscribe()
	defer cancel()
	<-ch // initial snapshot

	exec.fail[executor.OpAcceptFile] = errors.New("connection refused")

	err := c.AcceptFile(ctx, "g1", "a.ts", models.BucketModify)
	require.ErrorIs(t, err, ErrExecutorFailure)

	// Nothing changed; the pushed snapshot carries the error notice and the
	// untouched group.
	snap := <-ch
	require.NotNil(t, snap.Error)
	assert.Equal(t, models.ErrCodeExecutorFailure, snap.Error.Code)
	assert.Equal(t, "acceptFile", snap.Error.Operation)
	require.Len(t, snap.ChangeGroups, 1)
	assert.Len(t, snap.ChangeGroups[0].Files.Modify, 1)
}

func TestCoordinator_AcceptFile_NotFoundSkipsDispatch(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))

	// Wrong bucket counts as not found.
	err := c.AcceptFile(ctx, "g1", "a.ts", models.BucketCreate)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, exec.callCount(executor.OpAcceptFile))

	err = c.RejectFile(ctx, "missing", "a.ts", models.BucketModify)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, exec.callCount(executor.OpRejectFile))
}

func TestCoordinator_ModifyChange(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))
	require.NoError(t, c.ModifyChange(ctx, "g1", "a.ts", "edited by reviewer"))

	snap := c.Snapshot()
	require.Len(t, snap.ChangeGroups, 1)
	assert.Equal(t, "edited by reviewer", snap.ChangeGroups[0].Files.Modify[0].Content)
}

func TestCoordinator_RequestExplanation(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	exec.results[executor.OpRequestExplanation] = json.RawMessage(`{"explanation":"renames the handler"}`)

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))
	require.NoError(t, c.RequestExplanation(ctx, "g1", "a.ts"))

	snap := c.Snapshot()
	assert.Equal(t, "renames the handler", snap.ChangeGroups[0].Files.Modify[0].Explanation)
}

func TestCoordinator_SelectImplementation(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.ProposeAlternatives(ctx, []models.AlternativeImplementation{
		{
			ID:    "alt-1",
			Title: "Iterative",
			Files: models.FileBuckets{Create: []models.FileChange{{Path: "iter.ts", Content: "x"}}},
		},
		{
			ID:    "alt-2",
			Title: "Recursive",
			Files: models.FileBuckets{Create: []models.FileChange{{Path: "rec.ts", Content: "y"}}},
		},
	})
	require.Len(t, c.Snapshot().AlternativeImplementations, 2)

	require.NoError(t, c.SelectImplementation(ctx, "alt-2"))

	snap := c.Snapshot()
	// Selecting one discards the whole list, chosen entry included.
	assert.Empty(t, snap.AlternativeImplementations)
	require.Len(t, snap.ChangeGroups, 1)
	assert.Equal(t, "system", snap.ChangeGroups[0].AgentID)
	assert.Equal(t, "Recursive", snap.ChangeGroups[0].Title)
	require.Len(t, snap.ChangeGroups[0].Files.Create, 1)
	assert.Equal(t, "rec.ts", snap.ChangeGroups[0].Files.Create[0].Path)

	err := c.SelectImplementation(ctx, "alt-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCoordinator_Annotations(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()
	author := models.Author{ID: "u1", Name: "Reviewer", Type: models.AuthorTypeHuman}

	exec.results[executor.OpAddAnnotation] = json.RawMessage(`{"id":"r1","timestamp":"2026-08-29T10:00:00Z"}`)
	require.NoError(t, c.AddAnnotation(ctx, models.Annotation{Content: "root comment", Author: author}))

	exec.results[executor.OpReplyToAnnotation] = json.RawMessage(`{"id":"c1","timestamp":"2026-08-29T10:01:00Z"}`)
	require.NoError(t, c.ReplyToAnnotation(ctx, "r1", models.Annotation{Content: "first reply", Author: author}))

	exec.results[executor.OpReplyToAnnotation] = json.RawMessage(`{"id":"c2","timestamp":"2026-08-29T10:02:00Z"}`)
	require.NoError(t, c.ReplyToAnnotation(ctx, "c1", models.Annotation{Content: "nested", Author: author}))

	snap := c.Snapshot()
	require.Len(t, snap.Annotations, 1)
	assert.Equal(t, "r1", snap.Annotations[0].ID)
	require.Len(t, snap.Annotations[0].Replies, 1)
	require.Len(t, snap.Annotations[0].Replies[0].Replies, 1)

	require.NoError(t, c.EditAnnotation(ctx, "c1", "edited reply"))
	snap = c.Snapshot()
	assert.Equal(t, "edited reply", snap.Annotations[0].Replies[0].Content)

	// Deleting the root takes the whole thread with it.
	require.NoError(t, c.DeleteAnnotation(ctx, "r1"))
	assert.Empty(t, c.Snapshot().Annotations)

	err := c.EditAnnotation(ctx, "r1", "gone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCoordinator_AddAnnotation_MissingIdentity(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	exec.results[executor.OpAddAnnotation] = json.RawMessage(`{}`)

	err := c.AddAnnotation(ctx, models.Annotation{Content: "x"})
	require.ErrorIs(t, err, ErrExecutorFailure)
	assert.Empty(t, c.Snapshot().Annotations)
}

func TestCoordinator_Checkpoints(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	exec.results[executor.OpCreateCheckpoint] = json.RawMessage(
		`{"id":"cp1","timestamp":"2026-08-29T09:00:00Z","description":"before refactor","changes":{"modified":3,"created":1,"deleted":0}}`)
	require.NoError(t, c.CreateCheckpoint(ctx, "before refactor"))

	exec.results[executor.OpCreateCheckpoint] = json.RawMessage(
		`{"id":"cp2","timestamp":"2026-08-29T09:30:00Z","description":"after refactor","changes":{"modified":1,"created":0,"deleted":0}}`)
	require.NoError(t, c.CreateCheckpoint(ctx, "after refactor"))

	snap := c.Snapshot()
	require.Len(t, snap.Checkpoints, 2)
	assert.Equal(t, 3, snap.Checkpoints[0].Changes.Modified)

	// Restore never mutates the log: both entries survive, order intact.
	require.NoError(t, c.RestoreCheckpoint(ctx, "cp1"))
	snap = c.Snapshot()
	require.Len(t, snap.Checkpoints, 2)
	assert.Equal(t, "cp1", snap.Checkpoints[0].ID)
	assert.Equal(t, "cp2", snap.Checkpoints[1].ID)

	require.NoError(t, c.DeleteCheckpoint(ctx, "cp1"))
	snap = c.Snapshot()
	require.Len(t, snap.Checkpoints, 1)
	assert.Equal(t, "cp2", snap.Checkpoints[0].ID)

	err := c.RestoreCheckpoint(ctx, "cp1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCoordinator_ViewCheckpointDiff(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	exec.results[executor.OpCreateCheckpoint] = json.RawMessage(`{"id":"cp1"}`)
	require.NoError(t, c.CreateCheckpoint(ctx, "snap"))

	exec.results[executor.OpViewCheckpointDiff] = json.RawMessage(`{"files":["a.ts"]}`)
	diff, err := c.ViewCheckpointDiff(ctx, "cp1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"files":["a.ts"]}`, string(diff))

	// Read-only: the log is untouched.
	assert.Len(t, c.Snapshot().Checkpoints, 1)
}

func TestCoordinator_ResolveConflict_FinalizedByEvent(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ReportConflict(ctx, models.Conflict{
		ID:          "cf1",
		Type:        models.ConflictTypeMerge,
		Description: "both touch config.ts",
		Files:       []string{"config.ts"},
	}))

	require.NoError(t, c.ResolveConflict(ctx, "cf1", "keep agent-1 version"))

	// Optimistic: the conflict is resolving before any event arrives.
	snap := c.Snapshot()
	assert.Equal(t, models.ConflictStatusResolving, snap.Conflicts[0].Status)
	assert.True(t, snap.IsResolvingConflicts)

	c.HandleExecutorEvent(ctx, executor.Event{
		EventType: models.EventTypeConflictResolved,
		Data:      json.RawMessage(`{"conflictId":"cf1"}`),
	})

	snap = c.Snapshot()
	assert.Equal(t, models.ConflictStatusResolved, snap.Conflicts[0].Status)
	assert.False(t, snap.IsResolvingConflicts)

	// Terminal: a late failure event for the same conflict is dropped.
	c.HandleExecutorEvent(ctx, executor.Event{
		EventType: models.EventTypeConflictResolutionFailed,
		Data:      json.RawMessage(`{"conflictId":"cf1","reason":"late"}`),
	})
	assert.Equal(t, models.ConflictStatusResolved, c.Snapshot().Conflicts[0].Status)
}

func TestCoordinator_ResolveConflict_DispatchFailureFinalizesToFailed(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	exec.fail[executor.OpRequestAIResolution] = errors.New("connection refused")

	require.NoError(t, c.ReportConflict(ctx, models.Conflict{ID: "cf1", Type: models.ConflictTypeLogic}))
	require.NoError(t, c.RequestAIResolution(ctx, "cf1"))

	// The dispatch happens off the session mutex; the failed status lands
	// asynchronously but never reverts to pending.
	assert.Eventually(t, func() bool {
		return c.Snapshot().Conflicts[0].Status == models.ConflictStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, c.Snapshot().IsResolvingConflicts)
}

func TestCoordinator_ResolveConflict_AlreadyResolving(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ReportConflict(ctx, models.Conflict{ID: "cf1", Type: models.ConflictTypeMerge}))
	require.NoError(t, c.ResolveConflict(ctx, "cf1", "manual"))

	err := c.ResolveConflict(ctx, "cf1", "again")
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestCoordinator_HandleExecutorEvent_Pushes(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	c.HandleExecutorEvent(ctx, executor.Event{
		EventType: models.EventTypeChangesProposed,
		Data:      json.RawMessage(`{"group":{"id":"g1","title":"pushed","files":{"modify":[{"path":"a.ts","content":"x"}],"create":[],"delete":[]}}}`),
	})
	c.HandleExecutorEvent(ctx, executor.Event{
		EventType: models.EventTypeConflictDetected,
		Data:      json.RawMessage(`{"conflict":{"id":"cf1","type":"merge","status":"resolved"}}`),
	})
	c.HandleExecutorEvent(ctx, executor.Event{
		EventType: models.EventTypeAgentsUpdated,
		Data:      json.RawMessage(`{"agents":[{"id":"agent-1","name":"Refactorer","status":"idle"}]}`),
	})

	snap := c.Snapshot()
	require.Len(t, snap.ChangeGroups, 1)
	require.Len(t, snap.Conflicts, 1)
	// Detected conflicts always enter pending, whatever the event claimed.
	assert.Equal(t, models.ConflictStatusPending, snap.Conflicts[0].Status)
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, "Refactorer", snap.Agents[0].Name)

	// Unknown events are dropped without effect.
	c.HandleExecutorEvent(ctx, executor.Event{EventType: "totally.unknown", Data: json.RawMessage(`{}`)})
	assert.Len(t, c.Snapshot().ChangeGroups, 1)
}

func TestCoordinator_Reset(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))
	require.NoError(t, c.ReportConflict(ctx, models.Conflict{ID: "cf1", Type: models.ConflictTypeMerge}))
	exec.results[executor.OpAddAnnotation] = json.RawMessage(`{"id":"r1"}`)
	require.NoError(t, c.AddAnnotation(ctx, models.Annotation{Content: "note"}))
	exec.results[executor.OpCreateCheckpoint] = json.RawMessage(`{"id":"cp1"}`)
	require.NoError(t, c.CreateCheckpoint(ctx, "snap"))
	c.ProposeAlternatives(ctx, []models.AlternativeImplementation{{ID: "alt-1"}})

	require.NoError(t, c.Reset(ctx))

	snap := c.Snapshot()
	assert.Empty(t, snap.ChangeGroups)
	assert.Empty(t, snap.Conflicts)
	assert.Empty(t, snap.Annotations)
	assert.Empty(t, snap.Checkpoints)
	assert.Empty(t, snap.AlternativeImplementations)
	assert.Equal(t, "u1", snap.CurrentUser.ID)
}

func TestCoordinator_Reset_ExecutorFailureKeepsState(t *testing.T) {
	c, exec := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))
	exec.fail[executor.OpResetStorage] = errors.New("boom")

	err := c.Reset(ctx)
	require.ErrorIs(t, err, ErrExecutorFailure)
	assert.Len(t, c.Snapshot().ChangeGroups, 1)
}

func TestCoordinator_Subscribe(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))

	ch, cancel := c.Subscribe()
	defer cancel()

	// Current snapshot arrives immediately, before any mutation.
	select {
	case snap := <-ch:
		require.Len(t, snap.ChangeGroups, 1)
		assert.Equal(t, "u1", snap.CurrentUser.ID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot on subscribe")
	}

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g2", "b.ts")))
	select {
	case snap := <-ch:
		assert.Len(t, snap.ChangeGroups, 2)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after mutation")
	}
}

func TestCoordinator_Close(t *testing.T) {
	c, _ := newTestCoordinator(t)

	ch, cancel := c.Subscribe()
	<-ch
	c.Close()

	_, open := <-ch
	assert.False(t, open)

	// Cancel after close must not panic.
	assert.NotPanics(t, cancel)
}

func TestCoordinator_SnapshotIsolation(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.ProposeChanges(ctx, singleFileGroup("g1", "a.ts")))

	snap := c.Snapshot()
	snap.ChangeGroups[0].Files.Modify[0].Content = "tampered"
	snap.ChangeGroups[0].Title = "tampered"

	fresh := c.Snapshot()
	assert.Equal(t, "new", fresh.ChangeGroups[0].Files.Modify[0].Content)
	assert.Equal(t, fmt.Sprintf("Refactor %s", "a.ts"), fresh.ChangeGroups[0].Title)
}
