// Package review implements the session coordinator that sits between the
// editor-facing gateway and the external executor. Every review intent is
// dispatched to the executor first; stores only change after a confirmed
// result, except conflict resolution which is marked optimistically and
// finalized by pushed events.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/store"
)

// ErrExecutorFailure is wrapped around every failed executor round-trip so
// callers can distinguish transport failures from review-state errors.
var ErrExecutorFailure = errors.New("executor failure")

// DefaultDispatchTimeout bounds one confirm-then-apply round-trip.
const DefaultDispatchTimeout = 30 * time.Second

// snapshotBuffer is the per-subscriber channel depth. A slow subscriber
// drops frames; every push carries full state so nothing is lost for good.
const snapshotBuffer = 16

// Coordinator owns one review session: the four stores, the alternatives
// list, the agent roster and the current user. A single mutex serializes
// every intent, so the session is logically single-threaded and a checkpoint
// restore cannot interleave with any other mutation.
type Coordinator struct {
	mu sync.Mutex

	groups      *store.ChangeGroupStore
	annotations *store.AnnotationTree
	conflicts   *store.ConflictRegistry
	checkpoints *store.CheckpointLog

	alternatives []models.AlternativeImplementation
	agents       []models.AgentInfo
	currentUser  models.Author

	exec            executor.Interface
	intentMetrics   *metrics.IntentMetrics
	tracer          trace.Tracer
	dispatchTimeout time.Duration

	subscribers map[chan models.StateSnapshot]struct{}
	closed      bool
}

// NewCoordinator creates a coordinator for one review session. A zero
// dispatchTimeout falls back to DefaultDispatchTimeout.
func NewCoordinator(exec executor.Interface, im *metrics.IntentMetrics, user models.Author, dispatchTimeout time.Duration) *Coordinator {
	if dispatchTimeout <= 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}
	return &Coordinator{
		groups:          store.NewChangeGroupStore(),
		annotations:     store.NewAnnotationTree(),
		conflicts:       store.NewConflictRegistry(),
		checkpoints:     store.NewCheckpointLog(),
		currentUser:     user,
		exec:            exec,
		intentMetrics:   im,
		tracer:          otel.Tracer("review-coordinator"),
		dispatchTimeout: dispatchTimeout,
		subscribers:     make(map[chan models.StateSnapshot]struct{}),
	}
}

// Subscribe registers a snapshot observer. The current snapshot is delivered
// immediately, then one snapshot after every confirmed mutation. The returned
// cancel function must be called exactly once.
func (c *Coordinator) Subscribe() (<-chan models.StateSnapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.StateSnapshot, snapshotBuffer)
	c.subscribers[ch] = struct{}{}
	ch <- c.snapshotLocked(nil)

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Snapshot returns the current full session state.
func (c *Coordinator) Snapshot() models.StateSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(nil)
}

// SetCurrentUser binds the authenticated reviewer to the session.
func (c *Coordinator) SetCurrentUser(user models.Author) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentUser = user
	c.broadcastLocked(nil)
}

// Close tears the session down and closes every subscriber channel.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

// ProposeChanges registers an agent proposal as a new change group under
// review. This is the only way groups are created aside from selecting an
// alternative implementation.
func (c *Coordinator) ProposeChanges(ctx context.Context, group models.ChangeGroup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.Timestamp.IsZero() {
		group.Timestamp = time.Now().UTC()
	}
	if err := c.groups.Put(group); err != nil {
		return c.failLocked("proposeChanges", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// ProposeAlternatives replaces the current list of alternative
// implementations. The list lives until one of them is selected.
func (c *Coordinator) ProposeAlternatives(ctx context.Context, alts []models.AlternativeImplementation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alternatives = append([]models.AlternativeImplementation(nil), alts...)
	c.broadcastLocked(nil)
}

// ReportConflict registers a detected conflict. It always enters the
// registry as pending regardless of the status the reporter supplied.
func (c *Coordinator) ReportConflict(ctx context.Context, conflict models.Conflict) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conflict.ID == "" {
		conflict.ID = uuid.New().String()
	}
	if err := c.conflicts.Put(conflict); err != nil {
		return c.failLocked("reportConflict", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// AcceptGroup applies every change in the group. The executor performs the
// file writes; the group leaves the store only after confirmation.
func (c *Coordinator) AcceptGroup(ctx context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.groups.Get(groupID); !ok {
		return c.failLocked("acceptChangeGroup", fmt.Errorf("change group %s: %w", groupID, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpAcceptChangeGroup, groupPayload{GroupID: groupID}); err != nil {
		return c.failLocked("acceptChangeGroup", err)
	}
	if err := c.groups.Remove(groupID); err != nil {
		return c.failLocked("acceptChangeGroup", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// RejectGroup discards every change in the group.
func (c *Coordinator) RejectGroup(ctx context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.groups.Get(groupID); !ok {
		return c.failLocked("rejectChangeGroup", fmt.Errorf("change group %s: %w", groupID, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpRejectChangeGroup, groupPayload{GroupID: groupID}); err != nil {
		return c.failLocked("rejectChangeGroup", err)
	}
	if err := c.groups.Remove(groupID); err != nil {
		return c.failLocked("rejectChangeGroup", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// AcceptFile applies a single file change from one bucket. If the group's
// last entry is removed, the group itself goes with it.
func (c *Coordinator) AcceptFile(ctx context.Context, groupID, path string, bucket models.Bucket) error {
	return c.fileIntent(ctx, executor.OpAcceptFile, groupID, path, bucket)
}

// RejectFile discards a single file change from one bucket, with the same
// empty-group cascade as AcceptFile.
func (c *Coordinator) RejectFile(ctx context.Context, groupID, path string, bucket models.Bucket) error {
	return c.fileIntent(ctx, executor.OpRejectFile, groupID, path, bucket)
}

func (c *Coordinator) fileIntent(ctx context.Context, op executor.Operation, groupID, path string, bucket models.Bucket) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !bucket.Valid() {
		return c.failLocked(string(op), fmt.Errorf("unknown bucket %q: %w", bucket, store.ErrNotFound))
	}
	if !c.groups.HasFile(groupID, path, bucket) {
		return c.failLocked(string(op), fmt.Errorf("change group %s, path %s in bucket %s: %w", groupID, path, bucket, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, op, filePayload{GroupID: groupID, Path: path, Bucket: bucket}); err != nil {
		return c.failLocked(string(op), err)
	}
	if _, err := c.groups.RemoveFile(groupID, path, bucket); err != nil {
		return c.failLocked(string(op), err)
	}
	c.broadcastLocked(nil)
	return nil
}

// ModifyChange replaces the proposed content of a pending change in the
// modify or create bucket. Bucket membership never changes.
func (c *Coordinator) ModifyChange(ctx context.Context, groupID, path, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.groups.HasFile(groupID, path, models.BucketModify) && !c.groups.HasFile(groupID, path, models.BucketCreate) {
		return c.failLocked("modifyChange", fmt.Errorf("change group %s, editable path %s: %w", groupID, path, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpModifyChange, contentPayload{GroupID: groupID, Path: path, Content: content}); err != nil {
		return c.failLocked("modifyChange", err)
	}
	if err := c.groups.SetContent(groupID, path, content); err != nil {
		return c.failLocked("modifyChange", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// RequestExplanation asks the executor to explain a pending change and
// attaches the confirmed text to it.
func (c *Coordinator) RequestExplanation(ctx context.Context, groupID, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.groups.HasFile(groupID, path, models.BucketModify) && !c.groups.HasFile(groupID, path, models.BucketCreate) {
		return c.failLocked("requestExplanation", fmt.Errorf("change group %s, editable path %s: %w", groupID, path, store.ErrNotFound))
	}
	result, err := c.dispatch(ctx, executor.OpRequestExplanation, filePayload{GroupID: groupID, Path: path})
	if err != nil {
		return c.failLocked("requestExplanation", err)
	}
	var explained struct {
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal(result, &explained); err != nil {
		return c.failLocked("requestExplanation", fmt.Errorf("%w: malformed explanation result: %v", ErrExecutorFailure, err))
	}
	if err := c.groups.SetExplanation(groupID, path, explained.Explanation); err != nil {
		return c.failLocked("requestExplanation", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// SelectImplementation converts one alternative implementation into a change
// group attributed to the system and discards the entire alternatives list,
// including the selected entry.
func (c *Coordinator) SelectImplementation(ctx context.Context, implementationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var selected *models.AlternativeImplementation
	for i := range c.alternatives {
		if c.alternatives[i].ID == implementationID {
			selected = &c.alternatives[i]
			break
		}
	}
	if selected == nil {
		return c.failLocked("selectImplementation", fmt.Errorf("alternative implementation %s: %w", implementationID, store.ErrNotFound))
	}

	result, err := c.dispatch(ctx, executor.OpSelectImplementation, implementationPayload{ImplementationID: implementationID})
	if err != nil {
		return c.failLocked("selectImplementation", err)
	}

	var confirmed struct {
		GroupID string `json:"groupId"`
	}
	if len(result) > 0 {
		// Best effort; the executor may or may not name the new group.
		_ = json.Unmarshal(result, &confirmed)
	}
	if confirmed.GroupID == "" {
		confirmed.GroupID = uuid.New().String()
	}

	group := models.ChangeGroup{
		ID:          confirmed.GroupID,
		Title:       selected.Title,
		Description: selected.Description,
		AgentID:     "system",
		AgentName:   "System",
		Timestamp:   time.Now().UTC(),
		Files:       selected.Files,
	}
	if err := c.groups.Put(group); err != nil {
		return c.failLocked("selectImplementation", err)
	}
	c.alternatives = nil
	c.broadcastLocked(nil)
	return nil
}

// AddAnnotation creates a root annotation. The executor assigns the id and
// timestamp; the draft's own values are ignored.
func (c *Coordinator) AddAnnotation(ctx context.Context, draft models.Annotation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.dispatch(ctx, executor.OpAddAnnotation, annotationPayload{Annotation: draft})
	if err != nil {
		return c.failLocked("addAnnotation", err)
	}
	node, err := identifiedAnnotation(draft, result)
	if err != nil {
		return c.failLocked("addAnnotation", err)
	}
	if err := c.annotations.Add(node); err != nil {
		return c.failLocked("addAnnotation", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// EditAnnotation replaces the content of an annotation anywhere in the
// thread forest. Id, replies and anchor are untouched.
func (c *Coordinator) EditAnnotation(ctx context.Context, annotationID, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.annotations.Has(annotationID) {
		return c.failLocked("editAnnotation", fmt.Errorf("annotation %s: %w", annotationID, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpEditAnnotation, annotationEditPayload{AnnotationID: annotationID, Content: content}); err != nil {
		return c.failLocked("editAnnotation", err)
	}
	if err := c.annotations.Edit(annotationID, content); err != nil {
		return c.failLocked("editAnnotation", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// DeleteAnnotation removes an annotation together with its whole reply
// subtree.
func (c *Coordinator) DeleteAnnotation(ctx context.Context, annotationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.annotations.Has(annotationID) {
		return c.failLocked("deleteAnnotation", fmt.Errorf("annotation %s: %w", annotationID, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpDeleteAnnotation, annotationIDPayload{AnnotationID: annotationID}); err != nil {
		return c.failLocked("deleteAnnotation", err)
	}
	if err := c.annotations.Delete(annotationID); err != nil {
		return c.failLocked("deleteAnnotation", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// ReplyToAnnotation threads a reply under an existing annotation at any
// depth. The executor assigns the reply's id and timestamp.
func (c *Coordinator) ReplyToAnnotation(ctx context.Context, parentID string, draft models.Annotation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.annotations.Has(parentID) {
		return c.failLocked("replyToAnnotation", fmt.Errorf("annotation %s: %w", parentID, store.ErrNotFound))
	}
	result, err := c.dispatch(ctx, executor.OpReplyToAnnotation, annotationReplyPayload{ParentID: parentID, Annotation: draft})
	if err != nil {
		return c.failLocked("replyToAnnotation", err)
	}
	node, err := identifiedAnnotation(draft, result)
	if err != nil {
		return c.failLocked("replyToAnnotation", err)
	}
	if err := c.annotations.Reply(parentID, node); err != nil {
		return c.failLocked("replyToAnnotation", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// CreateCheckpoint snapshots the current project state executor-side and
// appends the confirmed checkpoint record to the log.
func (c *Coordinator) CreateCheckpoint(ctx context.Context, description string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.dispatch(ctx, executor.OpCreateCheckpoint, checkpointCreatePayload{Description: description})
	if err != nil {
		return c.failLocked("createCheckpoint", err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(result, &cp); err != nil {
		return c.failLocked("createCheckpoint", fmt.Errorf("%w: malformed checkpoint result: %v", ErrExecutorFailure, err))
	}
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = time.Now().UTC()
	}
	if cp.Description == "" {
		cp.Description = description
	}
	if err := c.checkpoints.Append(cp); err != nil {
		return c.failLocked("createCheckpoint", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// RestoreCheckpoint restores project state to a checkpoint. The log itself
// is never mutated: the restored entry and every other entry survive.
// Holding the session mutex for the whole round-trip keeps any concurrent
// intent from interleaving with the restore.
func (c *Coordinator) RestoreCheckpoint(ctx context.Context, checkpointID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.checkpoints.Get(checkpointID); !ok {
		return c.failLocked("restoreCheckpoint", fmt.Errorf("checkpoint %s: %w", checkpointID, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpRestoreCheckpoint, checkpointIDPayload{CheckpointID: checkpointID}); err != nil {
		return c.failLocked("restoreCheckpoint", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// DeleteCheckpoint removes exactly one entry from the log.
func (c *Coordinator) DeleteCheckpoint(ctx context.Context, checkpointID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.checkpoints.Get(checkpointID); !ok {
		return c.failLocked("deleteCheckpoint", fmt.Errorf("checkpoint %s: %w", checkpointID, store.ErrNotFound))
	}
	if _, err := c.dispatch(ctx, executor.OpDeleteCheckpoint, checkpointIDPayload{CheckpointID: checkpointID}); err != nil {
		return c.failLocked("deleteCheckpoint", err)
	}
	if err := c.checkpoints.Delete(checkpointID); err != nil {
		return c.failLocked("deleteCheckpoint", err)
	}
	c.broadcastLocked(nil)
	return nil
}

// ViewCheckpointDiff returns the executor-computed diff between a checkpoint
// and the current state. Read-only: neither the log nor any store changes.
func (c *Coordinator) ViewCheckpointDiff(ctx context.Context, checkpointID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.checkpoints.Get(checkpointID); !ok {
		return nil, c.failLocked("viewCheckpointDiff", fmt.Errorf("checkpoint %s: %w", checkpointID, store.ErrNotFound))
	}
	result, err := c.dispatch(ctx, executor.OpViewCheckpointDiff, checkpointIDPayload{CheckpointID: checkpointID})
	if err != nil {
		return nil, c.failLocked("viewCheckpointDiff", err)
	}
	return result, nil
}

// ResolveConflict applies a manual resolution. The conflict moves to
// resolving immediately, the command is dispatched fire-and-forget, and the
// final resolved/failed status arrives on the executor event stream. A
// dispatch failure finalizes to failed, never back to pending.
func (c *Coordinator) ResolveConflict(ctx context.Context, conflictID, resolution string) error {
	return c.conflictIntent(ctx, executor.OpResolveConflict, "resolveConflict", conflictID, resolution)
}

// RequestAIResolution asks an agent to resolve the conflict, with the same
// optimistic lifecycle as ResolveConflict.
func (c *Coordinator) RequestAIResolution(ctx context.Context, conflictID string) error {
	return c.conflictIntent(ctx, executor.OpRequestAIResolution, "requestAIResolution", conflictID, "")
}

func (c *Coordinator) conflictIntent(ctx context.Context, op executor.Operation, operation, conflictID, resolution string) error {
	c.mu.Lock()

	if _, ok := c.conflicts.Get(conflictID); !ok {
		defer c.mu.Unlock()
		return c.failLocked(operation, fmt.Errorf("conflict %s: %w", conflictID, store.ErrNotFound))
	}
	if err := c.conflicts.SetStatus(conflictID, models.ConflictStatusResolving); err != nil {
		defer c.mu.Unlock()
		return c.failLocked(operation, err)
	}
	c.intentMetrics.RecordConflictResolving(ctx, conflictID)
	c.broadcastLocked(nil)
	c.mu.Unlock()

	// Fire-and-forget: the round-trip happens off the session mutex so other
	// intents keep flowing while the executor works.
	go func() {
		dispatchCtx, cancel := context.WithTimeout(context.Background(), c.dispatchTimeout)
		defer cancel()

		payload := conflictPayload{ConflictID: conflictID, Resolution: resolution}
		if _, err := c.dispatch(dispatchCtx, op, payload); err != nil {
			log.Printf("ERROR: %s dispatch for conflict %s failed: %v", operation, conflictID, err)
			c.finalizeConflict(dispatchCtx, conflictID, models.ConflictStatusFailed, &models.ErrorNotice{
				Code:      classify(err),
				Operation: operation,
				Message:   err.Error(),
			})
		}
	}()
	return nil
}

// finalizeConflict moves a conflict to its terminal status. Transition table
// violations (double finalization, unknown id) are logged and dropped.
func (c *Coordinator) finalizeConflict(ctx context.Context, conflictID string, status models.ConflictStatus, notice *models.ErrorNotice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conflicts.SetStatus(conflictID, status); err != nil {
		log.Printf("WARN: dropping conflict finalization %s -> %s: %v", conflictID, status, err)
		return
	}
	c.intentMetrics.RecordConflictFinalized(ctx, conflictID, string(status))
	c.broadcastLocked(notice)
}

// Reset clears the change groups, annotations, conflicts, checkpoints and
// alternatives after a confirmed executor round-trip. Environment files and
// the agent roster are explicitly preserved.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.dispatch(ctx, executor.OpResetStorage, nil); err != nil {
		return c.failLocked("resetStorage", err)
	}
	c.groups.Clear()
	c.annotations.Clear()
	c.conflicts.Clear()
	c.checkpoints.Clear()
	c.alternatives = nil
	c.broadcastLocked(nil)
	return nil
}

// dispatch sends one command to the executor under the per-dispatch timeout
// and records intent metrics. Callers must treat any error as "nothing was
// applied".
func (c *Coordinator) dispatch(ctx context.Context, op executor.Operation, payload interface{}) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.dispatchTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "coordinator.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("intent.operation", string(op)))

	start := time.Now()
	c.intentMetrics.RecordIntentDispatched(ctx, string(op))

	result, err := c.exec.Execute(ctx, op, payload)
	if err != nil {
		span.RecordError(err)
		c.intentMetrics.RecordIntentFailed(ctx, string(op), models.ErrCodeExecutorFailure, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrExecutorFailure, err)
	}
	c.intentMetrics.RecordIntentConfirmed(ctx, string(op), time.Since(start))
	return result, nil
}

// failLocked pushes a snapshot carrying a transient error notice and returns
// the error unchanged. Stores are untouched when this fires.
func (c *Coordinator) failLocked(operation string, err error) error {
	c.broadcastLocked(&models.ErrorNotice{
		Code:      classify(err),
		Operation: operation,
		Message:   err.Error(),
	})
	return err
}

// snapshotLocked assembles the full outbound state. Store List() methods
// return copies, so subscribers can never reach live state.
func (c *Coordinator) snapshotLocked(notice *models.ErrorNotice) models.StateSnapshot {
	return models.StateSnapshot{
		ChangeGroups:               c.groups.List(),
		AlternativeImplementations: append([]models.AlternativeImplementation(nil), c.alternatives...),
		Conflicts:                  c.conflicts.List(),
		Annotations:                c.annotations.List(),
		Checkpoints:                c.checkpoints.List(),
		IsResolvingConflicts:       c.conflicts.AnyResolving(),
		CurrentUser:                c.currentUser,
		Agents:                     append([]models.AgentInfo(nil), c.agents...),
		Error:                      notice,
	}
}

func (c *Coordinator) broadcastLocked(notice *models.ErrorNotice) {
	if c.closed {
		return
	}
	snapshot := c.snapshotLocked(notice)
	for ch := range c.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Subscriber is not keeping up; drop this frame.
		}
	}
}

// classify maps an intent error to the snapshot error taxonomy.
func classify(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.ErrCodeNotFound
	case errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicatePath):
		return models.ErrCodeInvariantViolation
	case errors.Is(err, ErrExecutorFailure):
		return models.ErrCodeExecutorFailure
	default:
		return models.ErrCodeInternalError
	}
}

// identifiedAnnotation merges the executor-assigned identity into a draft
// annotation. An id-less result is a protocol violation.
func identifiedAnnotation(draft models.Annotation, result json.RawMessage) (*models.Annotation, error) {
	var identity struct {
		ID        string    `json:"id"`
		Timestamp time.Time `json:"timestamp"`
	}
	if len(result) > 0 {
		if err := json.Unmarshal(result, &identity); err != nil {
			return nil, fmt.Errorf("%w: malformed annotation result: %v", ErrExecutorFailure, err)
		}
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("%w: executor returned no annotation id", ErrExecutorFailure)
	}
	node := draft
	node.ID = identity.ID
	if !identity.Timestamp.IsZero() {
		node.Timestamp = identity.Timestamp
	}
	node.Replies = nil
	return &node, nil
}

// Command payloads. These use snake-case-free camelCase keys because they
// describe review entities, matching the snapshot contract.
type groupPayload struct {
	GroupID string `json:"groupId"`
}

type filePayload struct {
	GroupID string        `json:"groupId"`
	Path    string        `json:"path"`
	Bucket  models.Bucket `json:"bucket,omitempty"`
}

type contentPayload struct {
	GroupID string `json:"groupId"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

type implementationPayload struct {
	ImplementationID string `json:"implementationId"`
}

type annotationPayload struct {
	Annotation models.Annotation `json:"annotation"`
}

type annotationEditPayload struct {
	AnnotationID string `json:"annotationId"`
	Content      string `json:"content"`
}

type annotationIDPayload struct {
	AnnotationID string `json:"annotationId"`
}

type annotationReplyPayload struct {
	ParentID   string            `json:"parentId"`
	Annotation models.Annotation `json:"annotation"`
}

type checkpointCreatePayload struct {
	Description string `json:"description"`
}

type checkpointIDPayload struct {
	CheckpointID string `json:"checkpointId"`
}

type conflictPayload struct {
	ConflictID string `json:"conflictId"`
	Resolution string `json:"resolution,omitempty"`
}
