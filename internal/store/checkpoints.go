package store

import (
	"fmt"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// CheckpointLog owns the append-mostly sequence of named snapshots. Only
// Append and Delete mutate it; restore and diff are executor-side effects
// that leave the log untouched.
type CheckpointLog struct {
	checkpoints []models.Checkpoint
}

// NewCheckpointLog creates an empty checkpoint log.
func NewCheckpointLog() *CheckpointLog {
	return &CheckpointLog{}
}

// Append adds a checkpoint at the end of the log.
func (l *CheckpointLog) Append(cp models.Checkpoint) error {
	if cp.ID == "" {
		return fmt.Errorf("checkpoint id is required")
	}
	if _, ok := l.index(cp.ID); ok {
		return fmt.Errorf("checkpoint %s: %w", cp.ID, ErrAlreadyExists)
	}
	l.checkpoints = append(l.checkpoints, cp)
	return nil
}

// Get returns the checkpoint with the given id.
func (l *CheckpointLog) Get(id string) (models.Checkpoint, bool) {
	i, ok := l.index(id)
	if !ok {
		return models.Checkpoint{}, false
	}
	return l.checkpoints[i], true
}

// Delete removes exactly one checkpoint. No cascading effect on any other
// entry.
func (l *CheckpointLog) Delete(id string) error {
	i, ok := l.index(id)
	if !ok {
		return fmt.Errorf("checkpoint %s: %w", id, ErrNotFound)
	}
	l.checkpoints = append(l.checkpoints[:i], l.checkpoints[i+1:]...)
	return nil
}

// List returns a copy of the log in append order.
func (l *CheckpointLog) List() []models.Checkpoint {
	return append([]models.Checkpoint(nil), l.checkpoints...)
}

// Len returns the number of checkpoints.
func (l *CheckpointLog) Len() int {
	return len(l.checkpoints)
}

// Clear drops every checkpoint (session reset).
func (l *CheckpointLog) Clear() {
	l.checkpoints = nil
}

func (l *CheckpointLog) index(id string) (int, bool) {
	for i, cp := range l.checkpoints {
		if cp.ID == id {
			return i, true
		}
	}
	return 0, false
}
