package store

import (
	"fmt"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// validConflictTransitions is the conflict lifecycle table. resolved and
// failed are terminal; resolving is only reachable from pending and must
// leave to resolved or failed, never back to pending.
var validConflictTransitions = map[models.ConflictStatus][]models.ConflictStatus{
	models.ConflictStatusPending:   {models.ConflictStatusResolving},
	models.ConflictStatusResolving: {models.ConflictStatusResolved, models.ConflictStatusFailed},
	models.ConflictStatusResolved:  {},
	models.ConflictStatusFailed:    {},
}

// ConflictRegistry owns the detected conflicts between proposals and their
// resolution lifecycle.
type ConflictRegistry struct {
	conflicts []*models.Conflict
}

// NewConflictRegistry creates an empty conflict registry.
func NewConflictRegistry() *ConflictRegistry {
	return &ConflictRegistry{}
}

// Put registers a detected conflict. Whatever status the reporter supplied,
// a new conflict always starts pending.
func (r *ConflictRegistry) Put(c models.Conflict) error {
	if c.ID == "" {
		return fmt.Errorf("conflict id is required")
	}
	if _, ok := r.index(c.ID); ok {
		return fmt.Errorf("conflict %s: %w", c.ID, ErrAlreadyExists)
	}
	dup := c
	dup.Status = models.ConflictStatusPending
	r.conflicts = append(r.conflicts, &dup)
	return nil
}

// Get returns the conflict with the given id.
func (r *ConflictRegistry) Get(id string) (models.Conflict, bool) {
	i, ok := r.index(id)
	if !ok {
		return models.Conflict{}, false
	}
	return *r.conflicts[i], true
}

// SetStatus advances a conflict's lifecycle, enforcing the transition table.
func (r *ConflictRegistry) SetStatus(id string, status models.ConflictStatus) error {
	i, ok := r.index(id)
	if !ok {
		return fmt.Errorf("conflict %s: %w", id, ErrNotFound)
	}
	current := r.conflicts[i].Status
	allowed, known := validConflictTransitions[current]
	if !known {
		return fmt.Errorf("conflict %s in unknown status %q: %w", id, current, ErrInvalidTransition)
	}
	for _, next := range allowed {
		if next == status {
			r.conflicts[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("conflict %s: %s -> %s: %w", id, current, status, ErrInvalidTransition)
}

// AnyResolving reports whether at least one conflict is mid-resolution.
// This backs the snapshot's isResolvingConflicts flag.
func (r *ConflictRegistry) AnyResolving() bool {
	for _, c := range r.conflicts {
		if c.Status == models.ConflictStatusResolving {
			return true
		}
	}
	return false
}

// List returns copies of all conflicts in registration order.
func (r *ConflictRegistry) List() []models.Conflict {
	out := make([]models.Conflict, 0, len(r.conflicts))
	for _, c := range r.conflicts {
		dup := *c
		dup.Files = append([]string(nil), c.Files...)
		out = append(out, dup)
	}
	return out
}

// Len returns the number of tracked conflicts.
func (r *ConflictRegistry) Len() int {
	return len(r.conflicts)
}

// Clear drops every conflict (session reset).
func (r *ConflictRegistry) Clear() {
	r.conflicts = nil
}

func (r *ConflictRegistry) index(id string) (int, bool) {
	for i, c := range r.conflicts {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}
