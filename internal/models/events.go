package models

// Executor push event types. These arrive on the executor event stream and
// drive the apply-optimistically-then-reconcile paths of the coordinator.
const (
	EventTypeConflictResolved         = "conflict.resolved"
	EventTypeConflictResolutionFailed = "conflict.resolution_failed"
	EventTypeConflictDetected         = "conflict.detected"
	EventTypeChangesProposed          = "changes.proposed"
	EventTypeAlternativesProposed     = "alternatives.proposed"
	EventTypeAgentsUpdated            = "agents.updated"
)

// ConflictResolvedPayload finalizes an in-flight conflict resolution.
type ConflictResolvedPayload struct {
	ConflictID string `json:"conflictId"`
	Resolution string `json:"resolution,omitempty"`
}

// ConflictResolutionFailedPayload reports a failed conflict resolution.
type ConflictResolutionFailedPayload struct {
	ConflictID string `json:"conflictId"`
	Reason     string `json:"reason,omitempty"`
}

// ConflictDetectedPayload carries a newly detected conflict. Its status is
// forced to pending on registration regardless of what the executor sent.
type ConflictDetectedPayload struct {
	Conflict Conflict `json:"conflict"`
}

// ChangesProposedPayload carries an agent proposal entering review.
type ChangesProposedPayload struct {
	Group ChangeGroup `json:"group"`
}

// AlternativesProposedPayload carries a fresh set of alternative
// implementations, replacing the current list.
type AlternativesProposedPayload struct {
	Alternatives []AlternativeImplementation `json:"alternatives"`
}

// AgentsUpdatedPayload replaces the session's agent roster.
type AgentsUpdatedPayload struct {
	Agents []AgentInfo `json:"agents"`
}
