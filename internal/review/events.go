package review

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// reconnectDelay is the pause between attempts to re-establish the executor
// event stream after a drop.
const reconnectDelay = 5 * time.Second

// Run pumps the executor event stream into the coordinator until ctx is
// cancelled, reconnecting after stream failures. Conflict finalizations,
// detected conflicts and incoming proposals all arrive here.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.exec.StreamEvents(ctx)
		if err != nil {
			log.Printf("ERROR: executor event stream unavailable: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
				continue
			}
		}

		// Drop the connection when ctx is cancelled so ReadJSON unblocks.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		for {
			var ev executor.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					log.Printf("WARN: executor event stream closed: %v", err)
				}
				break
			}
			c.HandleExecutorEvent(ctx, ev)
		}
		close(done)
		conn.Close()
	}
}

// HandleExecutorEvent applies one pushed executor event. Unknown event types
// and malformed payloads are logged and dropped; a bad event must never take
// the session down.
func (c *Coordinator) HandleExecutorEvent(ctx context.Context, ev executor.Event) {
	switch ev.EventType {
	case models.EventTypeConflictResolved:
		var payload models.ConflictResolvedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			log.Printf("WARN: malformed %s event: %v", ev.EventType, err)
			return
		}
		c.finalizeConflict(ctx, payload.ConflictID, models.ConflictStatusResolved, nil)

	case models.EventTypeConflictResolutionFailed:
		var payload models.ConflictResolutionFailedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			log.Printf("WARN: malformed %s event: %v", ev.EventType, err)
			return
		}
		c.finalizeConflict(ctx, payload.ConflictID, models.ConflictStatusFailed, &models.ErrorNotice{
			Code:      models.ErrCodeExecutorFailure,
			Operation: "resolveConflict",
			Message:   payload.Reason,
		})

	case models.EventTypeConflictDetected:
		var payload models.ConflictDetectedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			log.Printf("WARN: malformed %s event: %v", ev.EventType, err)
			return
		}
		if err := c.ReportConflict(ctx, payload.Conflict); err != nil {
			log.Printf("WARN: dropping detected conflict %s: %v", payload.Conflict.ID, err)
		}

	case models.EventTypeChangesProposed:
		var payload models.ChangesProposedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			log.Printf("WARN: malformed %s event: %v", ev.EventType, err)
			return
		}
		if err := c.ProposeChanges(ctx, payload.Group); err != nil {
			log.Printf("WARN: dropping proposed group %s: %v", payload.Group.ID, err)
		}

	case models.EventTypeAlternativesProposed:
		var payload models.AlternativesProposedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			log.Printf("WARN: malformed %s event: %v", ev.EventType, err)
			return
		}
		c.ProposeAlternatives(ctx, payload.Alternatives)

	case models.EventTypeAgentsUpdated:
		var payload models.AgentsUpdatedPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			log.Printf("WARN: malformed %s event: %v", ev.EventType, err)
			return
		}
		c.mu.Lock()
		c.agents = append([]models.AgentInfo(nil), payload.Agents...)
		c.broadcastLocked(nil)
		c.mu.Unlock()

	default:
		log.Printf("WARN: unknown executor event type %q", ev.EventType)
	}
}
