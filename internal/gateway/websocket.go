package gateway

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/review"
)

var wsTracer = otel.Tracer("state-stream")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking for production
		return true
	},
}

const writeTimeout = 10 * time.Second

// StateStream streams full state snapshots to one observer.
type StateStream struct {
	coordinator *review.Coordinator
	tracer      trace.Tracer
}

// NewStateStream creates a new snapshot stream handler
func NewStateStream(coordinator *review.Coordinator) *StateStream {
	return &StateStream{
		coordinator: coordinator,
		tracer:      wsTracer,
	}
}

// Stream handles WebSocket /api/ws/state
// @Summary Stream review state snapshots
// @Description WebSocket endpoint delivering the current snapshot on connect and a full snapshot after every confirmed mutation
// @Tags state
// @Param Authorization header string true "Bearer token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /ws/state [get]
func (s *StateStream) Stream(c *gin.Context) {
	_, span := s.tracer.Start(c.Request.Context(), "state_stream.stream")
	defer span.End()

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.(string)))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"WebSocket upgrade failed","error":"%v"}`, err)
		return
	}
	defer conn.Close()

	snapshots, cancel := s.coordinator.Subscribe()
	defer cancel()

	log.Printf(`{"level":"info","message":"State stream opened","user_id":"%s"}`, userID.(string))

	// Drain client frames so close and ping/pong handling work; inbound
	// payloads are not part of the contract and are discarded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(snapshot); err != nil {
				log.Printf(`{"level":"warn","message":"State stream write failed","error":"%v"}`, err)
				return
			}
		case <-done:
			log.Printf(`{"level":"info","message":"State stream closed by client","user_id":"%s"}`, userID.(string))
			return
		}
	}
}
