package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/envfiles"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/gateway"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/review"
	"github.com/bizmatters/agent-builder/review-orchestrator/tests/helpers"
)

// Environment wires the full service against a fake executor: the real HTTP
// client, the coordinator with its event pump running, and the gin router.
type Environment struct {
	Router      *gin.Engine
	Server      *httptest.Server
	Executor    *helpers.FakeExecutor
	Coordinator *review.Coordinator
	Token       string
	EnvDir      string
}

// SetupReviewEnvironment builds the complete stack for one test. Everything
// is torn down via t.Cleanup.
func SetupReviewEnvironment(t *testing.T) *Environment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fakeExec := helpers.NewFakeExecutor(t)
	executorClient := executor.NewClient(fakeExec.URL())
	require.True(t, executorClient.IsHealthy(context.Background()))

	jwtManager, err := auth.NewJWTManager("integration-test-secret")
	require.NoError(t, err)

	reviewer := helpers.DefaultTestReviewer
	hash, err := bcrypt.GenerateFromPassword([]byte(reviewer.Password), bcrypt.MinCost)
	require.NoError(t, err)
	usersPath := filepath.Join(t.TempDir(), "users.yaml")
	usersYAML := "users:\n" +
		"  - id: " + reviewer.ID + "\n" +
		"    name: " + reviewer.Name + "\n" +
		"    email: " + reviewer.Email + "\n" +
		"    password_hash: " + string(hash) + "\n"
	require.NoError(t, os.WriteFile(usersPath, []byte(usersYAML), 0o600))
	users, err := auth.LoadUserRegistry(usersPath)
	require.NoError(t, err)

	envDir := t.TempDir()
	envStore, err := envfiles.NewStore(envDir)
	require.NoError(t, err)

	intentMetrics, err := metrics.NewIntentMetrics()
	require.NoError(t, err)

	coordinator := review.NewCoordinator(executorClient, intentMetrics, models.Author{}, 5*time.Second)

	runCtx, stopRun := context.WithCancel(context.Background())
	go coordinator.Run(runCtx)
	t.Cleanup(func() {
		stopRun()
		coordinator.Close()
	})

	// The event pump must be attached before any test pushes events.
	fakeExec.WaitForStream(t, 2*time.Second)

	handler := gateway.NewHandler(coordinator, jwtManager, users, envStore, time.Hour)
	stream := gateway.NewStateStream(coordinator)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", handler.Login)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(jwtManager), auth.RequireRole("reviewer"))
	protected.GET("/state", handler.GetState)
	protected.POST("/reset", handler.Reset)
	protected.POST("/changes", handler.ProposeChanges)
	protected.POST("/changes/:groupId/accept", handler.AcceptGroup)
	protected.POST("/changes/:groupId/reject", handler.RejectGroup)
	protected.POST("/changes/:groupId/files/accept", handler.AcceptFile)
	protected.POST("/changes/:groupId/files/reject", handler.RejectFile)
	protected.POST("/changes/:groupId/files/modify", handler.ModifyChange)
	protected.POST("/changes/:groupId/files/explain", handler.RequestExplanation)
	protected.POST("/alternatives", handler.ProposeAlternatives)
	protected.POST("/alternatives/:implementationId/select", handler.SelectImplementation)
	protected.POST("/conflicts", handler.ReportConflict)
	protected.POST("/conflicts/:conflictId/resolve", handler.ResolveConflict)
	protected.POST("/conflicts/:conflictId/ai-resolve", handler.RequestAIResolution)
	protected.POST("/annotations", handler.AddAnnotation)
	protected.PUT("/annotations/:annotationId", handler.EditAnnotation)
	protected.DELETE("/annotations/:annotationId", handler.DeleteAnnotation)
	protected.POST("/annotations/:annotationId/replies", handler.ReplyToAnnotation)
	protected.POST("/checkpoints", handler.CreateCheckpoint)
	protected.POST("/checkpoints/:checkpointId/restore", handler.RestoreCheckpoint)
	protected.DELETE("/checkpoints/:checkpointId", handler.DeleteCheckpoint)
	protected.GET("/checkpoints/:checkpointId/diff", handler.ViewCheckpointDiff)
	protected.GET("/envfiles", handler.ListEnvFiles)
	protected.GET("/envfiles/:name", handler.GetEnvFile)
	protected.PUT("/envfiles/:name", handler.PutEnvFile)
	protected.GET("/ws/state", stream.Stream)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &Environment{
		Router:      router,
		Server:      server,
		Executor:    fakeExec,
		Coordinator: coordinator,
		EnvDir:      envDir,
	}
	env.Token = env.login(t, reviewer.Email, reviewer.Password)
	return env
}

func (e *Environment) login(t *testing.T, email, password string) string {
	t.Helper()
	body, err := json.Marshal(helpers.CreateTestLoginRequest(email, password))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	e.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

// Do performs an authenticated request against the router.
func (e *Environment) Do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.Token)
	e.Router.ServeHTTP(w, req)
	return w
}

// Snapshot fetches the current review state.
func (e *Environment) Snapshot(t *testing.T) models.StateSnapshot {
	t.Helper()
	w := e.Do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap models.StateSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

// DialState opens an authenticated observer connection to the state stream.
func (e *Environment) DialState(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.Server.URL, "http") + "/api/ws/state"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+e.Token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// ReadSnapshot reads one snapshot frame from an observer connection.
func ReadSnapshot(t *testing.T, conn *websocket.Conn, timeout time.Duration) models.StateSnapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))

	var snap models.StateSnapshot
	require.NoError(t, conn.ReadJSON(&snap))
	return snap
}
