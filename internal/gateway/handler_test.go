package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/envfiles"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/review"
)

// okExecutor confirms every command; individual operations can be failed.
type okExecutor struct {
	mu      sync.Mutex
	results map[executor.Operation]json.RawMessage
	fail    map[executor.Operation]error
}

func newOKExecutor() *okExecutor {
	return &okExecutor{
		results: make(map[executor.Operation]json.RawMessage),
		fail:    make(map[executor.Operation]error),
	}
}

func (e *okExecutor) Execute(ctx context.Context, op executor.Operation, payload interface{}) (json.RawMessage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.fail[op]; ok {
		return nil, err
	}
	if result, ok := e.results[op]; ok {
		return result, nil
	}
	return json.RawMessage(`{}`), nil
}

func (e *okExecutor) StreamEvents(ctx context.Context) (*websocket.Conn, error) {
	return nil, errors.New("no event stream")
}

func (e *okExecutor) IsHealthy(ctx context.Context) bool { return true }

type testEnv struct {
	router *gin.Engine
	exec   *okExecutor
	token  string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager, err := auth.NewJWTManager("test-secret")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	usersPath := filepath.Join(t.TempDir(), "users.yaml")
	usersYAML := "users:\n  - id: u1\n    name: Reviewer\n    email: reviewer@example.com\n    password_hash: " + string(hash) + "\n"
	require.NoError(t, os.WriteFile(usersPath, []byte(usersYAML), 0o600))
	users, err := auth.LoadUserRegistry(usersPath)
	require.NoError(t, err)

	envStore, err := envfiles.NewStore(t.TempDir())
	require.NoError(t, err)

	im, err := metrics.NewIntentMetrics()
	require.NoError(t, err)

	exec := newOKExecutor()
	coordinator := review.NewCoordinator(exec, im, models.Author{}, time.Second)
	t.Cleanup(coordinator.Close)

	handler := NewHandler(coordinator, jwtManager, users, envStore, time.Hour)
	stream := NewStateStream(coordinator)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", handler.Login)

	protected := api.Group("")
	protected.Use(auth.RequireAuth(jwtManager), auth.RequireRole("reviewer"))
	protected.GET("/state", handler.GetState)
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
	protected.POST("/reset", handler.Reset)
	protected.GET("/envfiles", handler.ListEnvFiles)
	protected.GET("/envfiles/:name", handler.GetEnvFile)
	protected.PUT("/envfiles/:name", handler.PutEnvFile)
	protected.GET("/ws/state", stream.Stream)

	env := &testEnv{router: router, exec: exec}

	// Log in once so protected requests have a token.
	w := httptest.NewRecorder()
	body := `{"email":"reviewer@example.com","password":"s3cret"}`
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var login models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	env.token = login.Token
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
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
	req.Header.Set("Authorization", "Bearer "+e.token)
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) snapshot(t *testing.T) models.StateSnapshot {
	t.Helper()
	w := e.do(t, "GET", "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap models.StateSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"reviewer@example.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login binds session user", func(t *testing.T) {
		snap := env.snapshot(t)
		assert.Equal(t, "u1", snap.CurrentUser.ID)
		assert.Equal(t, models.AuthorTypeHuman, snap.CurrentUser.Type)
	})
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/state", nil)
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangeGroupFlow(t *testing.T) {
	env := setupTestEnv(t)

	group := models.ChangeGroup{
		ID:    "g1",
		Title: "Refactor handlers",
		Files: models.FileBuckets{
			Modify: []models.FileChange{{Path: "a.ts", Content: "x"}},
			Delete: []string{"old.ts"},
		},
	}
	w := env.do(t, "POST", "/api/changes", group)
	require.Equal(t, http.StatusAccepted, w.Code)

	// Accept one of the two entries; the group survives.
	w = env.do(t, "POST", "/api/changes/g1/files/accept", FileIntentRequest{Path: "a.ts", Bucket: models.BucketModify})
	require.Equal(t, http.StatusOK, w.Code)
	snap := env.snapshot(t)
	require.Len(t, snap.ChangeGroups, 1)

	// Accepting the last entry cascades the group away.
	w = env.do(t, "POST", "/api/changes/g1/files/accept", FileIntentRequest{Path: "old.ts", Bucket: models.BucketDelete})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.snapshot(t).ChangeGroups)

	// Unknown group is a 404 with the shared error body.
	w = env.do(t, "POST", "/api/changes/g1/accept", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, models.ErrCodeNotFound, errResp.Code)
}

func TestExecutorFailureMapsToBadGateway(t *testing.T) {
	env := setupTestEnv(t)

	env.do(t, "POST", "/api/changes", models.ChangeGroup{
		ID:    "g1",
		Files: models.FileBuckets{Modify: []models.FileChange{{Path: "a.ts", Content: "x"}}},
	})

	env.exec.fail[executor.OpAcceptChangeGroup] = errors.New("connection refused")
	w := env.do(t, "POST", "/api/changes/g1/accept", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// State untouched.
	assert.Len(t, env.snapshot(t).ChangeGroups, 1)
}

func TestAnnotationRoutes(t *testing.T) {
	env := setupTestEnv(t)

	env.exec.results[executor.OpAddAnnotation] = json.RawMessage(`{"id":"r1"}`)
	w := env.do(t, "POST", "/api/annotations", AnnotationRequest{Content: "looks wrong", FilePath: "a.ts"})
	require.Equal(t, http.StatusCreated, w.Code)

	snap := env.snapshot(t)
	require.Len(t, snap.Annotations, 1)
	// The annotation is attributed to the logged-in reviewer.
	assert.Equal(t, "u1", snap.Annotations[0].Author.ID)

	env.exec.results[executor.OpReplyToAnnotation] = json.RawMessage(`{"id":"c1"}`)
	w = env.do(t, "POST", "/api/annotations/r1/replies", AnnotationRequest{Content: "agreed"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "PUT", "/api/annotations/c1", EditAnnotationRequest{Content: "actually fine"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "DELETE", "/api/annotations/r1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.snapshot(t).Annotations)
}

func TestCheckpointRoutes(t *testing.T) {
	env := setupTestEnv(t)

	env.exec.results[executor.OpCreateCheckpoint] = json.RawMessage(`{"id":"cp1","description":"before"}`)
	w := env.do(t, "POST", "/api/checkpoints", CreateCheckpointRequest{Description: "before"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/api/checkpoints/cp1/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.snapshot(t).Checkpoints, 1)

	env.exec.results[executor.OpViewCheckpointDiff] = json.RawMessage(`{"files":["a.ts"]}`)
	w = env.do(t, "GET", "/api/checkpoints/cp1/diff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"files":["a.ts"]}`, w.Body.String())

	w = env.do(t, "DELETE", "/api/checkpoints/cp1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.snapshot(t).Checkpoints)
}

func TestConflictRoutes(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "POST", "/api/conflicts", models.Conflict{ID: "cf1", Type: models.ConflictTypeMerge, Files: []string{"a.ts"}})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, "POST", "/api/conflicts/cf1/resolve", ResolveConflictRequest{Resolution: "keep mine"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, env.snapshot(t).IsResolvingConflicts)

	// A second resolve on a resolving conflict is a lifecycle violation.
	w = env.do(t, "POST", "/api/conflicts/cf1/resolve", ResolveConflictRequest{Resolution: "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEnvFileRoutes(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "PUT", "/api/envfiles/local.env", map[string]string{"PORT": "8080"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/envfiles/local.env", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"PORT":"8080"}`, w.Body.String())

	w = env.do(t, "GET", "/api/envfiles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/envfiles/missing.env", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "PUT", "/api/envfiles/notes.txt", map[string]string{"X": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetPreservesEnvFiles(t *testing.T) {
	env := setupTestEnv(t)

	env.do(t, "POST", "/api/changes", models.ChangeGroup{
		ID:    "g1",
		Files: models.FileBuckets{Modify: []models.FileChange{{Path: "a.ts", Content: "x"}}},
	})
	env.do(t, "PUT", "/api/envfiles/local.env", map[string]string{"KEY": "kept"})

	w := env.do(t, "POST", "/api/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, env.snapshot(t).ChangeGroups)

	w = env.do(t, "GET", "/api/envfiles/local.env", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"KEY":"kept"}`, w.Body.String())
}

func TestStateStream(t *testing.T) {
	env := setupTestEnv(t)

	server := httptest.NewServer(env.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/state"
	header := http.Header{"Authorization": []string{"Bearer " + env.token}}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	// Snapshot arrives immediately on connect.
	var snap models.StateSnapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Empty(t, snap.ChangeGroups)

	// A confirmed mutation pushes a fresh snapshot.
	w := env.do(t, "POST", "/api/changes", models.ChangeGroup{
		ID:    "g1",
		Files: models.FileBuckets{Create: []models.FileChange{{Path: "new.ts", Content: "x"}}},
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&snap))
	require.Len(t, snap.ChangeGroups, 1)
	assert.Equal(t, "g1", snap.ChangeGroups[0].ID)
}
