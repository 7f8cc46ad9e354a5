package gateway

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/envfiles"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/review"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/store"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	coordinator *review.Coordinator
	jwtManager  *auth.JWTManager
	users       *auth.UserRegistry
	envFiles    *envfiles.Store
	tokenTTL    time.Duration
}

// NewHandler creates a new gateway handler
func NewHandler(coordinator *review.Coordinator, jwtManager *auth.JWTManager, users *auth.UserRegistry, envFiles *envfiles.Store, tokenTTL time.Duration) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Handler{
		coordinator: coordinator,
		jwtManager:  jwtManager,
		users:       users,
		envFiles:    envFiles,
		tokenTTL:    tokenTTL,
	}
}

// respondError maps intent errors onto HTTP statuses and the shared error
// body. The coordinator has already pushed the error notice to subscribers.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := models.ErrCodeInternalError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		code = models.ErrCodeNotFound
	case errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicatePath):
		status = http.StatusConflict
		code = models.ErrCodeInvariantViolation
	case errors.Is(err, review.ErrExecutorFailure):
		status = http.StatusBadGateway
		code = models.ErrCodeExecutorFailure
	}
	c.JSON(status, models.ErrorResponse{Error: err.Error(), Code: code})
}

// Login godoc
// @Summary User login
// @Description Authenticate reviewer and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		log.Printf(`{"level":"warn","message":"Login failed","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		user.ID,
		user.Email,
		[]string{"reviewer"},
		h.tokenTTL,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// The session snapshot carries the authenticated reviewer from now on.
	h.coordinator.SetCurrentUser(user.ToAuthor())

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.tokenTTL),
		User:      user.ToUserInfo(),
	})
}

// GetState godoc
// @Summary Current review state
// @Description Full snapshot of the review session
// @Tags state
// @Produce json
// @Success 200 {object} models.StateSnapshot
// @Security BearerAuth
// @Router /state [get]
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.coordinator.Snapshot())
}

// ProposeChanges godoc
// @Summary Propose a change group
// @Description Register an agent proposal for review
// @Tags changes
// @Accept json
// @Produce json
// @Param request body models.ChangeGroup true "Proposed change group"
// @Success 202 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes [post]
func (h *Handler) ProposeChanges(c *gin.Context) {
	var group models.ChangeGroup
	if err := c.ShouldBindJSON(&group); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.ProposeChanges(c.Request.Context(), group); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "proposed"})
}

// AcceptGroup godoc
// @Summary Accept a change group
// @Tags changes
// @Produce json
// @Param groupId path string true "Change group ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes/{groupId}/accept [post]
func (h *Handler) AcceptGroup(c *gin.Context) {
	if err := h.coordinator.AcceptGroup(c.Request.Context(), c.Param("groupId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// RejectGroup godoc
// @Summary Reject a change group
// @Tags changes
// @Produce json
// @Param groupId path string true "Change group ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes/{groupId}/reject [post]
func (h *Handler) RejectGroup(c *gin.Context) {
	if err := h.coordinator.RejectGroup(c.Request.Context(), c.Param("groupId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// FileIntentRequest names one file in one bucket of a change group
type FileIntentRequest struct {
	Path   string        `json:"path" binding:"required"`
	Bucket models.Bucket `json:"bucket" binding:"required"`
}

// AcceptFile godoc
// @Summary Accept one file change
// @Tags changes
// @Accept json
// @Produce json
// @Param groupId path string true "Change group ID"
// @Param request body FileIntentRequest true "File and bucket"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes/{groupId}/files/accept [post]
func (h *Handler) AcceptFile(c *gin.Context) {
	var req FileIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.AcceptFile(c.Request.Context(), c.Param("groupId"), req.Path, req.Bucket); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// RejectFile godoc
// @Summary Reject one file change
// @Tags changes
// @Accept json
// @Produce json
// @Param groupId path string true "Change group ID"
// @Param request body FileIntentRequest true "File and bucket"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes/{groupId}/files/reject [post]
func (h *Handler) RejectFile(c *gin.Context) {
	var req FileIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.RejectFile(c.Request.Context(), c.Param("groupId"), req.Path, req.Bucket); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// ModifyChangeRequest carries edited content for a pending change
type ModifyChangeRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ModifyChange godoc
// @Summary Edit a pending change
// @Tags changes
// @Accept json
// @Produce json
// @Param groupId path string true "Change group ID"
// @Param request body ModifyChangeRequest true "Path and new content"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes/{groupId}/files/modify [post]
func (h *Handler) ModifyChange(c *gin.Context) {
	var req ModifyChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.ModifyChange(c.Request.Context(), c.Param("groupId"), req.Path, req.Content); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "modified"})
}

// ExplainRequest names one pending change to explain
type ExplainRequest struct {
	Path string `json:"path" binding:"required"`
}

// RequestExplanation godoc
// @Summary Request an explanation for a pending change
// @Tags changes
// @Accept json
// @Produce json
// @Param groupId path string true "Change group ID"
// @Param request body ExplainRequest true "Path"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /changes/{groupId}/files/explain [post]
func (h *Handler) RequestExplanation(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.RequestExplanation(c.Request.Context(), c.Param("groupId"), req.Path); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "explained"})
}

// ProposeAlternativesRequest carries a replacement list of alternatives
type ProposeAlternativesRequest struct {
	Alternatives []models.AlternativeImplementation `json:"alternatives" binding:"required"`
}

// ProposeAlternatives godoc
// @Summary Propose alternative implementations
// @Tags alternatives
// @Accept json
// @Produce json
// @Param request body ProposeAlternativesRequest true "Alternatives"
// @Success 202 {object} map[string]string
// @Security BearerAuth
// @Router /alternatives [post]
func (h *Handler) ProposeAlternatives(c *gin.Context) {
	var req ProposeAlternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	h.coordinator.ProposeAlternatives(c.Request.Context(), req.Alternatives)
	c.JSON(http.StatusAccepted, gin.H{"status": "proposed"})
}

// SelectImplementation godoc
// @Summary Select an alternative implementation
// @Description Converts the selection into a change group and discards the list
// @Tags alternatives
// @Produce json
// @Param implementationId path string true "Alternative implementation ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /alternatives/{implementationId}/select [post]
func (h *Handler) SelectImplementation(c *gin.Context) {
	if err := h.coordinator.SelectImplementation(c.Request.Context(), c.Param("implementationId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "selected"})
}

// ReportConflict godoc
// @Summary Report a detected conflict
// @Tags conflicts
// @Accept json
// @Produce json
// @Param request body models.Conflict true "Conflict"
// @Success 202 {object} map[string]string
// @Security BearerAuth
// @Router /conflicts [post]
func (h *Handler) ReportConflict(c *gin.Context) {
	var conflict models.Conflict
	if err := c.ShouldBindJSON(&conflict); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.ReportConflict(c.Request.Context(), conflict); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reported"})
}

// ResolveConflictRequest carries the manual resolution text
type ResolveConflictRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// ResolveConflict godoc
// @Summary Apply a manual conflict resolution
// @Description Marks the conflict resolving; the outcome arrives asynchronously
// @Tags conflicts
// @Accept json
// @Produce json
// @Param conflictId path string true "Conflict ID"
// @Param request body ResolveConflictRequest true "Resolution"
// @Success 202 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /conflicts/{conflictId}/resolve [post]
func (h *Handler) ResolveConflict(c *gin.Context) {
	var req ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.ResolveConflict(c.Request.Context(), c.Param("conflictId"), req.Resolution); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "resolving"})
}

// RequestAIResolution godoc
// @Summary Ask an agent to resolve a conflict
// @Tags conflicts
// @Produce json
// @Param conflictId path string true "Conflict ID"
// @Success 202 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /conflicts/{conflictId}/ai-resolve [post]
func (h *Handler) RequestAIResolution(c *gin.Context) {
	if err := h.coordinator.RequestAIResolution(c.Request.Context(), c.Param("conflictId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "resolving"})
}

// AnnotationRequest is the draft body for a new annotation or reply. The
// author and identity are filled in server-side.
type AnnotationRequest struct {
	Content     string `json:"content" binding:"required"`
	FilePath    string `json:"filePath,omitempty"`
	LineStart   *int   `json:"lineStart,omitempty"`
	LineEnd     *int   `json:"lineEnd,omitempty"`
	CodeSnippet string `json:"codeSnippet,omitempty"`
}

func (h *Handler) annotationDraft(c *gin.Context, req AnnotationRequest) models.Annotation {
	author := models.Author{Type: models.AuthorTypeHuman}
	if userID, ok := c.Get("user_id"); ok {
		author.ID, _ = userID.(string)
	}
	if username, ok := c.Get("username"); ok {
		author.Name, _ = username.(string)
	}
	return models.Annotation{
		Content:     req.Content,
		Author:      author,
		FilePath:    req.FilePath,
		LineStart:   req.LineStart,
		LineEnd:     req.LineEnd,
		CodeSnippet: req.CodeSnippet,
	}
}

// AddAnnotation godoc
// @Summary Add a root annotation
// @Tags annotations
// @Accept json
// @Produce json
// @Param request body AnnotationRequest true "Annotation draft"
// @Success 201 {object} map[string]string
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /annotations [post]
func (h *Handler) AddAnnotation(c *gin.Context) {
	var req AnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.AddAnnotation(c.Request.Context(), h.annotationDraft(c, req)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

// EditAnnotationRequest carries replacement content
type EditAnnotationRequest struct {
	Content string `json:"content" binding:"required"`
}

// EditAnnotation godoc
// @Summary Edit an annotation
// @Tags annotations
// @Accept json
// @Produce json
// @Param annotationId path string true "Annotation ID"
// @Param request body EditAnnotationRequest true "New content"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /annotations/{annotationId} [put]
func (h *Handler) EditAnnotation(c *gin.Context) {
	var req EditAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.EditAnnotation(c.Request.Context(), c.Param("annotationId"), req.Content); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "edited"})
}

// DeleteAnnotation godoc
// @Summary Delete an annotation and its replies
// @Tags annotations
// @Produce json
// @Param annotationId path string true "Annotation ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /annotations/{annotationId} [delete]
func (h *Handler) DeleteAnnotation(c *gin.Context) {
	if err := h.coordinator.DeleteAnnotation(c.Request.Context(), c.Param("annotationId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ReplyToAnnotation godoc
// @Summary Reply to an annotation
// @Tags annotations
// @Accept json
// @Produce json
// @Param annotationId path string true "Parent annotation ID"
// @Param request body AnnotationRequest true "Reply draft"
// @Success 201 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /annotations/{annotationId}/replies [post]
func (h *Handler) ReplyToAnnotation(c *gin.Context) {
	var req AnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.ReplyToAnnotation(c.Request.Context(), c.Param("annotationId"), h.annotationDraft(c, req)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "replied"})
}

// CreateCheckpointRequest carries the checkpoint description
type CreateCheckpointRequest struct {
	Description string `json:"description" binding:"required"`
}

// CreateCheckpoint godoc
// @Summary Create a checkpoint
// @Tags checkpoints
// @Accept json
// @Produce json
// @Param request body CreateCheckpointRequest true "Description"
// @Success 201 {object} map[string]string
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /checkpoints [post]
func (h *Handler) CreateCheckpoint(c *gin.Context) {
	var req CreateCheckpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.coordinator.CreateCheckpoint(c.Request.Context(), req.Description); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

// RestoreCheckpoint godoc
// @Summary Restore a checkpoint
// @Description Restores executor-side state; the checkpoint log is untouched
// @Tags checkpoints
// @Produce json
// @Param checkpointId path string true "Checkpoint ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /checkpoints/{checkpointId}/restore [post]
func (h *Handler) RestoreCheckpoint(c *gin.Context) {
	if err := h.coordinator.RestoreCheckpoint(c.Request.Context(), c.Param("checkpointId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}

// DeleteCheckpoint godoc
// @Summary Delete a checkpoint
// @Tags checkpoints
// @Produce json
// @Param checkpointId path string true "Checkpoint ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /checkpoints/{checkpointId} [delete]
func (h *Handler) DeleteCheckpoint(c *gin.Context) {
	if err := h.coordinator.DeleteCheckpoint(c.Request.Context(), c.Param("checkpointId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ViewCheckpointDiff godoc
// @Summary Diff a checkpoint against current state
// @Tags checkpoints
// @Produce json
// @Param checkpointId path string true "Checkpoint ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /checkpoints/{checkpointId}/diff [get]
func (h *Handler) ViewCheckpointDiff(c *gin.Context) {
	diff, err := h.coordinator.ViewCheckpointDiff(c.Request.Context(), c.Param("checkpointId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", diff)
}

// Reset godoc
// @Summary Reset the review session
// @Description Clears groups, conflicts, annotations, checkpoints and alternatives. Environment files are preserved.
// @Tags state
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 502 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /reset [post]
func (h *Handler) Reset(c *gin.Context) {
	if err := h.coordinator.Reset(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// ListEnvFiles godoc
// @Summary List environment files
// @Tags envfiles
// @Produce json
// @Success 200 {object} map[string]map[string]string
// @Security BearerAuth
// @Router /envfiles [get]
func (h *Handler) ListEnvFiles(c *gin.Context) {
	c.JSON(http.StatusOK, h.envFiles.List())
}

// GetEnvFile godoc
// @Summary Get one environment file
// @Tags envfiles
// @Produce json
// @Param name path string true "File name"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /envfiles/{name} [get]
func (h *Handler) GetEnvFile(c *gin.Context) {
	values, ok := h.envFiles.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Env file not found"})
		return
	}
	c.JSON(http.StatusOK, values)
}

// PutEnvFile godoc
// @Summary Create or replace an environment file
// @Tags envfiles
// @Accept json
// @Produce json
// @Param name path string true "File name"
// @Param request body map[string]string true "Key/value pairs"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /envfiles/{name} [put]
func (h *Handler) PutEnvFile(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := h.envFiles.Put(c.Param("name"), values); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
