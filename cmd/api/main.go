package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/auth"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/config"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/envfiles"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/executor"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/gateway"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/metrics"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
	"github.com/bizmatters/agent-builder/review-orchestrator/internal/review"

	_ "github.com/bizmatters/agent-builder/review-orchestrator/docs" // swagger docs
)

// @title Review Orchestrator API
// @version 1.0
// @description Change review and collaboration API for agent-assisted editing
// @description
// @description This API owns the review session state: proposed change groups, conflicts,
// @description threaded annotations and checkpoints. Every intent is confirmed by the
// @description external executor before state changes; observers receive full snapshots.

// @contact.name API Support
// @contact.email support@bizmatters.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// Initialize OpenTelemetry
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT manager
	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize JWT manager: %v", err)
	}

	// Load the reviewer registry (seed accounts with cmd/seed-user)
	users, err := auth.LoadUserRegistry(cfg.UsersFile)
	if err != nil {
		log.Fatalf("Failed to load users file: %v", err)
	}
	log.Printf("Loaded %d reviewer account(s) from %s", users.Len(), cfg.UsersFile)

	// Environment files live outside the review session and survive resets
	envStore, err := envfiles.NewStore(cfg.EnvFilesDir)
	if err != nil {
		log.Fatalf("Failed to initialize env files store: %v", err)
	}

	intentMetrics, err := metrics.NewIntentMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize intent metrics: %v", err)
	}

	executorClient := executor.NewClient(cfg.ExecutorURL)

	// Wait for the executor before taking traffic
	log.Println("Waiting for executor service...")
	for i := 0; i < 10; i++ {
		if executorClient.IsHealthy(context.Background()) {
			break
		}
		log.Printf("Waiting for executor... (attempt %d/10)", i+1)
		time.Sleep(3 * time.Second)
	}

	coordinator := review.NewCoordinator(executorClient, intentMetrics, models.Author{}, cfg.DispatchTimeout)
	defer coordinator.Close()

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go coordinator.Run(runCtx)
	if err := envStore.Watch(runCtx); err != nil {
		log.Fatalf("Failed to watch env files dir: %v", err)
	}

	// Initialize gateway layer
	gatewayHandler := gateway.NewHandler(coordinator, jwtManager, users, envStore, cfg.TokenTTL)
	stateStream := gateway.NewStateStream(coordinator)

	// Setup Gin router
	router := gin.Default()

	// Add structured JSON logging middleware
	router.Use(structuredLoggingMiddleware())

	// Health checks MUST be at the root for the WebService standard
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		// Readiness depends on the executor being reachable
		if !executorClient.IsHealthy(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "executor unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// API routes
	api := router.Group("/api")

	// Public routes (no authentication required)
	api.POST("/auth/login", gatewayHandler.Login)

	// Health check (public) - keep for backward compatibility
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes (require JWT authentication and the reviewer role)
	protected := api.Group("")
	protected.Use(auth.RequireAuth(jwtManager), auth.RequireRole("reviewer"))

	// State routes
	protected.GET("/state", gatewayHandler.GetState)
	protected.POST("/reset", gatewayHandler.Reset)

	// Change group routes
	protected.POST("/changes", gatewayHandler.ProposeChanges)
	protected.POST("/changes/:groupId/accept", gatewayHandler.AcceptGroup)
	protected.POST("/changes/:groupId/reject", gatewayHandler.RejectGroup)
	protected.POST("/changes/:groupId/files/accept", gatewayHandler.AcceptFile)
	protected.POST("/changes/:groupId/files/reject", gatewayHandler.RejectFile)
	protected.POST("/changes/:groupId/files/modify", gatewayHandler.ModifyChange)
	protected.POST("/changes/:groupId/files/explain", gatewayHandler.RequestExplanation)

	// Alternative implementation routes
	protected.POST("/alternatives", gatewayHandler.ProposeAlternatives)
	protected.POST("/alternatives/:implementationId/select", gatewayHandler.SelectImplementation)

	// Conflict routes
	protected.POST("/conflicts", gatewayHandler.ReportConflict)
	protected.POST("/conflicts/:conflictId/resolve", gatewayHandler.ResolveConflict)
	protected.POST("/conflicts/:conflictId/ai-resolve", gatewayHandler.RequestAIResolution)

	// Annotation routes
	protected.POST("/annotations", gatewayHandler.AddAnnotation)
	protected.PUT("/annotations/:annotationId", gatewayHandler.EditAnnotation)
	protected.DELETE("/annotations/:annotationId", gatewayHandler.DeleteAnnotation)
	protected.POST("/annotations/:annotationId/replies", gatewayHandler.ReplyToAnnotation)

	// Checkpoint routes
	protected.POST("/checkpoints", gatewayHandler.CreateCheckpoint)
	protected.POST("/checkpoints/:checkpointId/restore", gatewayHandler.RestoreCheckpoint)
	protected.DELETE("/checkpoints/:checkpointId", gatewayHandler.DeleteCheckpoint)
	protected.GET("/checkpoints/:checkpointId/diff", gatewayHandler.ViewCheckpointDiff)

	// Environment file routes (reset carve-out)
	protected.GET("/envfiles", gatewayHandler.ListEnvFiles)
	protected.GET("/envfiles/:name", gatewayHandler.GetEnvFile)
	protected.PUT("/envfiles/:name", gatewayHandler.PutEnvFile)

	// WebSocket routes (authenticated)
	protected.GET("/ws/state", stateStream.Stream)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Review Orchestrator API server on %s\n", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopRun()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		userID, _ := c.Get("user_id")

		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		if userID != nil {
			logEntry["user_id"] = userID
		}

		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}
