package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

const (
	// MinPasswordLength is the minimum password length requirement
	MinPasswordLength = 8
	// BcryptCost is the cost factor for bcrypt hashing (10 = ~100ms)
	BcryptCost = 10
)

var (
	emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

type usersFile struct {
	Users []models.User `yaml:"users"`
}

func main() {
	// Parse command-line flags
	name := flag.String("name", "", "Full name of the reviewer (required)")
	email := flag.String("email", "", "Email address (required)")
	password := flag.String("password", "", "Password (required, min 8 chars)")
	file := flag.String("file", "users.yaml", "Path to the users registry file")
	flag.Parse()

	// Initialize OpenTelemetry for observability
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// Validate inputs
	if err := validateInputs(*name, *email, *password); err != nil {
		log.Fatalf("Validation error: %v", err)
	}

	userID, err := createUser(context.Background(), *file, *name, *email, *password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	log.Printf("✓ Successfully created reviewer account")
	log.Printf("  ID: %s", userID)
	log.Printf("  Name: %s", *name)
	log.Printf("  Email: %s", *email)
	log.Printf("  File: %s", *file)
}

// validateInputs validates user input according to security requirements
func validateInputs(name, email, password string) error {
	// Validate name
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required and cannot be empty")
	}

	// Validate email format
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}

	// Validate password strength
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}

	// Check for password complexity (at least one letter and one number)
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}

	return nil
}

// createUser appends a new account with hashed password to the YAML registry
func createUser(ctx context.Context, path, name, email, password string) (string, error) {
	tracer := otel.Tracer("seed-user")
	_, span := tracer.Start(ctx, "create_user")
	defer span.End()

	// Hash password using bcrypt
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	registry, err := loadRegistry(path)
	if err != nil {
		return "", err
	}

	for _, existing := range registry.Users {
		if strings.EqualFold(existing.Email, email) {
			return "", fmt.Errorf("user with email %s already exists", email)
		}
	}

	user := models.User{
		ID:             uuid.New().String(),
		Name:           name,
		Email:          email,
		HashedPassword: string(hashedPassword),
		CreatedAt:      time.Now().UTC(),
	}
	registry.Users = append(registry.Users, user)

	data, err := yaml.Marshal(registry)
	if err != nil {
		return "", fmt.Errorf("failed to encode users file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write users file: %w", err)
	}

	return user.ID, nil
}

// loadRegistry reads the existing registry; a missing file starts empty
func loadRegistry(path string) (*usersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &usersFile{}, nil
		}
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var registry usersFile
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	return &registry, nil
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
