package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// usersFile is the on-disk registry shape.
type usersFile struct {
	Users []models.User `yaml:"users"`
}

// UserRegistry holds reviewer accounts loaded from a YAML file. Reviewer
// accounts are seeded with cmd/seed-user; the registry itself is read-only
// at runtime.
type UserRegistry struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by lowercase email
}

// LoadUserRegistry parses the YAML registry at path.
func LoadUserRegistry(path string) (*UserRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var parsed usersFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	users := make(map[string]models.User, len(parsed.Users))
	for _, u := range parsed.Users {
		if u.Email == "" || u.HashedPassword == "" {
			return nil, fmt.Errorf("user %q is missing email or password hash", u.ID)
		}
		users[strings.ToLower(u.Email)] = u
	}

	return &UserRegistry{users: users}, nil
}

// Authenticate verifies the credentials and returns the matching user.
// Lookup misses and bad passwords are indistinguishable to the caller.
func (r *UserRegistry) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	_, span := tracer.Start(ctx, "auth.authenticate")
	defer span.End()

	r.mu.RLock()
	user, ok := r.users[strings.ToLower(email)]
	r.mu.RUnlock()

	if !ok {
		span.SetAttributes(attribute.Bool("auth.user_found", false))
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.password_valid", false))
		return nil, fmt.Errorf("invalid credentials")
	}

	span.SetAttributes(
		attribute.Bool("auth.password_valid", true),
		attribute.String("user.id", user.ID),
	)
	return &user, nil
}

// Len returns the number of registered users.
func (r *UserRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
