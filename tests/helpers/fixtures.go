package helpers

import (
	"time"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// TestReviewer is the default reviewer account used by integration tests.
type TestReviewer struct {
	ID       string
	Name     string
	Email    string
	Password string
}

// DefaultTestReviewer is seeded into the users file by the test environment.
var DefaultTestReviewer = TestReviewer{
	ID:       "reviewer-1",
	Name:     "Test Reviewer",
	Email:    "reviewer@example.com",
	Password: "review-pass-123",
}

// CreateTestLoginRequest creates a login request payload.
func CreateTestLoginRequest(email, password string) map[string]interface{} {
	return map[string]interface{}{
		"email":    email,
		"password": password,
	}
}

// SingleFileGroup creates a change group with one modified file.
func SingleFileGroup(id, path string) models.ChangeGroup {
	return models.ChangeGroup{
		ID:        id,
		Title:     "Single file change",
		AgentID:   "agent-1",
		AgentName: "Refactor Agent",
		Timestamp: time.Now().UTC(),
		Files: models.FileBuckets{
			Modify: []models.FileChange{
				{Path: path, Content: "updated", OriginalContent: "original"},
			},
		},
	}
}

// TwoBucketGroup creates a change group with one modified and one created file.
func TwoBucketGroup(id string) models.ChangeGroup {
	return models.ChangeGroup{
		ID:          id,
		Title:       "Two bucket change",
		Description: "Modifies one file and creates another",
		AgentID:     "agent-1",
		AgentName:   "Refactor Agent",
		Timestamp:   time.Now().UTC(),
		Files: models.FileBuckets{
			Modify: []models.FileChange{
				{Path: "pkg/service.go", Content: "updated", OriginalContent: "original"},
			},
			Create: []models.FileChange{
				{Path: "pkg/service_test.go", Content: "new test"},
			},
		},
	}
}

// PendingConflict creates a conflict in its initial state.
func PendingConflict(id string, files ...string) models.Conflict {
	return models.Conflict{
		ID:          id,
		Type:        models.ConflictTypeMerge,
		Description: "Overlapping edits",
		Status:      models.ConflictStatusPending,
		Files:       files,
		AgentID:     "agent-2",
		AgentName:   "Migration Agent",
	}
}

// CreateAnnotationRequest creates an annotation request payload.
func CreateAnnotationRequest(content, filePath string) map[string]interface{} {
	req := map[string]interface{}{
		"content": content,
	}
	if filePath != "" {
		req["filePath"] = filePath
		req["lineStart"] = 10
		req["lineEnd"] = 12
	}
	return req
}

// TestAlternatives creates a pair of alternative implementations.
func TestAlternatives() []models.AlternativeImplementation {
	return []models.AlternativeImplementation{
		{
			ID:          "alt-1",
			Title:       "In-memory cache",
			Description: "Keep the index in memory",
			Tradeoffs:   []string{"fast", "lost on restart"},
			Files: models.FileBuckets{
				Create: []models.FileChange{{Path: "cache/memory.go", Content: "package cache"}},
			},
		},
		{
			ID:          "alt-2",
			Title:       "Disk-backed cache",
			Description: "Persist the index between runs",
			Tradeoffs:   []string{"slower", "survives restart"},
			Files: models.FileBuckets{
				Create: []models.FileChange{{Path: "cache/disk.go", Content: "package cache"}},
			},
		},
	}
}
