package store

import (
	"fmt"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// ChangeGroupStore owns the proposed multi-file change sets under review.
// Groups keep their insertion order. A group whose three buckets are all
// empty is removed immediately; the store never holds an empty group.
type ChangeGroupStore struct {
	groups []*models.ChangeGroup
}

// NewChangeGroupStore creates an empty change group store.
func NewChangeGroupStore() *ChangeGroupStore {
	return &ChangeGroupStore{}
}

// Put registers a new group. It rejects duplicate ids, groups with all
// buckets empty, and groups that list the same path in more than one bucket.
func (s *ChangeGroupStore) Put(group models.ChangeGroup) error {
	if group.ID == "" {
		return fmt.Errorf("change group id is required")
	}
	if _, ok := s.index(group.ID); ok {
		return fmt.Errorf("change group %s: %w", group.ID, ErrAlreadyExists)
	}
	if group.Files.Empty() {
		return fmt.Errorf("change group %s has no files: %w", group.ID, ErrInvalidTransition)
	}
	seen := make(map[string]struct{})
	for _, path := range group.Files.Paths() {
		if _, dup := seen[path]; dup {
			return fmt.Errorf("change group %s, path %s: %w", group.ID, path, ErrDuplicatePath)
		}
		seen[path] = struct{}{}
	}
	dup := group
	s.groups = append(s.groups, &dup)
	return nil
}

// Get returns the group with the given id.
func (s *ChangeGroupStore) Get(id string) (models.ChangeGroup, bool) {
	i, ok := s.index(id)
	if !ok {
		return models.ChangeGroup{}, false
	}
	return cloneGroup(s.groups[i]), true
}

// Remove deletes the group entirely (group-level accept or reject).
func (s *ChangeGroupStore) Remove(id string) error {
	i, ok := s.index(id)
	if !ok {
		return fmt.Errorf("change group %s: %w", id, ErrNotFound)
	}
	s.groups = append(s.groups[:i], s.groups[i+1:]...)
	return nil
}

// HasFile reports whether the group holds path in the named bucket.
func (s *ChangeGroupStore) HasFile(id, path string, bucket models.Bucket) bool {
	i, ok := s.index(id)
	if !ok {
		return false
	}
	g := s.groups[i]
	switch bucket {
	case models.BucketModify:
		return changeIndex(g.Files.Modify, path) >= 0
	case models.BucketCreate:
		return changeIndex(g.Files.Create, path) >= 0
	case models.BucketDelete:
		return pathIndex(g.Files.Delete, path) >= 0
	}
	return false
}

// RemoveFile deletes exactly one entry from the named bucket (per-file
// accept or reject). If all three buckets are then empty the group itself is
// removed; groupRemoved reports whether that cascade fired. This is the
// bucket-emptiness invariant, not an optional cleanup.
func (s *ChangeGroupStore) RemoveFile(id, path string, bucket models.Bucket) (groupRemoved bool, err error) {
	i, ok := s.index(id)
	if !ok {
		return false, fmt.Errorf("change group %s: %w", id, ErrNotFound)
	}
	g := s.groups[i]
	switch bucket {
	case models.BucketModify:
		j := changeIndex(g.Files.Modify, path)
		if j < 0 {
			return false, fmt.Errorf("change group %s, path %s in bucket %s: %w", id, path, bucket, ErrNotFound)
		}
		g.Files.Modify = append(g.Files.Modify[:j], g.Files.Modify[j+1:]...)
	case models.BucketCreate:
		j := changeIndex(g.Files.Create, path)
		if j < 0 {
			return false, fmt.Errorf("change group %s, path %s in bucket %s: %w", id, path, bucket, ErrNotFound)
		}
		g.Files.Create = append(g.Files.Create[:j], g.Files.Create[j+1:]...)
	case models.BucketDelete:
		j := pathIndex(g.Files.Delete, path)
		if j < 0 {
			return false, fmt.Errorf("change group %s, path %s in bucket %s: %w", id, path, bucket, ErrNotFound)
		}
		g.Files.Delete = append(g.Files.Delete[:j], g.Files.Delete[j+1:]...)
	default:
		return false, fmt.Errorf("unknown bucket %q", bucket)
	}
	if g.Files.Empty() {
		s.groups = append(s.groups[:i], s.groups[i+1:]...)
		return true, nil
	}
	return false, nil
}

// SetContent replaces the proposed content of an entry in the modify or
// create bucket. Bucket membership is unchanged.
func (s *ChangeGroupStore) SetContent(id, path, content string) error {
	fc, err := s.editableChange(id, path)
	if err != nil {
		return err
	}
	fc.Content = content
	return nil
}

// SetExplanation attaches an executor-supplied explanation to an entry in
// the modify or create bucket.
func (s *ChangeGroupStore) SetExplanation(id, path, explanation string) error {
	fc, err := s.editableChange(id, path)
	if err != nil {
		return err
	}
	fc.Explanation = explanation
	return nil
}

// List returns copies of all groups in insertion order.
func (s *ChangeGroupStore) List() []models.ChangeGroup {
	out := make([]models.ChangeGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, cloneGroup(g))
	}
	return out
}

// Len returns the number of groups currently under review.
func (s *ChangeGroupStore) Len() int {
	return len(s.groups)
}

// Clear drops every group (session reset).
func (s *ChangeGroupStore) Clear() {
	s.groups = nil
}

func (s *ChangeGroupStore) index(id string) (int, bool) {
	for i, g := range s.groups {
		if g.ID == id {
			return i, true
		}
	}
	return 0, false
}

// editableChange finds path in the modify bucket first, then create. Delete
// entries carry no content and cannot be edited.
func (s *ChangeGroupStore) editableChange(id, path string) (*models.FileChange, error) {
	i, ok := s.index(id)
	if !ok {
		return nil, fmt.Errorf("change group %s: %w", id, ErrNotFound)
	}
	g := s.groups[i]
	if j := changeIndex(g.Files.Modify, path); j >= 0 {
		return &g.Files.Modify[j], nil
	}
	if j := changeIndex(g.Files.Create, path); j >= 0 {
		return &g.Files.Create[j], nil
	}
	return nil, fmt.Errorf("change group %s, editable path %s: %w", id, path, ErrNotFound)
}

func changeIndex(changes []models.FileChange, path string) int {
	for i, fc := range changes {
		if fc.Path == path {
			return i
		}
	}
	return -1
}

func pathIndex(paths []string, path string) int {
	for i, p := range paths {
		if p == path {
			return i
		}
	}
	return -1
}

func cloneGroup(g *models.ChangeGroup) models.ChangeGroup {
	dup := *g
	dup.Files.Modify = append([]models.FileChange(nil), g.Files.Modify...)
	dup.Files.Create = append([]models.FileChange(nil), g.Files.Create...)
	dup.Files.Delete = append([]string(nil), g.Files.Delete...)
	return dup
}
