package store

import (
	"fmt"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

// AnnotationTree owns the threaded comments and their nested replies. The
// forest is modeled as recursive containers (node plus ordered child list)
// with no back-edges; lookups are depth-first scans by id, which is fine for
// expected thread sizes. Reply order within a node is insertion order.
type AnnotationTree struct {
	roots []*models.Annotation
}

// NewAnnotationTree creates an empty annotation tree.
func NewAnnotationTree() *AnnotationTree {
	return &AnnotationTree{}
}

// Add appends a new root annotation. The id and timestamp are assigned by
// the executor before the node reaches the store.
func (t *AnnotationTree) Add(a *models.Annotation) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("annotation id is required")
	}
	if t.find(a.ID) != nil {
		return fmt.Errorf("annotation %s: %w", a.ID, ErrAlreadyExists)
	}
	node := a.Clone()
	if node.Replies == nil {
		node.Replies = []*models.Annotation{}
	}
	t.roots = append(t.roots, node)
	return nil
}

// Edit replaces the content of the first node matching id, anywhere in the
// forest. The node's id, replies and anchor are untouched.
func (t *AnnotationTree) Edit(id, content string) error {
	node := t.find(id)
	if node == nil {
		return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
	}
	node.Content = content
	return nil
}

// Delete removes the node matching id together with its entire reply
// subtree, detaching it from its parent's reply list (or the root list).
func (t *AnnotationTree) Delete(id string) error {
	for i, root := range t.roots {
		if root.ID == id {
			t.roots = append(t.roots[:i], t.roots[i+1:]...)
			return nil
		}
		if deleteReply(root, id) {
			return nil
		}
	}
	return fmt.Errorf("annotation %s: %w", id, ErrNotFound)
}

// Reply appends a newly identified annotation to the reply list of the node
// matching parentID.
func (t *AnnotationTree) Reply(parentID string, reply *models.Annotation) error {
	if reply == nil || reply.ID == "" {
		return fmt.Errorf("annotation id is required")
	}
	parent := t.find(parentID)
	if parent == nil {
		return fmt.Errorf("annotation %s: %w", parentID, ErrNotFound)
	}
	node := reply.Clone()
	if node.Replies == nil {
		node.Replies = []*models.Annotation{}
	}
	parent.Replies = append(parent.Replies, node)
	return nil
}

// Has reports whether any node in the forest carries the given id.
func (t *AnnotationTree) Has(id string) bool {
	return t.find(id) != nil
}

// Count returns the total number of annotations including every reply at
// every depth.
func (t *AnnotationTree) Count() int {
	total := 0
	for _, root := range t.roots {
		total += countNodes(root)
	}
	return total
}

// List returns a deep copy of the forest in insertion order.
func (t *AnnotationTree) List() []*models.Annotation {
	out := make([]*models.Annotation, 0, len(t.roots))
	for _, root := range t.roots {
		out = append(out, root.Clone())
	}
	return out
}

// Clear drops every annotation (session reset).
func (t *AnnotationTree) Clear() {
	t.roots = nil
}

// find does a depth-first search over all roots; first match wins.
func (t *AnnotationTree) find(id string) *models.Annotation {
	for _, root := range t.roots {
		if node := findNode(root, id); node != nil {
			return node
		}
	}
	return nil
}

func findNode(node *models.Annotation, id string) *models.Annotation {
	if node.ID == id {
		return node
	}
	for _, reply := range node.Replies {
		if found := findNode(reply, id); found != nil {
			return found
		}
	}
	return nil
}

func deleteReply(node *models.Annotation, id string) bool {
	for i, reply := range node.Replies {
		if reply.ID == id {
			node.Replies = append(node.Replies[:i], node.Replies[i+1:]...)
			return true
		}
		if deleteReply(reply, id) {
			return true
		}
	}
	return false
}

func countNodes(node *models.Annotation) int {
	total := 1
	for _, reply := range node.Replies {
		total += countNodes(reply)
	}
	return total
}
