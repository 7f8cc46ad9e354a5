package models

import (
	"time"
)

// Bucket identifies one of the three file buckets of a change group.
type Bucket string

const (
	BucketModify Bucket = "modify"
	BucketCreate Bucket = "create"
	BucketDelete Bucket = "delete"
)

// Valid reports whether b is one of the three known buckets.
func (b Bucket) Valid() bool {
	return b == BucketModify || b == BucketCreate || b == BucketDelete
}

// FileChange represents one proposed file modification or creation.
// A FileChange is owned by exactly one ChangeGroup at a time.
type FileChange struct {
	Path            string `json:"path"`
	Content         string `json:"content"`
	OriginalContent string `json:"originalContent,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
}

// FileBuckets holds the three per-group file buckets. A path appears in at
// most one bucket within a group.
type FileBuckets struct {
	Modify []FileChange `json:"modify"`
	Create []FileChange `json:"create"`
	Delete []string     `json:"delete"`
}

// Empty reports whether all three buckets are empty.
func (fb FileBuckets) Empty() bool {
	return len(fb.Modify) == 0 && len(fb.Create) == 0 && len(fb.Delete) == 0
}

// Paths returns every path referenced by any bucket.
func (fb FileBuckets) Paths() []string {
	paths := make([]string, 0, len(fb.Modify)+len(fb.Create)+len(fb.Delete))
	for _, fc := range fb.Modify {
		paths = append(paths, fc.Path)
	}
	for _, fc := range fb.Create {
		paths = append(paths, fc.Path)
	}
	paths = append(paths, fb.Delete...)
	return paths
}

// ChangeGroup is a titled, agent-attributed bundle of proposed file
// modifications, creations and deletions, reviewed as a unit or per-file.
type ChangeGroup struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	AgentID     string      `json:"agentId"`
	AgentName   string      `json:"agentName"`
	Timestamp   time.Time   `json:"timestamp"`
	Files       FileBuckets `json:"files"`
}

// ConflictType categorizes a detected conflict between proposals.
type ConflictType string

const (
	ConflictTypeMerge      ConflictType = "merge"
	ConflictTypeDependency ConflictType = "dependency"
	ConflictTypeLogic      ConflictType = "logic"
	ConflictTypeOther      ConflictType = "other"
)

// ConflictStatus tracks a conflict through its resolution lifecycle.
// Transitions: pending -> resolving -> {resolved, failed}. The terminal
// states never revert.
type ConflictStatus string

const (
	ConflictStatusPending   ConflictStatus = "pending"
	ConflictStatusResolving ConflictStatus = "resolving"
	ConflictStatusResolved  ConflictStatus = "resolved"
	ConflictStatusFailed    ConflictStatus = "failed"
)

// Conflict records a detected incompatibility between proposals.
type Conflict struct {
	ID          string         `json:"id"`
	Type        ConflictType   `json:"type"`
	Description string         `json:"description"`
	Status      ConflictStatus `json:"status"`
	Files       []string       `json:"files"`
	AgentID     string         `json:"agentId,omitempty"`
	AgentName   string         `json:"agentName,omitempty"`
}

// AuthorType distinguishes human reviewers from agents.
type AuthorType string

const (
	AuthorTypeHuman AuthorType = "human"
	AuthorTypeAgent AuthorType = "agent"
)

// Author identifies who wrote an annotation (or who the session user is).
type Author struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type AuthorType `json:"type"`
}

// Annotation is a threaded comment, optionally anchored to a file and line
// range. Replies form a tree of unbounded depth; each reply is owned by its
// parent and a node is never re-parented.
type Annotation struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	Author      Author        `json:"author"`
	Timestamp   time.Time     `json:"timestamp"`
	FilePath    string        `json:"filePath,omitempty"`
	LineStart   *int          `json:"lineStart,omitempty"`
	LineEnd     *int          `json:"lineEnd,omitempty"`
	CodeSnippet string        `json:"codeSnippet,omitempty"`
	Replies     []*Annotation `json:"replies"`
}

// Clone returns a deep copy of the annotation and its reply subtree.
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	dup := *a
	if a.LineStart != nil {
		v := *a.LineStart
		dup.LineStart = &v
	}
	if a.LineEnd != nil {
		v := *a.LineEnd
		dup.LineEnd = &v
	}
	dup.Replies = make([]*Annotation, 0, len(a.Replies))
	for _, reply := range a.Replies {
		dup.Replies = append(dup.Replies, reply.Clone())
	}
	return &dup
}

// ChangeCounts summarizes how many files a checkpoint touches.
type ChangeCounts struct {
	Modified int `json:"modified"`
	Created  int `json:"created"`
	Deleted  int `json:"deleted"`
}

// Checkpoint is a named, restorable snapshot of project state. The log is
// append-only except for explicit deletion; restoring never mutates it.
type Checkpoint struct {
	ID          string       `json:"id"`
	Timestamp   time.Time    `json:"timestamp"`
	Description string       `json:"description"`
	Changes     ChangeCounts `json:"changes"`
}

// AlternativeImplementation is an externally supplied implementation option.
// Selecting any one of them converts it into a ChangeGroup and discards the
// whole list.
type AlternativeImplementation struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tradeoffs   []string    `json:"tradeoffs,omitempty"`
	Files       FileBuckets `json:"files"`
}

// AgentInfo describes one agent participating in the session.
type AgentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// ErrorNotice is the transient error channel carried in a snapshot after a
// failed intent. The stores themselves are unchanged when it is set.
type ErrorNotice struct {
	Code      string `json:"code"`
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// StateSnapshot is the single outbound contract pushed to observers after
// every confirmed mutation and once at subscription time. The UI depends on
// whole snapshots, never on individual deltas.
type StateSnapshot struct {
	ChangeGroups               []ChangeGroup               `json:"changeGroups"`
	AlternativeImplementations []AlternativeImplementation `json:"alternativeImplementations"`
	Conflicts                  []Conflict                  `json:"conflicts"`
	Annotations                []*Annotation               `json:"annotations"`
	Checkpoints                []Checkpoint                `json:"checkpoints"`
	IsResolvingConflicts       bool                        `json:"isResolvingConflicts"`
	CurrentUser                Author                      `json:"currentUser"`
	Agents                     []AgentInfo                 `json:"agents"`
	Error                      *ErrorNotice                `json:"error,omitempty"`
}
