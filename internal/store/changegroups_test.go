package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizmatters/agent-builder/review-orchestrator/internal/models"
)

func testGroup(id string) models.ChangeGroup {
	return models.ChangeGroup{
		ID:        id,
		Title:     "Refactor config loading",
		AgentID:   "agent-1",
		AgentName: "builder",
		Timestamp: time.Now(),
		Files: models.FileBuckets{
			Modify: []models.FileChange{{Path: "a.ts", Content: "new a"}},
			Create: []models.FileChange{{Path: "b.ts", Content: "new b"}},
			Delete: []string{"c.ts"},
		},
	}
}

func TestChangeGroupStore_Put(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*models.ChangeGroup)
		expectedError error
	}{
		{
			name:   "valid_group",
			mutate: func(g *models.ChangeGroup) {},
		},
		{
			name: "duplicate_path_across_buckets",
			mutate: func(g *models.ChangeGroup) {
				g.Files.Delete = append(g.Files.Delete, "a.ts")
			},
			expectedError: ErrDuplicatePath,
		},
		{
			name: "empty_buckets_rejected",
			mutate: func(g *models.ChangeGroup) {
				g.Files = models.FileBuckets{}
			},
			expectedError: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewChangeGroupStore()
			g := testGroup("g1")
			tt.mutate(&g)

			err := s.Put(g)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, 0, s.Len())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, s.Len())
			}
		})
	}

	t.Run("duplicate_id", func(t *testing.T) {
		s := NewChangeGroupStore()
		require.NoError(t, s.Put(testGroup("g1")))
		assert.ErrorIs(t, s.Put(testGroup("g1")), ErrAlreadyExists)
	})
}

func TestChangeGroupStore_RemoveFile_Cascade(t *testing.T) {
	s := NewChangeGroupStore()
	require.NoError(t, s.Put(testGroup("g1")))

	removed, err := s.RemoveFile("g1", "a.ts", models.BucketModify)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = s.RemoveFile("g1", "c.ts", models.BucketDelete)
	require.NoError(t, err)
	assert.False(t, removed)

	// Last entry: the group must vanish with it.
	removed, err = s.RemoveFile("g1", "b.ts", models.BucketCreate)
	require.NoError(t, err)
	assert.True(t, removed)

	_, ok := s.Get("g1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestChangeGroupStore_RemoveFile_SingleEntry(t *testing.T) {
	// Accepting the only file is equivalent to accepting the whole group.
	s := NewChangeGroupStore()
	g := models.ChangeGroup{
		ID:      "g1",
		AgentID: "agent-1",
		Files: models.FileBuckets{
			Modify: []models.FileChange{{Path: "a.ts", Content: "x"}},
		},
	}
	require.NoError(t, s.Put(g))

	removed, err := s.RemoveFile("g1", "a.ts", models.BucketModify)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, s.Len())
}

func TestChangeGroupStore_RemoveFile_NotFound(t *testing.T) {
	s := NewChangeGroupStore()
	require.NoError(t, s.Put(testGroup("g1")))

	_, err := s.RemoveFile("g1", "missing.ts", models.BucketModify)
	assert.ErrorIs(t, err, ErrNotFound)

	// Wrong bucket for an existing path is also a miss.
	_, err = s.RemoveFile("g1", "a.ts", models.BucketCreate)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RemoveFile("missing", "a.ts", models.BucketModify)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, s.Len())
}

func TestChangeGroupStore_NoEmptyGroupSurvives(t *testing.T) {
	// Bucket-emptiness invariant: after any removal sequence no group with
	// three empty buckets remains in the store.
	s := NewChangeGroupStore()
	require.NoError(t, s.Put(testGroup("g1")))
	require.NoError(t, s.Put(testGroup("g2")))

	paths := []struct {
		path   string
		bucket models.Bucket
	}{
		{"a.ts", models.BucketModify},
		{"b.ts", models.BucketCreate},
		{"c.ts", models.BucketDelete},
	}
	for _, p := range paths {
		_, err := s.RemoveFile("g1", p.path, p.bucket)
		require.NoError(t, err)
	}

	for _, g := range s.List() {
		assert.False(t, g.Files.Empty(), "group %s has all buckets empty", g.ID)
	}
	assert.Equal(t, 1, s.Len())
}

func TestChangeGroupStore_SetContent(t *testing.T) {
	s := NewChangeGroupStore()
	require.NoError(t, s.Put(testGroup("g1")))

	require.NoError(t, s.SetContent("g1", "a.ts", "edited"))
	require.NoError(t, s.SetContent("g1", "b.ts", "edited create"))

	g, ok := s.Get("g1")
	require.True(t, ok)
	assert.Equal(t, "edited", g.Files.Modify[0].Content)
	assert.Equal(t, "edited create", g.Files.Create[0].Content)

	// Bucket membership is unchanged.
	assert.Len(t, g.Files.Modify, 1)
	assert.Len(t, g.Files.Create, 1)
	assert.Len(t, g.Files.Delete, 1)

	// Delete entries carry no content.
	assert.ErrorIs(t, s.SetContent("g1", "c.ts", "nope"), ErrNotFound)
}

func TestChangeGroupStore_SetExplanation(t *testing.T) {
	s := NewChangeGroupStore()
	require.NoError(t, s.Put(testGroup("g1")))

	require.NoError(t, s.SetExplanation("g1", "a.ts", "renames the loader"))

	g, _ := s.Get("g1")
	assert.Equal(t, "renames the loader", g.Files.Modify[0].Explanation)

	assert.ErrorIs(t, s.SetExplanation("g1", "c.ts", "x"), ErrNotFound)
}

func TestChangeGroupStore_ListReturnsCopies(t *testing.T) {
	s := NewChangeGroupStore()
	require.NoError(t, s.Put(testGroup("g1")))

	list := s.List()
	list[0].Files.Modify[0].Content = "tampered"

	g, _ := s.Get("g1")
	assert.Equal(t, "new a", g.Files.Modify[0].Content)
}
