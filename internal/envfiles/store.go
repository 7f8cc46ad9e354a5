// Package envfiles manages the environment files living next to the project
// under review. They are deliberately outside the review session: a session
// reset clears every review store but never touches these.
package envfiles

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Store holds parsed environment files keyed by their name relative to the
// watched directory. External edits are picked up by the directory watcher.
type Store struct {
	mu    sync.RWMutex
	dir   string
	files map[string]map[string]string
}

// NewStore loads every env file found in dir. A missing directory is created
// so Put works on a fresh project.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create env files dir: %w", err)
	}

	s := &Store{
		dir:   dir,
		files: make(map[string]map[string]string),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read env files dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isEnvFile(entry.Name()) {
			continue
		}
		if err := s.loadFile(entry.Name()); err != nil {
			log.Printf("WARN: skipping unreadable env file %s: %v", entry.Name(), err)
		}
	}
	return s, nil
}

// Get returns the parsed values of one env file.
func (s *Store) Get(name string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.files[name]
	if !ok {
		return nil, false
	}
	return copyValues(values), true
}

// List returns copies of every tracked env file.
func (s *Store) List() map[string]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]string, len(s.files))
	for name, values := range s.files {
		out[name] = copyValues(values)
	}
	return out
}

// Put writes the values to disk and updates the store. The file name must be
// a plain env file name, not a path.
func (s *Store) Put(name string, values map[string]string) error {
	if !isEnvFile(name) || name != filepath.Base(name) {
		return fmt.Errorf("invalid env file name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := godotenv.Write(values, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", name, err)
	}
	s.files[name] = copyValues(values)
	return nil
}

// Watch follows external edits in the directory until ctx is cancelled.
// Creates and writes reload the file; removals and renames drop it.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name := filepath.Base(event.Name)
				if !isEnvFile(name) {
					continue
				}
				switch {
				case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
					s.mu.Lock()
					if err := s.loadFile(name); err != nil {
						log.Printf("WARN: failed to reload env file %s: %v", name, err)
					}
					s.mu.Unlock()
				case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
					s.mu.Lock()
					delete(s.files, name)
					s.mu.Unlock()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WARN: env file watcher error: %v", err)
			}
		}
	}()
	return nil
}

// loadFile parses one file into the store. Callers hold the write lock
// except during construction.
func (s *Store) loadFile(name string) error {
	values, err := godotenv.Read(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	s.files[name] = values
	return nil
}

// isEnvFile matches ".env" and anything ending in ".env" (".env.local" style
// names included).
func isEnvFile(name string) bool {
	return name == ".env" || strings.HasSuffix(name, ".env") || strings.HasPrefix(name, ".env.")
}

func copyValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
