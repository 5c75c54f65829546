// Package session holds the access token shared by every view.
//
// The Store is the only cross-component shared state. Login is its sole
// writer (through Writer); every other component reads through Reader.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Reader gives read access to the current token.
type Reader interface {
	Token() string
}

// Writer replaces the current token.
type Writer interface {
	SetToken(token string) error
}

// state is the persisted file layout.
type state struct {
	AccessToken string `yaml:"access_token"`
}

// Store keeps the token in memory and, when path is set, in a YAML file.
type Store struct {
	mu    sync.RWMutex
	token string
	path  string
}

// NewMemory returns a store without persistence.
func NewMemory() *Store {
	return &Store{}
}

// Open returns a store persisted at path, restoring any token already saved there.
// A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the state file path, empty for memory-only stores.
func (s *Store) Path() string {
	return s.path
}

// Token returns the current token, empty when not logged in.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether a token is present.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}

// SetToken stores token in memory and writes it to the state file.
// The in-memory token is only replaced once the file write succeeded.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := writeState(s.path, state{AccessToken: token}); err != nil {
			return err
		}
	}
	s.token = token
	return nil
}

// Reload re-reads the state file. A missing file leaves the token unchanged.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read session file: %w", err)
	}

	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("could not parse session file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.token = st.AccessToken
	s.mu.Unlock()
	return nil
}

// writeState writes the file atomically with owner-only permissions.
func writeState(path string, st state) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("could not create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("could not set session file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not save session file: %w", err)
	}
	return nil
}

// Watch reloads the token whenever the state file changes on disk, so a
// login from another process reaches a long-running web shell. It blocks
// until ctx is done.
func (s *Store) Watch(ctx context.Context, logger hclog.Logger) error {
	if s.path == "" {
		return errors.New("memory-only session store cannot be watched")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: writes replace the file by rename.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create session directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}

	name := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warn("session reload failed", "path", s.path, "error", err)
				continue
			}
			logger.Debug("session reloaded", "path", s.path, "logged_in", s.LoggedIn())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("session watcher error", "error", err)
		}
	}
}
