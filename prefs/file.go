package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the preferences in a YAML file. Every change rewrites
// the file; write errors are logged and the in-memory value is kept.
type FileStore struct {
	path string
	log  *slog.Logger

	mtx  sync.RWMutex
	vals values
}

// OpenFile loads the store from path. A missing file yields an empty store,
// the file and its directory are created on the first change.
func OpenFile(path string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &FileStore{path: path, log: log}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read preferences: %w", err)
	default:
		if err := yaml.Unmarshal(content, &s.vals); err != nil {
			return nil, fmt.Errorf("parse preferences %s: %w", path, err)
		}
	}

	s.vals.init()
	return s, nil
}

// Path returns the location of the preferences file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) GetBool(key string, def bool) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if v, ok := s.vals.Bools[key]; ok {
		return v
	}
	return def
}

func (s *FileStore) SetBool(key string, value bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.vals.Bools[key] = value
	s.save()
}

func (s *FileStore) GetInt(key string, def int) int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if v, ok := s.vals.Ints[key]; ok {
		return v
	}
	return def
}

func (s *FileStore) SetInt(key string, value int) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.vals.Ints[key] = value
	s.save()
}

func (s *FileStore) GetStringList(key string) []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return slices.Clone(s.vals.Lists[key])
}

func (s *FileStore) SetStringList(key string, value []string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.vals.Lists[key] = slices.Clone(value)
	s.save()
}

// save writes the file atomically. Caller must hold the write lock.
func (s *FileStore) save() {
	if err := s.write(); err != nil {
		s.log.Error("unable to save preferences", "path", s.path, "error", err)
	}
}

func (s *FileStore) write() error {
	content, err := yaml.Marshal(&s.vals)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".preferences-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
