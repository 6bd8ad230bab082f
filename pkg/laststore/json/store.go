package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

type state struct {
	LastLayout string `json:"last_layout"`
}

// Store keeps the last active layout in a small JSON file. Writes are
// deferred behind a dirty flag; SaveLooper flushes them periodically and on
// shutdown.
type Store struct {
	file  *os.File
	lock  sync.Mutex
	state state
	has   bool
	dirty bool
}

func NewStore(filename string) (*Store, error) {
	fileExists := true
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		fileExists = false
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	store := &Store{file: file}

	if fileExists {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
	}

	return store, nil
}

func (s *Store) Close() error {
	if err := s.save(); err != nil {
		return err
	}
	return s.file.Close()
}

func (s *Store) load() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	if err := json.NewDecoder(s.file).Decode(&s.state); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	s.has = s.state.LastLayout != ""

	return nil
}

func (s *Store) save() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.dirty {
		return nil
	}

	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	if err := json.NewEncoder(s.file).Encode(s.state); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	s.dirty = false

	return nil
}

// SaveLooper flushes pending writes once a minute and a final time when ctx
// is cancelled.
func (s *Store) SaveLooper(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if err := s.save(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
			return ctx.Err()
		case <-time.After(time.Minute):
			if err := s.save(); err != nil {
				return fmt.Errorf("save: %w", err)
			}
		}
	}
}

func (s *Store) LastLayout() (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state.LastLayout, s.has, nil
}

func (s *Store) SetLastLayout(code string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.LastLayout != code {
		s.state.LastLayout = code
		s.dirty = true
	}
	s.has = true

	return nil
}
