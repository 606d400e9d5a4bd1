// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/taskdeck/taskdeck/lib/board"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// MemStore is the in-memory Store implementation: one board.Index per
// board plus per-type identifier sequences, all guarded by a single
// RWMutex. Board contents live for the service's lifetime; boards are
// populated from seed files at startup and the history journal keeps
// the durable audit trail.
type MemStore struct {
	mu     sync.RWMutex
	boards map[string]*boardState
}

type boardState struct {
	index     *board.Index
	sequences map[task.Type]int64
}

// NewMemStore returns an empty store with no boards.
func NewMemStore() *MemStore {
	return &MemStore{boards: make(map[string]*boardState)}
}

// CreateBoard registers an empty board.
func (s *MemStore) CreateBoard(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.boards[name]; exists {
		return fmt.Errorf("board %q: %w", name, ErrBoardExists)
	}
	s.boards[name] = &boardState{
		index:     board.NewIndex(),
		sequences: make(map[task.Type]int64),
	}
	return nil
}

// Boards returns all registered board names, sorted.
func (s *MemStore) Boards() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.boards))
	for name := range s.boards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Get returns a task by identifier.
func (s *MemStore) Get(boardName, identifier string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, exists := s.boards[boardName]
	if !exists {
		return task.Task{}, fmt.Errorf("board %q: %w", boardName, ErrBoardNotFound)
	}
	content, exists := state.index.Get(identifier)
	if !exists {
		return task.Task{}, fmt.Errorf("%s: %w", identifier, ErrTaskNotFound)
	}
	return content, nil
}

// Insert adds a new task at revision 1.
func (s *MemStore) Insert(boardName string, content task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, exists := s.boards[boardName]
	if !exists {
		return task.Task{}, fmt.Errorf("board %q: %w", boardName, ErrBoardNotFound)
	}
	if _, exists := state.index.Get(content.Identifier); exists {
		return task.Task{}, fmt.Errorf("%s: %w", content.Identifier, ErrTaskExists)
	}
	content.Revision = 1
	state.index.Put(content)

	// Seeded tasks arrive with pre-assigned identifiers; keep the
	// sequence counter ahead of them so NextIdentifier never collides.
	if n, ok := identifierSequence(content.Identifier, content.Type); ok && n > state.sequences[content.Type] {
		state.sequences[content.Type] = n
	}
	return content, nil
}

// identifierSequence extracts the sequence number from an identifier
// of the form prefix-N for the given type. Returns false for
// identifiers that do not follow the convention.
func identifierSequence(identifier string, taskType task.Type) (int64, bool) {
	prefix := task.IdentifierPrefix(taskType) + "-"
	if !strings.HasPrefix(identifier, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(identifier[len(prefix):], 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// CompareAndSwap replaces the stored task if the caller's revision is
// current, then bumps the revision.
func (s *MemStore) CompareAndSwap(boardName string, content task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, exists := s.boards[boardName]
	if !exists {
		return task.Task{}, fmt.Errorf("board %q: %w", boardName, ErrBoardNotFound)
	}
	current, exists := state.index.Get(content.Identifier)
	if !exists {
		return task.Task{}, fmt.Errorf("%s: %w", content.Identifier, ErrTaskNotFound)
	}
	if current.Revision != content.Revision {
		return task.Task{}, fmt.Errorf("%s: have revision %d, stored %d: %w",
			content.Identifier, content.Revision, current.Revision, ErrRevisionConflict)
	}
	content.Revision++
	state.index.Put(content)
	return content, nil
}

// NextIdentifier reserves the next sequence number for the type and
// returns the formed identifier.
func (s *MemStore) NextIdentifier(boardName string, taskType task.Type) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, exists := s.boards[boardName]
	if !exists {
		return "", fmt.Errorf("board %q: %w", boardName, ErrBoardNotFound)
	}
	state.sequences[taskType]++
	return fmt.Sprintf("%s-%d", task.IdentifierPrefix(taskType), state.sequences[taskType]), nil
}

// View runs fn with shared read access to the board's index.
func (s *MemStore) View(boardName string, fn func(*board.Index) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, exists := s.boards[boardName]
	if !exists {
		return fmt.Errorf("board %q: %w", boardName, ErrBoardNotFound)
	}
	return fn(state.index)
}
