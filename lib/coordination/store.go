// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"github.com/taskdeck/taskdeck/lib/board"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Store is the board persistence contract the coordination core runs
// against. Implementations must make CompareAndSwap atomic with
// respect to concurrent writers: two callers racing to update the same
// revision must see exactly one winner, the other ErrRevisionConflict.
// Everything the core guarantees about claim exclusivity rests on that
// property.
type Store interface {
	// CreateBoard registers an empty board. ErrBoardExists if the name
	// is taken.
	CreateBoard(name string) error

	// Boards returns all registered board names, sorted.
	Boards() []string

	// Get returns a task by identifier. ErrBoardNotFound or
	// ErrTaskNotFound on miss.
	Get(boardName, identifier string) (task.Task, error)

	// Insert adds a new task and assigns it revision 1. ErrTaskExists
	// if the identifier is taken.
	Insert(boardName string, content task.Task) (task.Task, error)

	// CompareAndSwap replaces the stored task if and only if the
	// stored revision equals content.Revision, then bumps the
	// revision. Returns the stored result, or ErrRevisionConflict if
	// the caller's copy is stale.
	CompareAndSwap(boardName string, content task.Task) (task.Task, error)

	// NextIdentifier reserves the next per-board sequence number for
	// the given type and returns the formed identifier (e.g. "wrk-7").
	NextIdentifier(boardName string, taskType task.Type) (string, error)

	// View runs fn with read access to the board's index. fn must not
	// retain the index or mutate it; writes go through Insert and
	// CompareAndSwap.
	View(boardName string, fn func(*board.Index) error) error
}
