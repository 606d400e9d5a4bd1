// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

var (
	// ErrNoTasksAvailable means a claim found no claimable task
	// matching the agent's capabilities after exhausting the pool.
	// Not an error condition for the caller so much as "come back
	// later".
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrTaskUnavailable means a directed claim named a task that
	// cannot be handed over right now. Deliberately covers both
	// "does not exist" and "exists but not claimable": a claim
	// request is not a probe for board contents.
	ErrTaskUnavailable = errors.New("task unavailable")

	// ErrNotClaimed means an operation that requires an active claim
	// (complete, unclaim) found the task unclaimed.
	ErrNotClaimed = errors.New("task is not claimed")

	// ErrDependencyCycle means a create or dependency edit would make
	// the dependency graph cyclic.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrRevisionConflict means a compare-and-swap lost the race: the
	// task changed between read and write. Claim retries on it; other
	// callers surface it as contention.
	ErrRevisionConflict = errors.New("revision conflict")

	// ErrTaskNotFound means the named task does not exist on the board.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists means an insert collided with an existing
	// identifier.
	ErrTaskExists = errors.New("task already exists")

	// ErrBoardNotFound means the named board is not registered.
	ErrBoardNotFound = errors.New("board not found")

	// ErrBoardExists means board creation collided with an existing
	// name.
	ErrBoardExists = errors.New("board already exists")
)

// NotAuthorizedError means the caller identity is not permitted to
// perform the operation on this task: completing or unclaiming a task
// claimed by someone else, or reviewing one's own work.
type NotAuthorizedError struct {
	Action string // "complete", "unclaim", "mark_reviewed"
	Actor  string
	Holder string // the identity that would be authorized
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("%s: %s is not authorized (claim held by %s)", e.Action, e.Actor, e.Holder)
}

// InvalidStatusError means the task's current lifecycle state does not
// permit the requested operation.
type InvalidStatusError struct {
	Action     string
	Identifier string
	Status     task.Status
	// ReviewStatus qualifies in_progress: non-empty when the task is
	// in the review-pending substate.
	ReviewStatus task.ReviewStatus
}

func (e *InvalidStatusError) Error() string {
	if e.ReviewStatus != "" {
		return fmt.Sprintf("%s: %s has status %s (review %s)", e.Action, e.Identifier, e.Status, e.ReviewStatus)
	}
	return fmt.Sprintf("%s: %s has status %s", e.Action, e.Identifier, e.Status)
}

// HookValidationError means a lifecycle transition was rejected
// because a required hook proof was missing or reported failure.
// Missing and failed are distinct: a missing proof means the caller
// never ran the hook, a nonzero exit means it ran and failed.
type HookValidationError struct {
	Hook     task.HookName
	Missing  bool
	ExitCode int
}

func (e *HookValidationError) Error() string {
	if e.Missing {
		return fmt.Sprintf("hook %s: proof of execution missing", e.Hook)
	}
	return fmt.Sprintf("hook %s: exited with code %d", e.Hook, e.ExitCode)
}

// DependencyError reports why a task's dependency list is not
// satisfied: which dependencies exist but are not completed, and which
// do not exist at all.
type DependencyError struct {
	Identifier string
	Incomplete []string
	Missing    []string
}

func (e *DependencyError) Error() string {
	var parts []string
	if len(e.Incomplete) > 0 {
		parts = append(parts, fmt.Sprintf("incomplete: %s", strings.Join(e.Incomplete, ", ")))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing: %s", strings.Join(e.Missing, ", ")))
	}
	return fmt.Sprintf("%s has unmet dependencies (%s)", e.Identifier, strings.Join(parts, "; "))
}
