// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"slices"

	"github.com/taskdeck/taskdeck/lib/board"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// unblockDependents moves every dependent of the given task from
// blocked to open once its full dependency list is satisfied.
// Dependents with other unfinished dependencies stay blocked, and
// nothing is ever claimed on the dependent's behalf: unblocking only
// returns tasks to the pool. Returns the unblocked identifiers,
// sorted.
func (c *Core) unblockDependents(boardName, identifier, at string) ([]string, error) {
	var candidates []task.Task
	err := c.store.View(boardName, func(idx *board.Index) error {
		for _, depID := range idx.Dependents(identifier) {
			content, exists := idx.Get(depID)
			if !exists || content.Status != task.StatusBlocked {
				continue
			}
			if idx.Dependencies(depID).Satisfied {
				candidates = append(candidates, content)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var unblocked []string
	for _, content := range candidates {
		opened, err := c.openIfStillBlocked(boardName, content, at)
		if err != nil {
			return nil, err
		}
		if opened {
			unblocked = append(unblocked, content.Identifier)
		}
	}
	slices.Sort(unblocked)
	return unblocked, nil
}

// openIfStillBlocked writes the blocked→open transition for one
// dependent, retrying on revision conflict against the fresh copy. A
// dependent that left blocked through some concurrent path is left
// alone.
func (c *Core) openIfStillBlocked(boardName string, content task.Task, at string) (bool, error) {
	for {
		content.Status = task.StatusOpen
		content.UpdatedAt = at
		if _, err := c.store.CompareAndSwap(boardName, content); err == nil {
			return true, nil
		} else if !isConflict(err) {
			return false, err
		}
		fresh, err := c.store.Get(boardName, content.Identifier)
		if err != nil {
			return false, err
		}
		if fresh.Status != task.StatusBlocked {
			return false, nil
		}
		content = fresh
	}
}

// releaseClaim clears the claim and any review state, then returns the
// task to the pool via writeReleased.
func (c *Core) releaseClaim(boardName string, content task.Task, at string) (task.Task, error) {
	content.ClaimedBy = ""
	content.ClaimedAt = ""
	content.ClaimExpiresAt = ""
	content.ReviewStatus = ""
	content.ReviewedAt = ""
	content.ReviewedBy = ""
	content.UpdatedAt = at
	return c.writeReleased(boardName, content)
}

// writeReleased recomputes the unclaimed task's status from its
// dependency list — open when satisfied, blocked otherwise — and
// writes it. Dependencies are re-evaluated here because the graph may
// have changed while the task was claimed.
func (c *Core) writeReleased(boardName string, content task.Task) (task.Task, error) {
	satisfied := true
	err := c.store.View(boardName, func(idx *board.Index) error {
		satisfied = idx.Dependencies(content.Identifier).Satisfied
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	if satisfied {
		content.Status = task.StatusOpen
	} else {
		content.Status = task.StatusBlocked
	}
	return c.store.CompareAndSwap(boardName, content)
}
