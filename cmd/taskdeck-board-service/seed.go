// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/lib/config"
	"github.com/taskdeck/taskdeck/lib/coordination"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// seedBoards creates every configured board and loads its seed file,
// if any. Seed entries are inserted in file order; dependencies and
// parents must reference entries defined earlier in the same file, so
// the resulting graph is acyclic by construction.
func (bs *BoardService) seedBoards(boards []config.BoardConfig) error {
	for _, boardCfg := range boards {
		if err := bs.store.CreateBoard(boardCfg.Name); err != nil {
			return err
		}
		if boardCfg.SeedFile == "" {
			continue
		}
		count, err := bs.seedBoard(boardCfg.Name, boardCfg.SeedFile)
		if err != nil {
			return fmt.Errorf("seeding board %q: %w", boardCfg.Name, err)
		}
		bs.logger.Info("board seeded", "board", boardCfg.Name, "tasks", count)
	}
	return nil
}

func (bs *BoardService) seedBoard(boardName, seedFile string) (int, error) {
	seeds, err := config.LoadSeed(seedFile)
	if err != nil {
		return 0, err
	}

	at := bs.clock.Now().UTC().Format(time.RFC3339)
	seen := make(map[string]task.Type, len(seeds))
	for _, seed := range seeds {
		taskType := seed.Type
		if taskType == "" {
			taskType = task.TypeWork
		}
		priority := seed.Priority
		if priority == "" {
			priority = task.PriorityMedium
		}
		for _, dep := range seed.Dependencies {
			if _, ok := seen[dep]; !ok {
				return 0, fmt.Errorf("task %q: dependency %q must be defined earlier in the seed file",
					seed.Identifier, dep)
			}
		}
		if seed.Parent != "" {
			parentType, ok := seen[seed.Parent]
			if !ok {
				return 0, fmt.Errorf("task %q: parent %q must be defined earlier in the seed file",
					seed.Identifier, seed.Parent)
			}
			if parentType != task.TypeGoal {
				return 0, fmt.Errorf("task %q: parent %q is not a goal", seed.Identifier, seed.Parent)
			}
		}

		// Nothing in a seed file is completed, so any dependency list
		// means the task starts blocked.
		status := task.StatusOpen
		if len(seed.Dependencies) > 0 {
			status = task.StatusBlocked
		}
		content := task.Task{
			ID:                   coordination.SurrogateID(boardName, seed.Identifier, at),
			Identifier:           seed.Identifier,
			Board:                boardName,
			Title:                seed.Title,
			Body:                 seed.Body,
			Type:                 taskType,
			Status:               status,
			Priority:             priority,
			RequiredCapabilities: seed.RequiredCapabilities,
			Dependencies:         seed.Dependencies,
			Parent:               seed.Parent,
			NeedsReview:          seed.NeedsReview,
			CreatedBy:            "seed",
			CreatedAt:            at,
			UpdatedAt:            at,
		}
		if err := content.Validate(); err != nil {
			return 0, err
		}
		if _, err := bs.store.Insert(boardName, content); err != nil {
			return 0, err
		}
		seen[seed.Identifier] = taskType
	}
	return len(seeds), nil
}
