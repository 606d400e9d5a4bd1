// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// SeedTask is one task in a board seed file. Seed files are JSONC
// (JSON with comments and trailing commas) so boards can be annotated
// in place. Identifiers are fixed by the author, not sequenced, so
// dependency references within the file are stable.
type SeedTask struct {
	Identifier           string        `json:"identifier"`
	Title                string        `json:"title"`
	Body                 string        `json:"body,omitempty"`
	Type                 task.Type     `json:"type,omitempty"`
	Priority             task.Priority `json:"priority,omitempty"`
	RequiredCapabilities []string      `json:"required_capabilities,omitempty"`
	Dependencies         []string      `json:"dependencies,omitempty"`
	Parent               string        `json:"parent,omitempty"`
	NeedsReview          bool          `json:"needs_review,omitempty"`
}

// LoadSeed reads a JSONC seed file and returns its tasks in file
// order. Structural validation only; referential checks (dependency
// existence, parent type) happen when the tasks are inserted.
func LoadSeed(path string) ([]SeedTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []SeedTask
	if err := json.Unmarshal(jsonc.ToJSON(data), &seeds); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, seed := range seeds {
		if seed.Identifier == "" {
			return nil, fmt.Errorf("seed file %s: task %d: identifier is required", path, i)
		}
		if seed.Title == "" {
			return nil, fmt.Errorf("seed file %s: task %q: title is required", path, seed.Identifier)
		}
		if seed.Type != "" && !task.IsValidType(seed.Type) {
			return nil, fmt.Errorf("seed file %s: task %q: unknown type %q", path, seed.Identifier, seed.Type)
		}
		if seed.Priority != "" && !task.IsValidPriority(seed.Priority) {
			return nil, fmt.Errorf("seed file %s: task %q: unknown priority %q", path, seed.Identifier, seed.Priority)
		}
	}
	return seeds, nil
}
