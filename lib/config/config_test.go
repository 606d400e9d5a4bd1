// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "taskdeck.yaml", `
paths:
  root: /srv/taskdeck
  state: ${TASKDECK_ROOT}/state
service:
  socket_path: ${TASKDECK_ROOT}/run/board.sock
  claim_ttl: 30m
boards:
  - name: mainline
    seed_file: ${TASKDECK_ROOT}/seeds/mainline.jsonc
  - name: experiments
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.State != "/srv/taskdeck/state" {
		t.Errorf("state path expansion: %q", cfg.Paths.State)
	}
	if cfg.Service.SocketPath != "/srv/taskdeck/run/board.sock" {
		t.Errorf("socket path expansion: %q", cfg.Service.SocketPath)
	}
	if cfg.Boards[0].SeedFile != "/srv/taskdeck/seeds/mainline.jsonc" {
		t.Errorf("seed file expansion: %q", cfg.Boards[0].SeedFile)
	}
	ttl, err := cfg.ClaimTTL()
	if err != nil {
		t.Fatalf("ClaimTTL: %v", err)
	}
	if ttl != 30*time.Minute {
		t.Errorf("ClaimTTL: got %s", ttl)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		errPart string
	}{
		{"no boards", func(c *Config) { c.Boards = nil }, "at least one board"},
		{"unnamed board", func(c *Config) { c.Boards = []BoardConfig{{}} }, "name is required"},
		{"duplicate board", func(c *Config) {
			c.Boards = []BoardConfig{{Name: "a"}, {Name: "a"}}
		}, "duplicate board"},
		{"bad ttl", func(c *Config) {
			c.Boards = []BoardConfig{{Name: "a"}}
			c.Service.ClaimTTL = "soon"
		}, "claim_ttl"},
		{"negative ttl", func(c *Config) {
			c.Boards = []BoardConfig{{Name: "a"}}
			c.Service.ClaimTTL = "-5m"
		}, "must be positive"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate: expected error")
			}
			if !strings.Contains(err.Error(), test.errPart) {
				t.Errorf("Validate: error %q does not contain %q", err, test.errPart)
			}
		})
	}
}

func TestLoadSeed(t *testing.T) {
	path := writeFile(t, "mainline.jsonc", `[
  // The milestone everything hangs off.
  {
    "identifier": "gol-1",
    "title": "ship the widget",
    "type": "goal",
  },
  {
    "identifier": "wrk-1",
    "title": "build the widget",
    "parent": "gol-1",
    "priority": "high",
    "required_capabilities": ["golang"],
    "needs_review": true,
  },
  {
    "identifier": "wrk-2",
    "title": "document the widget",
    "dependencies": ["wrk-1"],
  },
]`)
	seeds, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(seeds) != 3 {
		t.Fatalf("LoadSeed: got %d tasks", len(seeds))
	}
	if seeds[0].Type != task.TypeGoal {
		t.Errorf("seed type: %q", seeds[0].Type)
	}
	if !seeds[1].NeedsReview || seeds[1].Priority != task.PriorityHigh {
		t.Errorf("seed fields: %+v", seeds[1])
	}
	if seeds[2].Dependencies[0] != "wrk-1" {
		t.Errorf("seed dependencies: %+v", seeds[2])
	}
}

func TestLoadSeedRejects(t *testing.T) {
	missingIdentifier := writeFile(t, "bad.jsonc", `[{"title": "no identifier"}]`)
	if _, err := LoadSeed(missingIdentifier); err == nil {
		t.Error("seed without identifier accepted")
	}
	badType := writeFile(t, "badtype.jsonc", `[{"identifier": "wrk-1", "title": "x", "type": "epic"}]`)
	if _, err := LoadSeed(badType); err == nil {
		t.Error("seed with unknown type accepted")
	}
}
