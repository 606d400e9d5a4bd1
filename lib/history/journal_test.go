// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"path/filepath"
	"testing"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.cbor.zst")

	journal, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	events := []Event{
		{At: "2026-02-01T12:00:00Z", Board: "mainline", Task: "wrk-1", Action: "create", Actor: "agent/seed", To: "open"},
		{
			At: "2026-02-01T12:01:00Z", Board: "mainline", Task: "wrk-1",
			Action: "claim", Actor: "agent/alpha", From: "open", To: "in_progress",
			Hooks: map[string]task.HookResult{
				"before_doing": {ExitCode: 0, DurationMS: 420},
			},
		},
		{
			At: "2026-02-01T13:00:00Z", Board: "mainline", Task: "wrk-1",
			Action: "complete", Actor: "agent/alpha", From: "in_progress", To: "completed",
			Unblocked: []string{"wrk-2", "wrk-3"},
		},
	}
	for _, event := range events {
		if err := journal.Record(event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	replayed, err := Replay(path)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(replayed) != len(events) {
		t.Fatalf("Replay: got %d events, want %d", len(replayed), len(events))
	}
	if replayed[1].Hooks["before_doing"].DurationMS != 420 {
		t.Errorf("hook proof lost in round trip: %+v", replayed[1].Hooks)
	}
	if replayed[2].Unblocked[1] != "wrk-3" {
		t.Errorf("unblocked list lost in round trip: %+v", replayed[2].Unblocked)
	}
}

func TestJournalAppendAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.cbor.zst")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.Record(Event{At: "2026-02-01T12:00:00Z", Task: "wrk-1", Action: "create"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := second.Record(Event{At: "2026-02-01T12:05:00Z", Task: "wrk-1", Action: "claim"}); err != nil {
		t.Fatalf("Record after reopen: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	replayed, err := Replay(path)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(replayed) != 2 {
		t.Fatalf("Replay across frames: got %d events, want 2", len(replayed))
	}
	if replayed[0].Action != "create" || replayed[1].Action != "claim" {
		t.Errorf("event order lost: %+v", replayed)
	}
}

func TestReplayMissingFile(t *testing.T) {
	events, err := Replay(filepath.Join(t.TempDir(), "absent.cbor.zst"))
	if err != nil {
		t.Fatalf("Replay of missing file: %v", err)
	}
	if events != nil {
		t.Errorf("missing file must replay as empty, got %+v", events)
	}
}
