// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"errors"
	"slices"
	"testing"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

func storedTask(identifier string) task.Task {
	return task.Task{
		ID:         "t-" + identifier,
		Identifier: identifier,
		Board:      "mainline",
		Title:      "task " + identifier,
		Type:       task.TypeWork,
		Status:     task.StatusOpen,
		Priority:   task.PriorityMedium,
		CreatedBy:  "agent/seed",
		CreatedAt:  "2026-01-01T00:00:00Z",
		UpdatedAt:  "2026-01-01T00:00:00Z",
	}
}

func TestMemStoreBoards(t *testing.T) {
	store := NewMemStore()
	if err := store.CreateBoard("mainline"); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if err := store.CreateBoard("mainline"); !errors.Is(err, ErrBoardExists) {
		t.Errorf("duplicate CreateBoard: got %v, want ErrBoardExists", err)
	}
	if err := store.CreateBoard("experiments"); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if got := store.Boards(); !slices.Equal(got, []string{"experiments", "mainline"}) {
		t.Errorf("Boards: got %v", got)
	}
	if _, err := store.Get("absent", "wrk-1"); !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("Get on missing board: got %v, want ErrBoardNotFound", err)
	}
}

func TestMemStoreInsertAndGet(t *testing.T) {
	store := NewMemStore()
	store.CreateBoard("mainline")

	stored, err := store.Insert("mainline", storedTask("wrk-1"))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if stored.Revision != 1 {
		t.Errorf("Insert revision: got %d, want 1", stored.Revision)
	}
	if _, err := store.Insert("mainline", storedTask("wrk-1")); !errors.Is(err, ErrTaskExists) {
		t.Errorf("duplicate Insert: got %v, want ErrTaskExists", err)
	}
	got, err := store.Get("mainline", "wrk-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "task wrk-1" {
		t.Errorf("Get: %+v", got)
	}
	if _, err := store.Get("mainline", "wrk-404"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get missing: got %v, want ErrTaskNotFound", err)
	}
}

func TestMemStoreCompareAndSwap(t *testing.T) {
	store := NewMemStore()
	store.CreateBoard("mainline")
	stored, _ := store.Insert("mainline", storedTask("wrk-1"))

	// Two readers both take revision 1; only one write wins.
	first := stored
	second := stored

	first.Title = "first writer"
	updated, err := store.CompareAndSwap("mainline", first)
	if err != nil {
		t.Fatalf("CompareAndSwap: %v", err)
	}
	if updated.Revision != 2 {
		t.Errorf("revision after swap: got %d, want 2", updated.Revision)
	}

	second.Title = "second writer"
	if _, err := store.CompareAndSwap("mainline", second); !errors.Is(err, ErrRevisionConflict) {
		t.Errorf("stale swap: got %v, want ErrRevisionConflict", err)
	}

	got, _ := store.Get("mainline", "wrk-1")
	if got.Title != "first writer" {
		t.Errorf("losing write leaked through: %q", got.Title)
	}
}

func TestMemStoreNextIdentifier(t *testing.T) {
	store := NewMemStore()
	store.CreateBoard("mainline")

	first, err := store.NextIdentifier("mainline", task.TypeWork)
	if err != nil {
		t.Fatalf("NextIdentifier: %v", err)
	}
	if first != "wrk-1" {
		t.Errorf("first work identifier: got %q", first)
	}
	if second, _ := store.NextIdentifier("mainline", task.TypeWork); second != "wrk-2" {
		t.Errorf("second work identifier: got %q", second)
	}
	if defect, _ := store.NextIdentifier("mainline", task.TypeDefect); defect != "dft-1" {
		t.Errorf("defect sequence must be independent: got %q", defect)
	}

	// Seeded identifiers push the sequence forward.
	seeded := storedTask("wrk-9")
	if _, err := store.Insert("mainline", seeded); err != nil {
		t.Fatalf("Insert seeded: %v", err)
	}
	if next, _ := store.NextIdentifier("mainline", task.TypeWork); next != "wrk-10" {
		t.Errorf("sequence after seeded wrk-9: got %q, want wrk-10", next)
	}
}
