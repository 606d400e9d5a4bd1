// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/taskdeck/taskdeck/lib/codec"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Event is one accepted lifecycle transition. Timestamps are RFC 3339
// UTC strings, matching the task model.
type Event struct {
	// At is when the transition was accepted.
	At string `json:"at"`

	// Board and Task identify the affected task.
	Board string `json:"board"`
	Task  string `json:"task"`

	// Action is the operation: "create", "claim", "complete",
	// "unclaim", "mark_reviewed".
	Action string `json:"action"`

	// Actor is the caller identity the transition was accepted from.
	Actor string `json:"actor"`

	// From and To are the stored statuses before and after.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// ReviewStatus is the review disposition recorded by the
	// transition, if any.
	ReviewStatus string `json:"review_status,omitempty"`

	// Unblocked lists dependents moved from blocked to open by this
	// transition.
	Unblocked []string `json:"unblocked,omitempty"`

	// Hooks holds the proof-of-execution records supplied with the
	// transition, keyed by hook name. Proofs live only here.
	Hooks map[string]task.HookResult `json:"hooks,omitempty"`
}

// Recorder accepts events for archival. The coordination core records
// through this interface so tests can run without a journal file.
type Recorder interface {
	Record(event Event) error
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) Record(Event) error { return nil }

// Journal is a file-backed Recorder. Each Record call appends one
// CBOR event and flushes the compressor, so every accepted transition
// is on disk before the caller sees success. Safe for concurrent use.
//
// Appends after a reopen start a fresh zstd frame; the decoder treats
// the file as a sequence of frames, so Replay reads across restarts.
type Journal struct {
	mu         sync.Mutex
	file       *os.File
	compressor *zstd.Encoder
	encoder    *codec.Encoder
}

// Open opens (or creates) the journal file for appending.
func Open(path string) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	compressor, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("journal compressor: %w", err)
	}
	return &Journal{
		file:       file,
		compressor: compressor,
		encoder:    codec.NewEncoder(compressor),
	}, nil
}

// Record appends one event and flushes it to the file.
func (j *Journal) Record(event Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.encoder.Encode(event); err != nil {
		return fmt.Errorf("encode journal event: %w", err)
	}
	if err := j.compressor.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return nil
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	closeErr := j.compressor.Close()
	if err := j.file.Close(); err != nil {
		return err
	}
	return closeErr
}

// Replay reads every event from a journal file in write order. A
// missing file is an empty journal, not an error.
func Replay(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	decompressor, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("journal decompressor: %w", err)
	}
	defer decompressor.Close()

	decoder := codec.NewDecoder(decompressor)
	var events []Event
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, fmt.Errorf("decode journal event %d: %w", len(events), err)
		}
		events = append(events, event)
	}
}
