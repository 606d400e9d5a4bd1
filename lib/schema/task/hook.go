// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
)

// HookName identifies a client-side action whose outcome must be
// reported as proof before a lifecycle transition is accepted.
type HookName string

const (
	// HookBeforeDoing gates claim: the caller proves its workspace
	// preparation (e.g., pulling code) ran before receiving a task.
	HookBeforeDoing HookName = "before_doing"

	// HookAfterDoing gates completion: proof that the finishing
	// actions (e.g., running tests) ran after the work.
	HookAfterDoing HookName = "after_doing"

	// HookBeforeReview gates completion of needs_review tasks
	// alongside after_doing: proof that review preparation ran.
	HookBeforeReview HookName = "before_review"

	// HookAfterReview gates mark-reviewed: proof that post-review
	// actions ran before the task finalizes.
	HookAfterReview HookName = "after_review"
)

// blockingHooks records which hooks reject the transition on a nonzero
// exit code. All four lifecycle hooks are blocking in the reference
// workflow; a non-blocking hook's nonzero exit is logged, not rejected,
// but its proof must still be supplied for the audit trail.
var blockingHooks = map[HookName]bool{
	HookBeforeDoing:  true,
	HookAfterDoing:   true,
	HookBeforeReview: true,
	HookAfterReview:  true,
}

// IsValidHook reports whether the given name is a recognized lifecycle
// hook.
func IsValidHook(hook HookName) bool {
	_, known := blockingHooks[hook]
	return known
}

// Blocking reports whether a nonzero exit code from this hook rejects
// the associated transition.
func (h HookName) Blocking() bool {
	return blockingHooks[h]
}

// HookResult is the proof-of-execution record a caller supplies for a
// hook. Wire shape: {"exit_code": <int>, "output": <string>,
// "duration_ms": <int>}. It is ephemeral — never stored on the task,
// only archived in the board's history journal alongside the
// transition it gated.
type HookResult struct {
	// ExitCode is the hook process's exit status. Zero means success.
	ExitCode int `json:"exit_code"`

	// Output is the hook's captured output, kept for the audit trail.
	Output string `json:"output,omitempty"`

	// DurationMS is how long the hook ran, in milliseconds.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// Validate checks structural well-formedness of the proof itself.
// Exit-code policy (zero vs nonzero) is the coordination core's
// concern, not structure.
func (r *HookResult) Validate() error {
	if r == nil {
		return errors.New("hook result: record is required")
	}
	if r.DurationMS < 0 {
		return fmt.Errorf("hook result: duration_ms must be >= 0, got %d", r.DurationMS)
	}
	return nil
}
