// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"fmt"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// ValidateProofs checks the supplied hook proofs against the hooks a
// transition requires, in order, stopping at the first failure. Each
// required hook must have a proof present (missing proof is its own
// failure mode, distinct from a failed run), structurally valid, and —
// for blocking hooks — a zero exit code. A nonzero exit from a
// non-blocking hook is accepted; the proof still lands in the journal.
//
// Validation is pure: no hook is executed here. The caller ran the
// hooks; this only judges the evidence.
func ValidateProofs(required []task.HookName, proofs map[string]*task.HookResult) error {
	for _, hook := range required {
		proof, present := proofs[string(hook)]
		if !present || proof == nil {
			return &HookValidationError{Hook: hook, Missing: true}
		}
		if err := proof.Validate(); err != nil {
			return fmt.Errorf("hook %s: %w", hook, err)
		}
		if proof.ExitCode != 0 && hook.Blocking() {
			return &HookValidationError{Hook: hook, ExitCode: proof.ExitCode}
		}
	}
	return nil
}
