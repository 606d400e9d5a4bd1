// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"errors"
	"testing"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

func passingProofs(hooks ...task.HookName) map[string]*task.HookResult {
	proofs := make(map[string]*task.HookResult, len(hooks))
	for _, hook := range hooks {
		proofs[string(hook)] = &task.HookResult{ExitCode: 0, DurationMS: 100}
	}
	return proofs
}

func TestValidateProofsPasses(t *testing.T) {
	required := []task.HookName{task.HookAfterDoing, task.HookBeforeReview}
	if err := ValidateProofs(required, passingProofs(required...)); err != nil {
		t.Fatalf("ValidateProofs: %v", err)
	}
	// Extra proofs beyond the required set are fine.
	proofs := passingProofs(task.HookBeforeDoing, task.HookAfterDoing)
	if err := ValidateProofs([]task.HookName{task.HookBeforeDoing}, proofs); err != nil {
		t.Fatalf("ValidateProofs with extra proofs: %v", err)
	}
}

func TestValidateProofsMissing(t *testing.T) {
	err := ValidateProofs([]task.HookName{task.HookBeforeDoing}, nil)
	var hookErr *HookValidationError
	if !errors.As(err, &hookErr) {
		t.Fatalf("ValidateProofs: got %v, want HookValidationError", err)
	}
	if !hookErr.Missing || hookErr.Hook != task.HookBeforeDoing {
		t.Errorf("missing proof misreported: %+v", hookErr)
	}

	// A nil proof under the right key is still missing.
	err = ValidateProofs([]task.HookName{task.HookBeforeDoing},
		map[string]*task.HookResult{"before_doing": nil})
	if !errors.As(err, &hookErr) || !hookErr.Missing {
		t.Errorf("nil proof misreported: %v", err)
	}
}

func TestValidateProofsNonzeroExit(t *testing.T) {
	proofs := passingProofs(task.HookAfterDoing)
	proofs["after_doing"].ExitCode = 3

	err := ValidateProofs([]task.HookName{task.HookAfterDoing}, proofs)
	var hookErr *HookValidationError
	if !errors.As(err, &hookErr) {
		t.Fatalf("ValidateProofs: got %v, want HookValidationError", err)
	}
	if hookErr.Missing {
		t.Error("failed run misreported as missing proof")
	}
	if hookErr.ExitCode != 3 {
		t.Errorf("ExitCode: got %d, want 3", hookErr.ExitCode)
	}
}

func TestValidateProofsShortCircuits(t *testing.T) {
	// First required hook fails; the second one's proof is absent, but
	// validation must report the first failure.
	proofs := passingProofs(task.HookAfterDoing)
	proofs["after_doing"].ExitCode = 1

	err := ValidateProofs([]task.HookName{task.HookAfterDoing, task.HookBeforeReview}, proofs)
	var hookErr *HookValidationError
	if !errors.As(err, &hookErr) {
		t.Fatalf("ValidateProofs: got %v", err)
	}
	if hookErr.Hook != task.HookAfterDoing {
		t.Errorf("short circuit: reported %s, want after_doing", hookErr.Hook)
	}
}

func TestValidateProofsStructural(t *testing.T) {
	proofs := map[string]*task.HookResult{
		"before_doing": {ExitCode: 0, DurationMS: -5},
	}
	err := ValidateProofs([]task.HookName{task.HookBeforeDoing}, proofs)
	if err == nil {
		t.Fatal("structurally invalid proof accepted")
	}
	var hookErr *HookValidationError
	if errors.As(err, &hookErr) {
		t.Errorf("structural failure misreported as policy failure: %v", err)
	}
}
