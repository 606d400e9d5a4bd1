// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "testing"

func TestHookNames(t *testing.T) {
	for _, hook := range []HookName{HookBeforeDoing, HookAfterDoing, HookBeforeReview, HookAfterReview} {
		if !IsValidHook(hook) {
			t.Errorf("IsValidHook(%q) = false", hook)
		}
		if !hook.Blocking() {
			t.Errorf("%q must be blocking in the reference workflow", hook)
		}
	}
	if IsValidHook("post_merge") {
		t.Error("IsValidHook accepted unknown hook")
	}
	if HookName("post_merge").Blocking() {
		t.Error("unknown hook reported blocking")
	}
}

func TestHookResultValidate(t *testing.T) {
	var missing *HookResult
	if err := missing.Validate(); err == nil {
		t.Error("nil hook result must fail validation")
	}

	result := &HookResult{ExitCode: 1, Output: "tests failed", DurationMS: 1200}
	if err := result.Validate(); err != nil {
		t.Errorf("structurally valid result rejected: %v", err)
	}

	result.DurationMS = -1
	if err := result.Validate(); err == nil {
		t.Error("negative duration must fail validation")
	}
}
