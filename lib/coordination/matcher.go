// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"time"

	"github.com/taskdeck/taskdeck/lib/board"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// HasCapabilities reports whether the agent's capability set contains
// every required tag (set containment, not intersection). An empty
// requirement list matches any agent, including one advertising no
// capabilities at all.
func HasCapabilities(agentCapabilities, required []string) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(agentCapabilities))
	for _, capability := range agentCapabilities {
		held[capability] = struct{}{}
	}
	for _, capability := range required {
		if _, ok := held[capability]; !ok {
			return false
		}
	}
	return true
}

// selectCandidates returns the claimable tasks the agent qualifies
// for, in claim order (priority rank, then creation time), excluding
// any identifiers in skip. The skip set holds tasks already lost to a
// concurrent claimant during this claim's retry loop.
func selectCandidates(idx *board.Index, now time.Time, capabilities []string, skip map[string]struct{}) []board.Entry {
	ready := idx.Ready(now)
	candidates := ready[:0:0]
	for _, entry := range ready {
		if _, skipped := skip[entry.Identifier]; skipped {
			continue
		}
		if HasCapabilities(capabilities, entry.Task.RequiredCapabilities) {
			candidates = append(candidates, entry)
		}
	}
	return candidates
}

// claimableNow reports whether a specific task could be handed to an
// agent with the given capabilities right now: claimable per its own
// state, capability-matched, and with all dependencies completed.
func claimableNow(idx *board.Index, content *task.Task, now time.Time, capabilities []string) bool {
	return content.Claimable(now) &&
		HasCapabilities(capabilities, content.RequiredCapabilities) &&
		idx.Dependencies(content.Identifier).Satisfied
}
