// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the task data model shared by the board index,
// the coordination core, and the board service socket protocol.
//
// A Task is a unit of work on a board, tracked through a fixed
// lifecycle: open → in_progress → completed, with blocked as the
// automatic state for tasks whose dependencies are not all completed,
// and a review-pending substate of in_progress for tasks that require
// review before finalizing. Claims are exclusive, time-limited
// assignments; expiry is a pure read-time predicate (EffectiveStatus),
// never a background sweep.
//
// This package is pure data: no I/O, no clock, no storage. Functions
// that need the current time take it as a parameter.
package task
