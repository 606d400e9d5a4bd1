// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package board maintains the in-memory index for a single board: the
// primary task map keyed by identifier, secondary indexes for filtered
// queries, and the dependency graph used for readiness computation and
// cycle rejection.
//
// The index is a pure data structure. It does not lock, does not touch
// the clock on its own (time-dependent queries take now as a
// parameter), and does not validate — the store validates before
// writing. Concurrency control is the store's job.
package board
