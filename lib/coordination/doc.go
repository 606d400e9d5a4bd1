// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordination implements the task lifecycle rules on top of a
// board store: capability-matched claim selection, atomic claiming via
// compare-and-swap, dependency resolution on completion, hook proof
// validation, and the review flow.
//
// The package deals in typed outcomes. Every rejection a caller might
// act on programmatically — contention, authorization, illegal status,
// failed hook proof, unmet dependencies — is a distinct error value or
// type, never a bare string to parse.
package coordination
