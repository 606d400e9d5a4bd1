// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package history provides the append-only transition journal: one
// CBOR-encoded event per accepted lifecycle transition, written
// through a zstd compressor. The journal is the audit trail — hook
// proofs are archived here, never on the task — and Replay reads it
// back for inspection tooling.
package history
