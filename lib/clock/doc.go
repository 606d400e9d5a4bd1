// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now
// or time.After directly. Real() provides standard library behavior;
// Fake() provides a deterministic clock that advances only when Advance
// is called. Claim expiry in the coordination core is a pure read-time
// predicate over Clock.Now, so the fake clock makes TTL behavior fully
// deterministic in tests: claim at T, Advance past the TTL, observe the
// task become claimable again.
package clock
