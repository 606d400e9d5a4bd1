// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package version exposes the build version of taskdeck binaries.
package version

// version is overridden at build time via
// -ldflags "-X github.com/taskdeck/taskdeck/lib/version.version=v1.2.3".
var version = "dev"

// Info returns the version string baked into this binary.
func Info() string {
	return version
}
