// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the Unix-socket CBOR request-response
// protocol shared by the board service and its clients. Each
// connection carries exactly one request and one response; requests
// are routed by their "action" field to registered handlers.
package service
