// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides taskdeck's standard CBOR encoding
// configuration.
//
// Taskdeck uses two serialization formats with a clear boundary: JSON
// for human-edited files (board seed files, which additionally allow
// JSONC comments via lib/config) and CBOR for the board service socket
// protocol and the history journal. This package provides the shared
// CBOR encoding and decoding modes so that every package encodes
// identically without duplicating configuration.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, which keeps
// history journal records byte-stable across re-encodes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets, journals):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Protocol types carry `json` struct tags: fxamacker/cbor reads them
// as fallback when `cbor` tags are absent, so one tag controls field
// naming for both the socket protocol and CLI-facing JSON output.
package codec
