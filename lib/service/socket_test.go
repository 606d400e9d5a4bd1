// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/lib/codec"
)

// startServer runs a SocketServer in the background and waits for the
// socket to accept connections.
func startServer(t *testing.T, server *SocketServer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	client := NewServiceClient(server.socketPath)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if err := client.Call(context.Background(), "ping", nil, nil); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not come up")
}

func newTestServer(t *testing.T) (*SocketServer, *ServiceClient) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "svc.sock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewSocketServer(socketPath, logger)
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	return server, NewServiceClient(socketPath)
}

func TestCallRoundTrip(t *testing.T) {
	server, client := newTestServer(t)
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Message string `cbor:"message"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"message": request.Message}, nil
	})
	startServer(t, server)

	var result struct {
		Message string `cbor:"message"`
	}
	err := client.Call(context.Background(), "echo",
		map[string]any{"message": "hello"}, &result)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Message != "hello" {
		t.Errorf("echo: got %q", result.Message)
	}
}

func TestCallHandlerError(t *testing.T) {
	server, client := newTestServer(t)
	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("deliberate failure")
	})
	startServer(t, server)

	err := client.Call(context.Background(), "fail", nil, nil)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Call: got %v, want ServiceError", err)
	}
	if serviceErr.Action != "fail" || serviceErr.Message != "deliberate failure" {
		t.Errorf("ServiceError: %+v", serviceErr)
	}
}

func TestCallUnknownAction(t *testing.T) {
	server, client := newTestServer(t)
	startServer(t, server)

	err := client.Call(context.Background(), "no-such-action", nil, nil)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Call: got %v, want ServiceError", err)
	}
}

func TestConcurrentCalls(t *testing.T) {
	server, client := newTestServer(t)
	server.Handle("double", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			N int `cbor:"n"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"n": request.N * 2}, nil
	})
	startServer(t, server)

	const calls = 20
	results := make(chan error, calls)
	for i := 0; i < calls; i++ {
		go func(n int) {
			var result struct {
				N int `cbor:"n"`
			}
			err := client.Call(context.Background(), "double", map[string]any{"n": n}, &result)
			if err == nil && result.N != n*2 {
				err = fmt.Errorf("double(%d) = %d", n, result.N)
			}
			results <- err
		}(i)
	}
	for i := 0; i < calls; i++ {
		if err := <-results; err != nil {
			t.Errorf("concurrent call: %v", err)
		}
	}
}
