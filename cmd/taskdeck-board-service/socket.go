// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/taskdeck/taskdeck/lib/board"
	"github.com/taskdeck/taskdeck/lib/codec"
	"github.com/taskdeck/taskdeck/lib/schema/task"
	"github.com/taskdeck/taskdeck/lib/service"
)

// registerActions registers all socket API actions on the server.
func (bs *BoardService) registerActions(server *service.SocketServer) {
	// Liveness and diagnostics.
	server.Handle("status", bs.handleStatus)
	server.Handle("info", bs.handleInfo)
	server.Handle("boards", bs.handleBoards)

	// Queries.
	server.Handle("show", bs.handleShow)
	server.Handle("list", bs.handleList)
	server.Handle("next", bs.handleNext)
	server.Handle("ready", bs.handleReady)
	server.Handle("blocked", bs.handleBlocked)
	server.Handle("deps", bs.handleDeps)
	server.Handle("children", bs.handleChildren)
	server.Handle("stats", bs.handleStats)

	// Mutations.
	server.Handle("create", bs.handleCreate)
	server.Handle("claim", bs.handleClaim)
	server.Handle("complete", bs.handleComplete)
	server.Handle("unclaim", bs.handleUnclaim)
	server.Handle("mark-reviewed", bs.handleMarkReviewed)
	server.Handle("add-dependency", bs.handleAddDependency)
}

// statusResponse is the response to the "status" action: liveness
// only, no board contents.
type statusResponse struct {
	UptimeSeconds float64 `cbor:"uptime_seconds"`
}

func (bs *BoardService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	uptime := bs.clock.Now().Sub(bs.startedAt)
	return statusResponse{UptimeSeconds: uptime.Seconds()}, nil
}

// infoResponse is the response to the "info" action.
type infoResponse struct {
	UptimeSeconds float64                `cbor:"uptime_seconds"`
	Boards        map[string]board.Stats `cbor:"boards"`
}

func (bs *BoardService) handleInfo(ctx context.Context, raw []byte) (any, error) {
	stats := make(map[string]board.Stats)
	for _, name := range bs.store.Boards() {
		err := bs.store.View(name, func(idx *board.Index) error {
			stats[name] = idx.Stats()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return infoResponse{
		UptimeSeconds: bs.clock.Now().Sub(bs.startedAt).Seconds(),
		Boards:        stats,
	}, nil
}

func (bs *BoardService) handleBoards(ctx context.Context, raw []byte) (any, error) {
	return map[string]any{"boards": bs.store.Boards()}, nil
}

// boardRequest carries the fields shared by all per-board actions.
type boardRequest struct {
	Board string `cbor:"board"`
	Task  string `cbor:"task"`
}

func decodeBoardRequest(raw []byte, taskRequired bool) (boardRequest, error) {
	var request boardRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return request, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" {
		return request, fmt.Errorf("missing required field: board")
	}
	if taskRequired && request.Task == "" {
		return request, fmt.Errorf("missing required field: task")
	}
	return request, nil
}

func (bs *BoardService) handleShow(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeBoardRequest(raw, true)
	if err != nil {
		return nil, err
	}
	content, err := bs.store.Get(request.Board, request.Task)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": content}, nil
}

// listRequest carries the optional filters of the "list" action.
type listRequest struct {
	Board      string `cbor:"board"`
	Status     string `cbor:"status"`
	Priority   string `cbor:"priority"`
	Type       string `cbor:"type"`
	Claimant   string `cbor:"claimant"`
	Capability string `cbor:"capability"`
	Parent     string `cbor:"parent"`
}

func (bs *BoardService) handleList(ctx context.Context, raw []byte) (any, error) {
	var request listRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" {
		return nil, fmt.Errorf("missing required field: board")
	}
	filter := board.Filter{
		Status:     task.Status(request.Status),
		Priority:   task.Priority(request.Priority),
		Type:       task.Type(request.Type),
		Claimant:   request.Claimant,
		Capability: request.Capability,
		Parent:     request.Parent,
	}
	var entries []board.Entry
	err := bs.store.View(request.Board, func(idx *board.Index) error {
		entries = idx.List(filter)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taskListResponse(entries), nil
}

// nextRequest is the payload of the "next" action.
type nextRequest struct {
	Board        string   `cbor:"board"`
	Capabilities []string `cbor:"capabilities"`
}

func (bs *BoardService) handleNext(ctx context.Context, raw []byte) (any, error) {
	var request nextRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" {
		return nil, fmt.Errorf("missing required field: board")
	}
	candidate, err := bs.core.Peek(request.Board, request.Capabilities)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": candidate}, nil
}

func (bs *BoardService) handleReady(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeBoardRequest(raw, false)
	if err != nil {
		return nil, err
	}
	now := bs.clock.Now().UTC()
	var entries []board.Entry
	err = bs.store.View(request.Board, func(idx *board.Index) error {
		entries = idx.Ready(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taskListResponse(entries), nil
}

func (bs *BoardService) handleBlocked(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeBoardRequest(raw, false)
	if err != nil {
		return nil, err
	}
	now := bs.clock.Now().UTC()
	var entries []board.Entry
	err = bs.store.View(request.Board, func(idx *board.Index) error {
		entries = idx.Blocked(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return taskListResponse(entries), nil
}

// depsResponse is the response to the "deps" action.
type depsResponse struct {
	// Check is the direct dependency evaluation.
	Check board.DependencyCheck `cbor:"check"`

	// Transitive is every task this one transitively depends on.
	Transitive []string `cbor:"transitive,omitempty"`

	// Dependents is every task that directly depends on this one.
	Dependents []string `cbor:"dependents,omitempty"`
}

func (bs *BoardService) handleDeps(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeBoardRequest(raw, true)
	if err != nil {
		return nil, err
	}
	if _, err := bs.store.Get(request.Board, request.Task); err != nil {
		return nil, err
	}
	var response depsResponse
	err = bs.store.View(request.Board, func(idx *board.Index) error {
		response.Check = idx.Dependencies(request.Task)
		response.Transitive = idx.Deps(request.Task)
		response.Dependents = idx.Dependents(request.Task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// childrenResponse is the response to the "children" action.
type childrenResponse struct {
	Tasks     []task.Task `cbor:"tasks"`
	Total     int         `cbor:"total"`
	Completed int         `cbor:"completed"`
}

func (bs *BoardService) handleChildren(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeBoardRequest(raw, true)
	if err != nil {
		return nil, err
	}
	if _, err := bs.store.Get(request.Board, request.Task); err != nil {
		return nil, err
	}
	var response childrenResponse
	err = bs.store.View(request.Board, func(idx *board.Index) error {
		for _, entry := range idx.Children(request.Task) {
			response.Tasks = append(response.Tasks, entry.Task)
		}
		response.Total, response.Completed = idx.ChildProgress(request.Task)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (bs *BoardService) handleStats(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeBoardRequest(raw, false)
	if err != nil {
		return nil, err
	}
	var stats board.Stats
	err = bs.store.View(request.Board, func(idx *board.Index) error {
		stats = idx.Stats()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func taskListResponse(entries []board.Entry) map[string]any {
	tasks := make([]task.Task, len(entries))
	for i, entry := range entries {
		tasks[i] = entry.Task
	}
	return map[string]any{"tasks": tasks}
}
