// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/lib/codec"
	"github.com/taskdeck/taskdeck/lib/coordination"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// createRequest is the payload of the "create" action.
type createRequest struct {
	Board                string   `cbor:"board"`
	Actor                string   `cbor:"actor"`
	Title                string   `cbor:"title"`
	Body                 string   `cbor:"body"`
	Type                 string   `cbor:"type"`
	Priority             string   `cbor:"priority"`
	RequiredCapabilities []string `cbor:"required_capabilities"`
	Dependencies         []string `cbor:"dependencies"`
	Parent               string   `cbor:"parent"`
	NeedsReview          bool     `cbor:"needs_review"`
}

func (bs *BoardService) handleCreate(ctx context.Context, raw []byte) (any, error) {
	var request createRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" {
		return nil, fmt.Errorf("missing required field: board")
	}
	created, err := bs.core.Create(coordination.CreateRequest{
		Board:                request.Board,
		Title:                request.Title,
		Body:                 request.Body,
		Type:                 task.Type(request.Type),
		Priority:             task.Priority(request.Priority),
		RequiredCapabilities: request.RequiredCapabilities,
		Dependencies:         request.Dependencies,
		Parent:               request.Parent,
		NeedsReview:          request.NeedsReview,
		Actor:                request.Actor,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": created}, nil
}

// claimRequest is the payload of the "claim" action.
type claimRequest struct {
	Board        string                      `cbor:"board"`
	Agent        string                      `cbor:"agent"`
	Capabilities []string                    `cbor:"capabilities"`
	Task         string                      `cbor:"task"`
	TTLSeconds   int64                       `cbor:"ttl_seconds"`
	Hooks        map[string]*task.HookResult `cbor:"hooks"`
}

func (bs *BoardService) handleClaim(ctx context.Context, raw []byte) (any, error) {
	var request claimRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" {
		return nil, fmt.Errorf("missing required field: board")
	}
	claimed, err := bs.core.Claim(request.Board, coordination.ClaimRequest{
		Agent:        request.Agent,
		Capabilities: request.Capabilities,
		Task:         request.Task,
		TTL:          time.Duration(request.TTLSeconds) * time.Second,
		Proofs:       request.Hooks,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": claimed}, nil
}

// transitionRequest is the shared payload of the "complete",
// "unclaim", and "mark-reviewed" actions.
type transitionRequest struct {
	Board       string                      `cbor:"board"`
	Task        string                      `cbor:"task"`
	Actor       string                      `cbor:"actor"`
	Disposition string                      `cbor:"disposition"`
	Hooks       map[string]*task.HookResult `cbor:"hooks"`
}

func decodeTransitionRequest(raw []byte) (transitionRequest, error) {
	var request transitionRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return request, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" {
		return request, fmt.Errorf("missing required field: board")
	}
	if request.Task == "" {
		return request, fmt.Errorf("missing required field: task")
	}
	if request.Actor == "" {
		return request, fmt.Errorf("missing required field: actor")
	}
	return request, nil
}

func (bs *BoardService) handleComplete(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeTransitionRequest(raw)
	if err != nil {
		return nil, err
	}
	result, err := bs.core.Complete(request.Board, request.Task, request.Actor, request.Hooks)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"task":      result.Task,
		"unblocked": result.Unblocked,
	}, nil
}

func (bs *BoardService) handleUnclaim(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeTransitionRequest(raw)
	if err != nil {
		return nil, err
	}
	released, err := bs.core.Unclaim(request.Board, request.Task, request.Actor)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": released}, nil
}

func (bs *BoardService) handleMarkReviewed(ctx context.Context, raw []byte) (any, error) {
	request, err := decodeTransitionRequest(raw)
	if err != nil {
		return nil, err
	}
	if request.Disposition == "" {
		return nil, fmt.Errorf("missing required field: disposition")
	}
	result, err := bs.core.MarkReviewed(request.Board, request.Task, request.Actor,
		task.ReviewStatus(request.Disposition), request.Hooks)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"task":      result.Task,
		"unblocked": result.Unblocked,
	}, nil
}

// dependencyRequest is the payload of the "add-dependency" action.
type dependencyRequest struct {
	Board      string `cbor:"board"`
	Task       string `cbor:"task"`
	Dependency string `cbor:"dependency"`
	Actor      string `cbor:"actor"`
}

func (bs *BoardService) handleAddDependency(ctx context.Context, raw []byte) (any, error) {
	var request dependencyRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if request.Board == "" || request.Task == "" || request.Dependency == "" {
		return nil, fmt.Errorf("board, task, and dependency are required")
	}
	updated, err := bs.core.AddDependency(request.Board, request.Task, request.Dependency, request.Actor)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": updated}, nil
}
