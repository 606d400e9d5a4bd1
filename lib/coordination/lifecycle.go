// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package coordination

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/zeebo/blake3"

	"github.com/taskdeck/taskdeck/lib/board"
	"github.com/taskdeck/taskdeck/lib/clock"
	"github.com/taskdeck/taskdeck/lib/history"
	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// DefaultClaimTTL is the claim lease applied when neither the request
// nor the service configuration overrides it.
const DefaultClaimTTL = 60 * time.Minute

// Core applies the lifecycle rules against a Store. All mutations go
// through compare-and-swap; Core never holds a lock across a
// read-modify-write, it retries or rejects on conflict instead.
type Core struct {
	store    Store
	clock    clock.Clock
	claimTTL time.Duration
	recorder history.Recorder
	logger   *slog.Logger
}

// Options tunes a Core. Zero values select defaults: DefaultClaimTTL,
// a discarding recorder, and slog.Default().
type Options struct {
	ClaimTTL time.Duration
	Recorder history.Recorder
	Logger   *slog.Logger
}

// NewCore returns a Core over the given store and clock.
func NewCore(store Store, clk clock.Clock, opts Options) *Core {
	if opts.ClaimTTL <= 0 {
		opts.ClaimTTL = DefaultClaimTTL
	}
	if opts.Recorder == nil {
		opts.Recorder = history.NopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Core{
		store:    store,
		clock:    clk,
		claimTTL: opts.ClaimTTL,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
}

// now returns the current instant as the RFC 3339 UTC string stored on
// tasks and journal events.
func (c *Core) now() time.Time {
	return c.clock.Now().UTC()
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// SurrogateID derives the opaque task ID from board, identifier, and
// creation time. Exposed for seeding code that inserts tasks directly.
func SurrogateID(boardName, identifier, createdAt string) string {
	sum := blake3.Sum256([]byte(boardName + "\x00" + identifier + "\x00" + createdAt))
	return "t-" + hex.EncodeToString(sum[:6])
}

// CreateRequest describes a task to create.
type CreateRequest struct {
	Board                string
	Title                string
	Body                 string
	Type                 task.Type     // defaults to work
	Priority             task.Priority // defaults to medium
	RequiredCapabilities []string
	Dependencies         []string
	Parent               string
	NeedsReview          bool
	Actor                string
}

// Create validates and inserts a new task. Dependencies must name
// existing tasks on the same board; the initial status is open when
// they are all completed (or absent), blocked otherwise. Goals may not
// carry required capabilities — they are never claimed.
func (c *Core) Create(req CreateRequest) (task.Task, error) {
	if req.Title == "" {
		return task.Task{}, fmt.Errorf("create: title is required")
	}
	if req.Actor == "" {
		return task.Task{}, fmt.Errorf("create: actor is required")
	}
	if req.Type == "" {
		req.Type = task.TypeWork
	}
	if !task.IsValidType(req.Type) {
		return task.Task{}, fmt.Errorf("create: unknown type %q", req.Type)
	}
	if req.Priority == "" {
		req.Priority = task.PriorityMedium
	}
	if !task.IsValidPriority(req.Priority) {
		return task.Task{}, fmt.Errorf("create: unknown priority %q", req.Priority)
	}
	if req.Type == task.TypeGoal && len(req.RequiredCapabilities) > 0 {
		return task.Task{}, fmt.Errorf("create: goals cannot require capabilities")
	}

	// Referential checks against the board as it stands. The new task
	// has no dependents yet, so its dependency edges cannot close a
	// cycle; existence is the only edge concern at create.
	satisfied := true
	err := c.store.View(req.Board, func(idx *board.Index) error {
		if req.Parent != "" {
			parent, exists := idx.Get(req.Parent)
			if !exists {
				return fmt.Errorf("create: parent %s: %w", req.Parent, ErrTaskNotFound)
			}
			if parent.Type != task.TypeGoal {
				return fmt.Errorf("create: parent %s is a %s, not a goal", req.Parent, parent.Type)
			}
		}
		var missing []string
		for _, depID := range req.Dependencies {
			dep, exists := idx.Get(depID)
			if !exists {
				missing = append(missing, depID)
				continue
			}
			if dep.Status != task.StatusCompleted {
				satisfied = false
			}
		}
		if len(missing) > 0 {
			return &DependencyError{Identifier: "create", Missing: missing}
		}
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}

	identifier, err := c.store.NextIdentifier(req.Board, req.Type)
	if err != nil {
		return task.Task{}, err
	}

	at := timestamp(c.now())
	status := task.StatusOpen
	if !satisfied {
		status = task.StatusBlocked
	}
	content := task.Task{
		ID:                   SurrogateID(req.Board, identifier, at),
		Identifier:           identifier,
		Board:                req.Board,
		Title:                req.Title,
		Body:                 req.Body,
		Type:                 req.Type,
		Status:               status,
		Priority:             req.Priority,
		RequiredCapabilities: req.RequiredCapabilities,
		Dependencies:         req.Dependencies,
		Parent:               req.Parent,
		NeedsReview:          req.NeedsReview,
		CreatedBy:            req.Actor,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
	if err := content.Validate(); err != nil {
		return task.Task{}, err
	}
	stored, err := c.store.Insert(req.Board, content)
	if err != nil {
		return task.Task{}, err
	}

	c.record(history.Event{
		At: at, Board: req.Board, Task: identifier,
		Action: "create", Actor: req.Actor, To: string(status),
	}, nil)
	c.logger.Info("task created",
		"board", req.Board, "task", identifier, "type", req.Type, "status", status)
	return stored, nil
}

// ClaimRequest describes a claim attempt.
type ClaimRequest struct {
	// Agent is the claiming identity. Required.
	Agent string

	// Capabilities is the agent's capability set. A task is eligible
	// only if this set contains all of its required capabilities.
	Capabilities []string

	// Task, when set, directs the claim at a specific identifier
	// instead of selecting from the pool.
	Task string

	// TTL overrides the configured claim lease for this claim.
	TTL time.Duration

	// Proofs holds hook proof records keyed by hook name. Claiming
	// requires before_doing.
	Proofs map[string]*task.HookResult
}

// Claim atomically selects and claims a task.
//
// A directed claim (req.Task set) claims that task or fails with
// ErrTaskUnavailable; an undirected claim picks the best eligible task
// (priority rank, then creation time) and retries selection when a
// concurrent claimant wins the compare-and-swap, until the pool is
// exhausted (ErrNoTasksAvailable). Hook proofs are judged before any
// task is touched.
func (c *Core) Claim(boardName string, req ClaimRequest) (task.Task, error) {
	if req.Agent == "" {
		return task.Task{}, fmt.Errorf("claim: agent is required")
	}
	if err := ValidateProofs([]task.HookName{task.HookBeforeDoing}, req.Proofs); err != nil {
		return task.Task{}, err
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = c.claimTTL
	}

	if req.Task != "" {
		return c.claimDirected(boardName, req, ttl)
	}
	return c.claimSelected(boardName, req, ttl)
}

// Peek reports the task an undirected claim with the given
// capabilities would receive right now, without claiming it. The
// answer is advisory: a concurrent claimant may take the task before
// the caller does.
func (c *Core) Peek(boardName string, capabilities []string) (task.Task, error) {
	now := c.now()
	var candidate task.Task
	err := c.store.View(boardName, func(idx *board.Index) error {
		candidates := selectCandidates(idx, now, capabilities, nil)
		if len(candidates) == 0 {
			return ErrNoTasksAvailable
		}
		candidate = candidates[0].Task
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return candidate, nil
}

func (c *Core) claimDirected(boardName string, req ClaimRequest, ttl time.Duration) (task.Task, error) {
	now := c.now()
	var candidate task.Task
	err := c.store.View(boardName, func(idx *board.Index) error {
		content, exists := idx.Get(req.Task)
		if !exists || !claimableNow(idx, &content, now, req.Capabilities) {
			return fmt.Errorf("%s: %w", req.Task, ErrTaskUnavailable)
		}
		candidate = content
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}
	claimed, err := c.writeClaim(boardName, candidate, req, now, ttl)
	if err == errClaimLost {
		// Someone else took it between read and write.
		return task.Task{}, fmt.Errorf("%s: %w", req.Task, ErrTaskUnavailable)
	}
	return claimed, err
}

func (c *Core) claimSelected(boardName string, req ClaimRequest, ttl time.Duration) (task.Task, error) {
	// Identifiers lost to concurrent claimants in this loop; excluded
	// from re-selection so the loop terminates once the pool drains.
	skip := make(map[string]struct{})
	for {
		now := c.now()
		var candidates []board.Entry
		err := c.store.View(boardName, func(idx *board.Index) error {
			candidates = selectCandidates(idx, now, req.Capabilities, skip)
			return nil
		})
		if err != nil {
			return task.Task{}, err
		}
		if len(candidates) == 0 {
			return task.Task{}, ErrNoTasksAvailable
		}
		claimed, err := c.writeClaim(boardName, candidates[0].Task, req, now, ttl)
		if err == errClaimLost {
			skip[candidates[0].Identifier] = struct{}{}
			continue
		}
		return claimed, err
	}
}

// errClaimLost is internal to the claim retry loop: the candidate's
// revision moved between selection and write.
var errClaimLost = fmt.Errorf("claim lost")

func (c *Core) writeClaim(boardName string, content task.Task, req ClaimRequest, now time.Time, ttl time.Duration) (task.Task, error) {
	from := content.Status
	content.Status = task.StatusInProgress
	content.ClaimedBy = req.Agent
	content.ClaimedAt = timestamp(now)
	content.ClaimExpiresAt = timestamp(now.Add(ttl))
	content.ReviewStatus = ""
	content.ReviewedAt = ""
	content.ReviewedBy = ""
	content.UpdatedAt = timestamp(now)

	stored, err := c.store.CompareAndSwap(boardName, content)
	if err != nil {
		if isConflict(err) {
			return task.Task{}, errClaimLost
		}
		return task.Task{}, err
	}
	c.record(history.Event{
		At: content.UpdatedAt, Board: boardName, Task: content.Identifier,
		Action: "claim", Actor: req.Agent,
		From: string(from), To: string(task.StatusInProgress),
	}, req.Proofs)
	c.logger.Info("task claimed",
		"board", boardName, "task", content.Identifier,
		"agent", req.Agent, "expires", content.ClaimExpiresAt)
	return stored, nil
}

// CompleteResult is the outcome of a successful Complete call.
type CompleteResult struct {
	Task task.Task

	// Unblocked lists dependents moved from blocked to open by this
	// completion. Empty when the task entered review instead.
	Unblocked []string
}

// Complete finishes the actor's claimed work on a task. Tasks flagged
// needs_review enter the review-pending substate (requiring both
// after_doing and before_review proofs); others go straight to
// completed (after_doing only), synchronously unblocking dependents
// whose dependency lists are now fully satisfied.
func (c *Core) Complete(boardName, identifier, actor string, proofs map[string]*task.HookResult) (CompleteResult, error) {
	content, err := c.store.Get(boardName, identifier)
	if err != nil {
		return CompleteResult{}, err
	}
	now := c.now()
	if err := c.authorizeClaimant("complete", &content, actor, now); err != nil {
		return CompleteResult{}, err
	}
	if content.InReview() {
		return CompleteResult{}, &InvalidStatusError{
			Action: "complete", Identifier: identifier,
			Status: content.Status, ReviewStatus: content.ReviewStatus,
		}
	}

	required := []task.HookName{task.HookAfterDoing}
	if content.NeedsReview {
		required = append(required, task.HookBeforeReview)
	}
	if err := ValidateProofs(required, proofs); err != nil {
		return CompleteResult{}, err
	}

	at := timestamp(now)
	if content.NeedsReview {
		content.ReviewStatus = task.ReviewPending
		content.UpdatedAt = at
		stored, err := c.store.CompareAndSwap(boardName, content)
		if err != nil {
			return CompleteResult{}, err
		}
		c.record(history.Event{
			At: at, Board: boardName, Task: identifier,
			Action: "complete", Actor: actor,
			From: string(task.StatusInProgress), To: string(task.StatusInProgress),
			ReviewStatus: string(task.ReviewPending),
		}, proofs)
		c.logger.Info("task awaiting review", "board", boardName, "task", identifier, "agent", actor)
		return CompleteResult{Task: stored}, nil
	}

	content.Status = task.StatusCompleted
	content.CompletedAt = at
	content.CompletedBy = actor
	content.ClaimedBy = ""
	content.ClaimedAt = ""
	content.ClaimExpiresAt = ""
	content.UpdatedAt = at
	stored, err := c.store.CompareAndSwap(boardName, content)
	if err != nil {
		return CompleteResult{}, err
	}

	unblocked, err := c.unblockDependents(boardName, identifier, at)
	if err != nil {
		return CompleteResult{}, err
	}
	c.record(history.Event{
		At: at, Board: boardName, Task: identifier,
		Action: "complete", Actor: actor,
		From: string(task.StatusInProgress), To: string(task.StatusCompleted),
		Unblocked: unblocked,
	}, proofs)
	c.logger.Info("task completed",
		"board", boardName, "task", identifier, "agent", actor, "unblocked", len(unblocked))
	return CompleteResult{Task: stored, Unblocked: unblocked}, nil
}

// Unclaim releases the actor's claim without finishing the work. The
// task returns to open, or to blocked if its dependencies are no
// longer all completed. Review-pending tasks cannot be unclaimed; the
// reviewer decides their fate.
func (c *Core) Unclaim(boardName, identifier, actor string) (task.Task, error) {
	content, err := c.store.Get(boardName, identifier)
	if err != nil {
		return task.Task{}, err
	}
	now := c.now()
	if content.InReview() {
		return task.Task{}, &InvalidStatusError{
			Action: "unclaim", Identifier: identifier,
			Status: content.Status, ReviewStatus: content.ReviewStatus,
		}
	}
	if err := c.authorizeClaimant("unclaim", &content, actor, now); err != nil {
		return task.Task{}, err
	}

	at := timestamp(now)
	released, err := c.releaseClaim(boardName, content, at)
	if err != nil {
		return task.Task{}, err
	}
	c.record(history.Event{
		At: at, Board: boardName, Task: identifier,
		Action: "unclaim", Actor: actor,
		From: string(task.StatusInProgress), To: string(released.Status),
	}, nil)
	c.logger.Info("task unclaimed",
		"board", boardName, "task", identifier, "agent", actor, "status", released.Status)
	return released, nil
}

// MarkReviewedResult is the outcome of a successful MarkReviewed call.
type MarkReviewedResult struct {
	Task task.Task

	// Unblocked lists dependents opened by an approval. Empty for
	// changes_requested and rejected dispositions.
	Unblocked []string
}

// MarkReviewed records a reviewer's disposition on a review-pending
// task. Approval finalizes: the task completes (credited to the
// claimant) and dependents are unblocked. Changes-requested hands the
// task back to the claimant with a fresh claim lease. Rejection
// releases the claim and returns the task to the pool. Reviewers may
// not review their own work.
func (c *Core) MarkReviewed(boardName, identifier, reviewer string, disposition task.ReviewStatus, proofs map[string]*task.HookResult) (MarkReviewedResult, error) {
	switch disposition {
	case task.ReviewApproved, task.ReviewChangesRequested, task.ReviewRejected:
	default:
		return MarkReviewedResult{}, fmt.Errorf("mark_reviewed: invalid disposition %q", disposition)
	}
	content, err := c.store.Get(boardName, identifier)
	if err != nil {
		return MarkReviewedResult{}, err
	}
	if !content.InReview() {
		return MarkReviewedResult{}, &InvalidStatusError{
			Action: "mark_reviewed", Identifier: identifier,
			Status: content.Status, ReviewStatus: content.ReviewStatus,
		}
	}
	if reviewer == "" || reviewer == content.ClaimedBy {
		return MarkReviewedResult{}, &NotAuthorizedError{
			Action: "mark_reviewed", Actor: reviewer, Holder: content.ClaimedBy,
		}
	}
	if err := ValidateProofs([]task.HookName{task.HookAfterReview}, proofs); err != nil {
		return MarkReviewedResult{}, err
	}

	now := c.now()
	at := timestamp(now)
	claimant := content.ClaimedBy
	content.ReviewStatus = disposition
	content.ReviewedAt = at
	content.ReviewedBy = reviewer
	content.UpdatedAt = at

	var result MarkReviewedResult
	switch disposition {
	case task.ReviewApproved:
		content.Status = task.StatusCompleted
		content.CompletedAt = at
		content.CompletedBy = claimant
		content.ClaimedBy = ""
		content.ClaimedAt = ""
		content.ClaimExpiresAt = ""
		stored, err := c.store.CompareAndSwap(boardName, content)
		if err != nil {
			return MarkReviewedResult{}, err
		}
		unblocked, err := c.unblockDependents(boardName, identifier, at)
		if err != nil {
			return MarkReviewedResult{}, err
		}
		result = MarkReviewedResult{Task: stored, Unblocked: unblocked}

	case task.ReviewChangesRequested:
		// Back to the claimant for rework, with a fresh lease.
		content.ClaimExpiresAt = timestamp(now.Add(c.claimTTL))
		stored, err := c.store.CompareAndSwap(boardName, content)
		if err != nil {
			return MarkReviewedResult{}, err
		}
		result = MarkReviewedResult{Task: stored}

	case task.ReviewRejected:
		// The work is discarded: release the claim and return the
		// task to the pool.
		content.ClaimedBy = ""
		content.ClaimedAt = ""
		content.ClaimExpiresAt = ""
		released, err := c.writeReleased(boardName, content)
		if err != nil {
			return MarkReviewedResult{}, err
		}
		result = MarkReviewedResult{Task: released}
	}

	c.record(history.Event{
		At: at, Board: boardName, Task: identifier,
		Action: "mark_reviewed", Actor: reviewer,
		From: string(task.StatusInProgress), To: string(result.Task.Status),
		ReviewStatus: string(disposition),
		Unblocked:    result.Unblocked,
	}, proofs)
	c.logger.Info("task reviewed",
		"board", boardName, "task", identifier,
		"reviewer", reviewer, "disposition", disposition, "status", result.Task.Status)
	return result, nil
}

// AddDependency adds a dependency edge to an open or blocked task,
// rejecting edges that would make the graph cyclic. The task's status
// is recomputed afterward: an open task gains blocked when the new
// dependency is not completed.
func (c *Core) AddDependency(boardName, identifier, dependency, actor string) (task.Task, error) {
	content, err := c.store.Get(boardName, identifier)
	if err != nil {
		return task.Task{}, err
	}
	if content.Status != task.StatusOpen && content.Status != task.StatusBlocked {
		return task.Task{}, &InvalidStatusError{
			Action: "add_dependency", Identifier: identifier, Status: content.Status,
		}
	}

	satisfied := true
	err = c.store.View(boardName, func(idx *board.Index) error {
		dep, exists := idx.Get(dependency)
		if !exists {
			return &DependencyError{Identifier: identifier, Missing: []string{dependency}}
		}
		if idx.WouldCycle(identifier, []string{dependency}) {
			return fmt.Errorf("%s -> %s: %w", identifier, dependency, ErrDependencyCycle)
		}
		check := idx.Dependencies(identifier)
		satisfied = check.Satisfied && dep.Status == task.StatusCompleted
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}

	at := timestamp(c.now())
	if !slices.Contains(content.Dependencies, dependency) {
		content.Dependencies = append(content.Dependencies, dependency)
	}
	from := content.Status
	if satisfied {
		content.Status = task.StatusOpen
	} else {
		content.Status = task.StatusBlocked
	}
	content.UpdatedAt = at
	stored, err := c.store.CompareAndSwap(boardName, content)
	if err != nil {
		return task.Task{}, err
	}
	c.record(history.Event{
		At: at, Board: boardName, Task: identifier,
		Action: "add_dependency", Actor: actor,
		From: string(from), To: string(stored.Status),
	}, nil)
	return stored, nil
}

// authorizeClaimant checks that the task carries a live claim held by
// the actor. Distinct outcomes: no claim at all (ErrNotClaimed), an
// expired claim (the task effectively returned to the pool), and a
// claim held by someone else (NotAuthorizedError).
func (c *Core) authorizeClaimant(action string, content *task.Task, actor string, now time.Time) error {
	if content.ClaimedBy == "" {
		return fmt.Errorf("%s: %s: %w", action, content.Identifier, ErrNotClaimed)
	}
	if content.EffectiveStatus(now) != task.StatusInProgress {
		return &InvalidStatusError{
			Action: action, Identifier: content.Identifier,
			Status: content.EffectiveStatus(now),
		}
	}
	if actor != content.ClaimedBy {
		return &NotAuthorizedError{Action: action, Actor: actor, Holder: content.ClaimedBy}
	}
	return nil
}

func (c *Core) record(event history.Event, proofs map[string]*task.HookResult) {
	if len(proofs) > 0 {
		event.Hooks = make(map[string]task.HookResult, len(proofs))
		for name, proof := range proofs {
			if proof != nil {
				event.Hooks[name] = *proof
			}
		}
	}
	if err := c.recorder.Record(event); err != nil {
		// The transition already happened; losing the journal entry
		// is log-worthy, not a reason to fail the caller.
		c.logger.Error("journal write failed",
			"board", event.Board, "task", event.Task, "action", event.Action, "error", err)
	}
}

func isConflict(err error) bool {
	return errors.Is(err, ErrRevisionConflict)
}
