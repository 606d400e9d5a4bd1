// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Status is the lifecycle state of a task. The set is closed: every
// transition between statuses goes through the coordination core's
// transition table, never ad-hoc string comparison at call sites.
type Status string

const (
	// StatusOpen means the task is unclaimed and has no unmet
	// dependencies. Open tasks are the claimable pool.
	StatusOpen Status = "open"

	// StatusBlocked means at least one dependency has not reached
	// completed. Blocked tasks leave this status only through the
	// dependency resolver, never through a claim.
	StatusBlocked Status = "blocked"

	// StatusInProgress means the task is exclusively claimed. The
	// review-pending substate (ReviewStatus == ReviewPending) is an
	// in_progress task whose claimant has requested completion and is
	// waiting on a reviewer.
	StatusInProgress Status = "in_progress"

	// StatusCompleted is terminal. Completion triggers synchronous
	// re-evaluation of every dependent task.
	StatusCompleted Status = "completed"
)

// validStatuses is the set of recognized task statuses.
var validStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusBlocked:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// IsValidStatus reports whether the given string is a recognized
// task status.
func IsValidStatus(status Status) bool {
	return validStatuses[status]
}

// Type categorizes a task. Goals are grouping nodes: they own children
// via the Parent field on each child and are never claimable.
type Type string

const (
	TypeWork   Type = "work"
	TypeDefect Type = "defect"
	TypeGoal   Type = "goal"
)

// validTypes is the set of recognized task types.
var validTypes = map[Type]bool{
	TypeWork:   true,
	TypeDefect: true,
	TypeGoal:   true,
}

// IsValidType reports whether the given string is a recognized task type.
func IsValidType(taskType Type) bool {
	return validTypes[taskType]
}

// IdentifierPrefix returns the human-readable identifier prefix for a
// task type. Identifiers are prefix + "-" + per-board sequence number
// (e.g., "wrk-12").
func IdentifierPrefix(taskType Type) string {
	switch taskType {
	case TypeDefect:
		return "dft"
	case TypeGoal:
		return "gol"
	default:
		return "wrk"
	}
}

// Priority orders tasks within the claimable pool. It is only ever a
// tie-break in selection, never a hard filter: a low-priority task is
// still claimable when nothing better is available.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// priorityRanks orders priorities for selection: lower rank sorts
// first. Unknown priorities rank after low so malformed data never
// jumps the queue.
var priorityRanks = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank returns the sort position of this priority (0 = critical,
// selected first). Unknown priorities rank last.
func (p Priority) Rank() int {
	rank, known := priorityRanks[p]
	if !known {
		return len(priorityRanks)
	}
	return rank
}

// IsValidPriority reports whether the given string is a recognized
// priority.
func IsValidPriority(priority Priority) bool {
	_, known := priorityRanks[priority]
	return known
}

// ReviewStatus is a reviewer's recorded disposition on a task in the
// review-pending substate. Empty means no review cycle is active.
type ReviewStatus string

const (
	// ReviewPending means completion was requested and the task is
	// waiting for a reviewer's disposition.
	ReviewPending ReviewStatus = "pending"

	ReviewApproved         ReviewStatus = "approved"
	ReviewChangesRequested ReviewStatus = "changes_requested"
	ReviewRejected         ReviewStatus = "rejected"
)

// validReviewStatuses is the set of recognized review statuses.
var validReviewStatuses = map[ReviewStatus]bool{
	ReviewPending:          true,
	ReviewApproved:         true,
	ReviewChangesRequested: true,
	ReviewRejected:         true,
}

// IsValidReviewStatus reports whether the given string is a recognized
// review status.
func IsValidReviewStatus(status ReviewStatus) bool {
	return validReviewStatuses[status]
}

// Task is a unit of work on a board.
//
// The store owns the row (and the Revision field that guards
// read-modify-write cycles); the coordination core owns the rules
// governing legal transitions. Timestamps are RFC 3339 UTC strings so
// that string comparison gives chronological ordering, matching the
// journal and wire formats.
type Task struct {
	// ID is the opaque surrogate key, derived from board, identifier,
	// and creation time at create. Stable for the task's lifetime.
	ID string `json:"id"`

	// Identifier is the human-readable key, unique per board:
	// type prefix + "-" + board sequence number (e.g., "wrk-12").
	// Dependencies and parent references use identifiers.
	Identifier string `json:"identifier"`

	// Board names the board this task belongs to.
	Board string `json:"board"`

	// Title is a short summary of the work item.
	Title string `json:"title"`

	// Body is the full description.
	Body string `json:"body,omitempty"`

	// Type categorizes the work: "work", "defect", or "goal". Goals
	// group children and are never claimable.
	Type Type `json:"type"`

	// Status is the lifecycle state. Invariant: a task with one or
	// more unmet dependencies is "blocked", never "open"; a task is
	// never simultaneously claimed and "open".
	Status Status `json:"status"`

	// Priority is the selection tie-break: "low", "medium", "high",
	// or "critical".
	Priority Priority `json:"priority"`

	// RequiredCapabilities lists capability tags an agent must all
	// possess to claim this task. Empty means any agent qualifies.
	RequiredCapabilities []string `json:"required_capabilities,omitempty"`

	// Dependencies lists task identifiers (same board) that must all
	// reach "completed" before this task may leave "blocked".
	Dependencies []string `json:"dependencies,omitempty"`

	// Parent is the identifier of the owning goal, if any.
	Parent string `json:"parent,omitempty"`

	// ClaimedBy is the caller identity holding the current claim.
	// Empty when unclaimed. A claim is not durable: once
	// ClaimExpiresAt passes, every reader treats the task as open
	// again regardless of this field (see EffectiveStatus).
	ClaimedBy      string `json:"claimed_by,omitempty"`
	ClaimedAt      string `json:"claimed_at,omitempty"`
	ClaimExpiresAt string `json:"claim_expires_at,omitempty"`

	// NeedsReview, decided at creation or claim time, routes
	// completion through the review-pending substate instead of
	// straight to completed.
	NeedsReview bool `json:"needs_review,omitempty"`

	// ReviewStatus is the active review cycle's state. Non-empty only
	// while Status is "in_progress" (pending) or after finalization
	// (approved on a completed task).
	ReviewStatus ReviewStatus `json:"review_status,omitempty"`
	ReviewedAt   string       `json:"reviewed_at,omitempty"`
	ReviewedBy   string       `json:"reviewed_by,omitempty"`

	CompletedAt string `json:"completed_at,omitempty"`
	CompletedBy string `json:"completed_by,omitempty"`

	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`

	// Revision is the optimistic-concurrency token. The store bumps
	// it on every successful write; CompareAndSwap fails when the
	// caller's copy is stale. Coordination code never sets it.
	Revision int64 `json:"revision"`
}

// Validate checks that all required fields are present and well-formed.
// Returns an error describing the first invalid field found, or nil if
// the task is valid.
func (t *Task) Validate() error {
	if t.ID == "" {
		return errors.New("task: id is required")
	}
	if t.Identifier == "" {
		return errors.New("task: identifier is required")
	}
	if t.Board == "" {
		return errors.New("task: board is required")
	}
	if t.Title == "" {
		return errors.New("task: title is required")
	}
	if t.Type == "" {
		return errors.New("task: type is required")
	}
	if !IsValidType(t.Type) {
		return fmt.Errorf("task: unknown type %q", t.Type)
	}
	if t.Status == "" {
		return errors.New("task: status is required")
	}
	if !IsValidStatus(t.Status) {
		return fmt.Errorf("task: unknown status %q", t.Status)
	}
	if t.Priority == "" {
		return errors.New("task: priority is required")
	}
	if !IsValidPriority(t.Priority) {
		return fmt.Errorf("task: unknown priority %q", t.Priority)
	}
	if t.ReviewStatus != "" && !IsValidReviewStatus(t.ReviewStatus) {
		return fmt.Errorf("task: unknown review status %q", t.ReviewStatus)
	}
	if t.Type == TypeGoal && t.ClaimedBy != "" {
		return errors.New("task: goals are not claimable")
	}
	if slices.Contains(t.Dependencies, t.Identifier) {
		return fmt.Errorf("task: %s depends on itself", t.Identifier)
	}
	if t.Status == StatusOpen && t.ClaimedBy != "" {
		return errors.New("task: open tasks must not carry a claim")
	}
	if t.ClaimedBy != "" {
		if t.ClaimedAt == "" || t.ClaimExpiresAt == "" {
			return errors.New("task: claimed tasks require claimed_at and claim_expires_at")
		}
		if _, err := time.Parse(time.RFC3339, t.ClaimExpiresAt); err != nil {
			return fmt.Errorf("task: claim_expires_at must be RFC 3339: %w", err)
		}
	}
	if t.Status == StatusCompleted && t.CompletedAt == "" {
		return errors.New("task: completed tasks require completed_at")
	}
	if t.CreatedBy == "" {
		return errors.New("task: created_by is required")
	}
	if t.CreatedAt == "" {
		return errors.New("task: created_at is required")
	}
	if t.UpdatedAt == "" {
		return errors.New("task: updated_at is required")
	}
	return nil
}

// ClaimExpired reports whether the task carries a claim whose
// expiry time has passed. Unclaimed tasks are never expired. A claim
// with an unparseable expiry is treated as expired: a timestamp this
// code cannot read must not hold a task hostage forever.
func (t *Task) ClaimExpired(now time.Time) bool {
	if t.ClaimedBy == "" || t.ClaimExpiresAt == "" {
		return false
	}
	expiry, err := time.Parse(time.RFC3339, t.ClaimExpiresAt)
	if err != nil {
		return true
	}
	return !now.Before(expiry)
}

// InReview reports whether the task is in the review-pending substate:
// claimed work finished, waiting on a reviewer's disposition. A task
// handed back with changes_requested is not in review — the claimant
// is working again, under a normal expirable claim.
func (t *Task) InReview() bool {
	return t.Status == StatusInProgress && t.ReviewStatus == ReviewPending
}

// EffectiveStatus returns the status every reader must act on at the
// given instant. It is identical to Status except for one case: an
// in_progress task whose claim has expired and which is not waiting on
// review reads as open, making it eligible for a fresh claim. Expiry
// is evaluated here and only here, so all claimability checks agree.
//
// Review-pending tasks are exempt: the claim gated the work, which is
// done; the review gate is the reviewer's to lift, not a new claimant's.
func (t *Task) EffectiveStatus(now time.Time) Status {
	if t.Status == StatusInProgress && !t.InReview() && t.ClaimExpired(now) {
		return StatusOpen
	}
	return t.Status
}

// Claimable reports whether the task can be handed to a claimant right
// now: effectively open and not a goal. Capability matching and
// dependency state are the matcher's and resolver's concern; this is
// the pure per-task predicate.
func (t *Task) Claimable(now time.Time) bool {
	return t.Type != TypeGoal && t.EffectiveStatus(now) == StatusOpen
}
