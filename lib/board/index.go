// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package board

import (
	"slices"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/lib/schema/task"
)

// Entry pairs a task identifier with its content. Returned by query
// methods.
type Entry struct {
	Identifier string
	Task       task.Task
}

// Filter controls which tasks [Index.List] returns. Zero-value fields
// mean "no filter" for that dimension. All non-zero fields must match
// (AND semantics).
type Filter struct {
	// Status matches tasks with this exact stored status. Claim expiry
	// is not applied here; callers that care about effective status
	// filter on Ready/Blocked instead.
	Status task.Status

	// Priority matches tasks with this exact priority.
	Priority task.Priority

	// Type matches tasks with this exact type.
	Type task.Type

	// Claimant matches tasks whose ClaimedBy equals this identity.
	Claimant string

	// Capability matches tasks whose RequiredCapabilities contains
	// this tag.
	Capability string

	// Parent matches tasks whose Parent field equals this identifier.
	Parent string
}

// Stats holds aggregate counts across all tasks in the index.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	ByType     map[string]int `json:"by_type"`
}

// DependencyCheck is the result of evaluating a task's dependency
// list: whether every dependency is completed, and if not, which
// identifiers are still open and which do not exist at all. A missing
// dependency can never complete, so the task is permanently blocked
// until the edge is corrected.
type DependencyCheck struct {
	Satisfied  bool     `json:"satisfied"`
	Incomplete []string `json:"incomplete,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

// Index is a per-board in-memory task index. It maintains secondary
// indexes for filtered queries and a dependency graph for readiness
// computation and cycle rejection.
//
// Construct with [NewIndex]. Not safe for concurrent use.
type Index struct {
	tasks map[string]task.Task

	// Secondary indexes: dimension value → set of task identifiers.
	byStatus     map[string]map[string]struct{}
	byPriority   map[string]map[string]struct{}
	byType       map[string]map[string]struct{}
	byClaimant   map[string]map[string]struct{}
	byCapability map[string]map[string]struct{}

	// Parent → children reverse map.
	children map[string]map[string]struct{}

	// Dependency graph.
	// dependsOn: identifier → set of identifiers it depends on (forward edges).
	// dependents: identifier → set of identifiers that depend on it (reverse edges).
	dependsOn  map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// NewIndex returns an empty index ready for use.
func NewIndex() *Index {
	return &Index{
		tasks:        make(map[string]task.Task),
		byStatus:     make(map[string]map[string]struct{}),
		byPriority:   make(map[string]map[string]struct{}),
		byType:       make(map[string]map[string]struct{}),
		byClaimant:   make(map[string]map[string]struct{}),
		byCapability: make(map[string]map[string]struct{}),
		children:     make(map[string]map[string]struct{}),
		dependsOn:    make(map[string]map[string]struct{}),
		dependents:   make(map[string]map[string]struct{}),
	}
}

// Len returns the number of tasks in the index.
func (idx *Index) Len() int {
	return len(idx.tasks)
}

// Put adds or updates a task in the index, keyed by its identifier. If
// a task with the same identifier already exists it is replaced and all
// secondary indexes are updated to reflect the new content.
//
// Put does not validate — the store validates before writing. Slice
// fields are cloned at the storage boundary so later caller mutations
// cannot alias through to the stored copy and corrupt secondary index
// removal.
func (idx *Index) Put(content task.Task) {
	identifier := content.Identifier
	if old, exists := idx.tasks[identifier]; exists {
		idx.updateIndexes(identifier, &old, removeFromIndex)
	}

	if len(content.RequiredCapabilities) > 0 {
		content.RequiredCapabilities = append([]string(nil), content.RequiredCapabilities...)
	}
	if len(content.Dependencies) > 0 {
		content.Dependencies = append([]string(nil), content.Dependencies...)
	}

	idx.tasks[identifier] = content
	idx.updateIndexes(identifier, &content, addToIndex)
}

// Remove deletes a task from the index and cleans up all secondary
// indexes. No-op if the task does not exist.
func (idx *Index) Remove(identifier string) {
	old, exists := idx.tasks[identifier]
	if !exists {
		return
	}
	idx.updateIndexes(identifier, &old, removeFromIndex)
	delete(idx.tasks, identifier)
}

// Get returns a single task. The second return value is false if the
// task does not exist.
func (idx *Index) Get(identifier string) (task.Task, bool) {
	content, exists := idx.tasks[identifier]
	return content, exists
}

// All returns every task in the index, sorted by priority then
// creation time.
func (idx *Index) All() []Entry {
	result := make([]Entry, 0, len(idx.tasks))
	for identifier, content := range idx.tasks {
		result = append(result, Entry{Identifier: identifier, Task: content})
	}
	sortEntries(result)
	return result
}

// Ready returns all tasks claimable at the given instant: effectively
// open (lazy claim expiry applied), not goals, with every dependency
// completed. Results are sorted by priority (critical first) then by
// creation time (oldest first) — the claim selection order.
func (idx *Index) Ready(now time.Time) []Entry {
	var result []Entry
	for identifier, content := range idx.tasks {
		if content.Claimable(now) && idx.Dependencies(identifier).Satisfied {
			result = append(result, Entry{Identifier: identifier, Task: content})
		}
	}
	sortEntries(result)
	return result
}

// Blocked returns all tasks held back by their dependencies: status
// "blocked", or effectively open with at least one incomplete or
// missing dependency. Results are sorted by priority then creation
// time.
func (idx *Index) Blocked(now time.Time) []Entry {
	var result []Entry
	for identifier, content := range idx.tasks {
		effective := content.EffectiveStatus(now)
		if effective != task.StatusBlocked && effective != task.StatusOpen {
			continue
		}
		if !idx.Dependencies(identifier).Satisfied {
			result = append(result, Entry{Identifier: identifier, Task: content})
		}
	}
	sortEntries(result)
	return result
}

// List returns tasks matching the given filter. All non-zero filter
// fields must match (AND semantics). An empty filter returns all
// tasks. Results are sorted by priority then creation time.
func (idx *Index) List(filter Filter) []Entry {
	var result []Entry
	for identifier, content := range idx.tasks {
		if matchesFilter(&content, &filter) {
			result = append(result, Entry{Identifier: identifier, Task: content})
		}
	}
	sortEntries(result)
	return result
}

// Children returns the direct children of a goal (tasks whose Parent
// field equals parentID). Results are sorted by priority then creation
// time.
func (idx *Index) Children(parentID string) []Entry {
	childIDs, exists := idx.children[parentID]
	if !exists {
		return nil
	}
	result := make([]Entry, 0, len(childIDs))
	for childID := range childIDs {
		content, exists := idx.tasks[childID]
		if exists {
			result = append(result, Entry{Identifier: childID, Task: content})
		}
	}
	sortEntries(result)
	return result
}

// ChildProgress returns a summary of a goal's children: total count
// and how many have reached "completed".
func (idx *Index) ChildProgress(parentID string) (total, completed int) {
	childIDs, exists := idx.children[parentID]
	if !exists {
		return 0, 0
	}
	for childID := range childIDs {
		content, exists := idx.tasks[childID]
		if !exists {
			continue
		}
		total++
		if content.Status == task.StatusCompleted {
			completed++
		}
	}
	return total, completed
}

// Dependencies evaluates a task's dependency list: every dependency
// must exist and be completed for Satisfied to be true. Incomplete and
// Missing identifiers are reported sorted so callers can surface them
// verbatim. A task with no dependencies is trivially satisfied;
// re-evaluating an already-satisfied list is a no-op by construction.
func (idx *Index) Dependencies(identifier string) DependencyCheck {
	content, exists := idx.tasks[identifier]
	if !exists {
		return DependencyCheck{Satisfied: false, Missing: []string{identifier}}
	}
	check := DependencyCheck{Satisfied: true}
	for _, depID := range content.Dependencies {
		dep, exists := idx.tasks[depID]
		switch {
		case !exists:
			check.Satisfied = false
			check.Missing = append(check.Missing, depID)
		case dep.Status != task.StatusCompleted:
			check.Satisfied = false
			check.Incomplete = append(check.Incomplete, depID)
		}
	}
	slices.Sort(check.Incomplete)
	slices.Sort(check.Missing)
	return check
}

// Dependents returns the task identifiers that directly depend on the
// given task (the reverse of Dependencies). Returns nil if nothing
// depends on it.
func (idx *Index) Dependents(identifier string) []string {
	deps, exists := idx.dependents[identifier]
	if !exists {
		return nil
	}
	result := make([]string, 0, len(deps))
	for id := range deps {
		result = append(result, id)
	}
	slices.Sort(result)
	return result
}

// Deps returns the transitive closure of the dependency graph starting
// from the given task — every identifier it transitively depends on,
// following forward edges. The starting task is not included. Returns
// nil if the task has no dependencies.
func (idx *Index) Deps(identifier string) []string {
	visited := map[string]struct{}{identifier: {}}
	queue := []string{identifier}
	var deps []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		content, exists := idx.tasks[current]
		if !exists {
			continue
		}
		for _, depID := range content.Dependencies {
			if _, seen := visited[depID]; !seen {
				visited[depID] = struct{}{}
				queue = append(queue, depID)
				deps = append(deps, depID)
			}
		}
	}
	slices.Sort(deps)
	return deps
}

// WouldCycle returns true if adding the proposed dependency edges to
// the given task would create a cycle in the dependency graph. The
// coordination core calls this before accepting a create or edge
// mutation.
//
// The check traverses the existing graph from each proposed dependency:
// if any of them can reach the task through existing forward edges,
// adding the new edge would close a cycle.
func (idx *Index) WouldCycle(identifier string, proposedDeps []string) bool {
	for _, depID := range proposedDeps {
		if depID == identifier {
			return true
		}
		if idx.canReach(depID, identifier) {
			return true
		}
	}
	return false
}

// Stats returns aggregate counts across all tasks in the index.
func (idx *Index) Stats() Stats {
	stats := Stats{
		Total:      len(idx.tasks),
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
		ByType:     make(map[string]int),
	}
	for _, content := range idx.tasks {
		stats.ByStatus[string(content.Status)]++
		stats.ByPriority[string(content.Priority)]++
		stats.ByType[string(content.Type)]++
	}
	return stats
}

// --- Internal helpers ---

// updateIndexes applies an index operation to every secondary index
// for the given task. Used by Put (with add) and Remove (with remove).
func (idx *Index) updateIndexes(
	identifier string,
	content *task.Task,
	op func(map[string]map[string]struct{}, string, string),
) {
	op(idx.byStatus, string(content.Status), identifier)
	op(idx.byPriority, string(content.Priority), identifier)
	op(idx.byType, string(content.Type), identifier)

	if content.ClaimedBy != "" {
		op(idx.byClaimant, content.ClaimedBy, identifier)
	}
	for _, capability := range content.RequiredCapabilities {
		op(idx.byCapability, capability, identifier)
	}
	if content.Parent != "" {
		op(idx.children, content.Parent, identifier)
	}

	// Dependency graph: forward and reverse edges.
	for _, depID := range content.Dependencies {
		op(idx.dependsOn, identifier, depID)
		op(idx.dependents, depID, identifier)
	}
}

// matchesFilter returns true if the task matches all non-zero fields
// in the filter.
func matchesFilter(content *task.Task, filter *Filter) bool {
	if filter.Status != "" && content.Status != filter.Status {
		return false
	}
	if filter.Priority != "" && content.Priority != filter.Priority {
		return false
	}
	if filter.Type != "" && content.Type != filter.Type {
		return false
	}
	if filter.Claimant != "" && content.ClaimedBy != filter.Claimant {
		return false
	}
	if filter.Capability != "" && !slices.Contains(content.RequiredCapabilities, filter.Capability) {
		return false
	}
	if filter.Parent != "" && content.Parent != filter.Parent {
		return false
	}
	return true
}

// canReach returns true if 'from' can reach 'target' by following
// forward dependency edges through the existing graph.
func (idx *Index) canReach(from, target string) bool {
	visited := map[string]struct{}{from: {}}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		content, exists := idx.tasks[current]
		if !exists {
			continue
		}
		for _, depID := range content.Dependencies {
			if depID == target {
				return true
			}
			if _, seen := visited[depID]; !seen {
				visited[depID] = struct{}{}
				queue = append(queue, depID)
			}
		}
	}
	return false
}

// sortEntries sorts by priority rank ascending (critical first), then
// by CreatedAt ascending (oldest first). CreatedAt is RFC 3339, so
// string comparison gives chronological ordering.
func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if rankA, rankB := a.Task.Priority.Rank(), b.Task.Priority.Rank(); rankA != rankB {
			return rankA - rankB
		}
		return strings.Compare(a.Task.CreatedAt, b.Task.CreatedAt)
	})
}

// --- Generic index helpers ---

func addToIndex(index map[string]map[string]struct{}, key, value string) {
	set, exists := index[key]
	if !exists {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[value] = struct{}{}
}

func removeFromIndex(index map[string]map[string]struct{}, key, value string) {
	set, exists := index[key]
	if !exists {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(index, key)
	}
}
