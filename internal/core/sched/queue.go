// Copyright 2024 CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sched

import (
	"container/heap"

	"github.com/expenses/primidx/internal/core/graph"
)

// A Queue is the prim index's task queue: a max-heap over Task ordered
// by the total order of spec.md §4.4, with deduplication for
// EvalImpliedClasses/EvalImpliedSpecializes.
type Queue struct {
	h       taskHeap
	dedup   map[dedupEntry]bool
	nextSeq int
}

type dedupEntry struct {
	ty Type
	n  graph.Index
}

// New creates an empty Queue.
func New() *Queue {
	q := &Queue{dedup: make(map[dedupEntry]bool)}
	q.h.rank = make(map[graph.Index]int)
	heap.Init(&q.h)
	return q
}

// Len reports the number of tasks currently queued.
func (q *Queue) Len() int { return q.h.Len() }

// Push enqueues t. If t's Type is deduplicated (EvalImpliedClasses or
// EvalImpliedSpecializes) and an equal (Type, Node) task is already
// queued, Push is a no-op, per spec.md §4.4's idempotent-insert rule.
func (q *Queue) Push(t Task) {
	if dedupable(t.Type) {
		key := dedupEntry{t.Type, t.Node}
		if q.dedup[key] {
			return
		}
		q.dedup[key] = true
	}
	t.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.h, t)
}

// Pop removes and returns the highest-priority task. It panics if the
// queue is empty; callers must check Len() first.
func (q *Queue) Pop() Task {
	t := heap.Pop(&q.h).(Task)
	if dedupable(t.Type) {
		delete(q.dedup, dedupEntry{t.Type, t.Node})
	}
	return t
}

// RecomputeRanks refreshes the node-strength ranking used to break ties
// among EvalNodePayload and EvalNodeVariantAuthored/Fallback tasks
// (EvalImpliedClasses ties use node index instead), then re-heapifies to restore heap
// invariants under the new ranking. Callers should invoke this after
// any AddArc call that may have added nodes, and in particular always
// immediately before Pop.
func (q *Queue) RecomputeRanks(g *graph.Graph) {
	rank := make(map[graph.Index]int, g.Len())
	for i, n := range g.StrengthOrderIncludingCulled() {
		rank[n.Index()] = i
	}
	q.h.rank = rank
	heap.Init(&q.h)
}

// RetryVariantTasks promotes every queued EvalNodeVariantFallback and
// EvalNodeVariantNoneFound task to EvalNodeVariantAuthored and
// re-heapifies, per spec.md §4.6's AddVariantArc postcondition: "call
// RetryVariantTasks to rescan pending fallback/none-found tasks now that
// opinions may have changed."
func (q *Queue) RetryVariantTasks() {
	for i := range q.h.tasks {
		switch q.h.tasks[i].Type {
		case EvalNodeVariantFallback, EvalNodeVariantNoneFound:
			q.h.tasks[i].Type = EvalNodeVariantAuthored
		}
	}
	heap.Init(&q.h)
}

// taskHeap implements container/heap.Interface as a max-heap: Less(i, j)
// reports whether i has HIGHER priority than j, so heap.Pop always
// yields the currently-highest-priority task. rank holds the node
// strength-order positions used by the intra-type tie-breaks of
// spec.md §4.4; it is refreshed out-of-band by Queue.RecomputeRanks.
type taskHeap struct {
	tasks []Task
	rank  map[graph.Index]int
}

func (h *taskHeap) Len() int { return len(h.tasks) }

func (h *taskHeap) Less(i, j int) bool {
	a, b := h.tasks[i], h.tasks[j]
	if a.Type != b.Type {
		return a.Type > b.Type
	}
	switch a.Type {
	case EvalNodePayload, EvalNodeVariantAuthored, EvalNodeVariantFallback:
		// "by decreasing node strength (strongest first), then by
		// increasing vsetNum" (spec.md §4.4).
		if ra, rb := h.rank[a.Node], h.rank[b.Node]; ra != rb {
			return ra < rb // lower rank index == stronger == higher priority
		}
		if a.VSetNum != b.VSetNum {
			return a.VSetNum < b.VSetNum
		}
	case EvalImpliedClasses:
		// "descendant nodes must be processed before their ancestors";
		// satisfied by preferring the higher node-pool index, since
		// child nodes always have higher indices than their parents by
		// construction (spec.md §4.4).
		if a.Node != b.Node {
			return a.Node > b.Node
		}
	case EvalNodeVariantNoneFound:
		// "any total order over (node, vsetNum); must be deterministic"
		// (spec.md §4.4). We pick node-pool index then vsetNum,
		// resolving the Open Question of spec.md §9 with the simplest
		// rule that is trivially deterministic.
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.VSetNum != b.VSetNum {
			return a.VSetNum < b.VSetNum
		}
	default:
		// "any deterministic total order over nodes" (spec.md §4.4).
		if a.Node != b.Node {
			return a.Node < b.Node
		}
	}
	return a.seq < b.seq
}

func (h *taskHeap) Swap(i, j int) { h.tasks[i], h.tasks[j] = h.tasks[j], h.tasks[i] }

func (h *taskHeap) Push(x any) { h.tasks = append(h.tasks, x.(Task)) }

func (h *taskHeap) Pop() any {
	n := len(h.tasks)
	t := h.tasks[n-1]
	h.tasks = h.tasks[:n-1]
	return t
}
