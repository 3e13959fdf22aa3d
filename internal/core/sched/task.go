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

// Package sched implements the prim index task queue of spec.md §4.4: a
// max-heap over Tasks ordered by a total priority order, plus a
// deduplication set for idempotent task types.
//
// This is grounded on the teacher's task scheduler
// (_examples/cue-lang-cue/internal/core/adt/sched.go), which also models
// a node-associated unit of deferred work dispatched through a single
// run loop; that scheduler orders tasks by dependency-completion
// conditions rather than a fixed priority, so here the task ordering is
// reworked into container/heap's Interface over the total order of
// spec.md §4.4 instead of adopting sched.go's condition-bitmask design,
// which has no analogue once there is a fixed, finite set of arc kinds
// to dispatch.
package sched

import "github.com/expenses/primidx/internal/core/graph"

// Type identifies the kind of evaluator a Task dispatches to. The
// ordering of these constants IS the priority order of spec.md §4.4,
// ascending from lowest to highest: a max-heap keyed on Type (and the
// intra-type tie-breaks below) pops EvalNodeRelocations before
// EvalNodeReferences before ... before EvalNodeVariantNoneFound, exactly
// mirroring the evaluation order the spec requires.
type Type int8

const (
	None Type = iota
	EvalNodeVariantNoneFound
	EvalNodeVariantFallback
	EvalNodeVariantAuthored
	EvalNodeVariantSets
	EvalImpliedSpecializes
	EvalNodeSpecializes
	EvalImpliedClasses
	EvalNodeInherits
	EvalNodePayload
	EvalNodeReferences
	EvalImpliedRelocations
	EvalNodeRelocations
)

// A Task is one unit of scheduled work: evaluate Type for Node, with an
// optional variant-set name/number for the variant-set task types.
type Task struct {
	Type     Type
	Node     graph.Index
	VSetName string
	VSetNum  int

	// seq is assigned at push time and used as a last-resort
	// deterministic tie-break so that Less is a strict weak ordering
	// even when two tasks are otherwise indistinguishable (e.g. two
	// EvalNodeVariantNoneFound tasks for unrelated nodes — spec.md §4.4
	// only requires "any total order ... must be deterministic").
	seq int
}

func dedupKey(t Task) (Type, graph.Index) { return t.Type, t.Node }

func dedupable(ty Type) bool {
	return ty == EvalImpliedClasses || ty == EvalImpliedSpecializes
}
