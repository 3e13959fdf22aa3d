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
	"testing"

	"github.com/expenses/primidx/internal/core/graph"
)

func TestQueuePopsHighestPriorityTypeFirst(t *testing.T) {
	q := New()
	q.Push(Task{Type: EvalNodeVariantNoneFound, Node: 0})
	q.Push(Task{Type: EvalNodeRelocations, Node: 0})
	q.Push(Task{Type: EvalNodeInherits, Node: 0})

	if got := q.Pop().Type; got != EvalNodeRelocations {
		t.Fatalf("first pop = %v, want EvalNodeRelocations", got)
	}
	if got := q.Pop().Type; got != EvalNodeInherits {
		t.Fatalf("second pop = %v, want EvalNodeInherits", got)
	}
	if got := q.Pop().Type; got != EvalNodeVariantNoneFound {
		t.Fatalf("third pop = %v, want EvalNodeVariantNoneFound", got)
	}
}

func TestQueueDeduplicatesImpliedClasses(t *testing.T) {
	q := New()
	q.Push(Task{Type: EvalImpliedClasses, Node: 3})
	q.Push(Task{Type: EvalImpliedClasses, Node: 3})
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after duplicate EvalImpliedClasses push", q.Len())
	}
}

func TestQueueDoesNotDeduplicateOtherTypes(t *testing.T) {
	q := New()
	q.Push(Task{Type: EvalNodeReferences, Node: 3})
	q.Push(Task{Type: EvalNodeReferences, Node: 3})
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2; EvalNodeReferences is not deduplicated", q.Len())
	}
}

func TestQueuePayloadTieBreakByStrength(t *testing.T) {
	q := New()
	// Node 1 is stronger (rank 0) than node 2 (rank 1).
	q.h.rank = map[graph.Index]int{1: 0, 2: 1}
	q.Push(Task{Type: EvalNodePayload, Node: 2})
	q.Push(Task{Type: EvalNodePayload, Node: 1})

	if got := q.Pop().Node; got != 1 {
		t.Fatalf("first pop node = %d, want 1 (stronger node first)", got)
	}
}

func TestRetryVariantTasksPromotes(t *testing.T) {
	q := New()
	q.Push(Task{Type: EvalNodeVariantFallback, Node: 0})
	q.Push(Task{Type: EvalNodeVariantNoneFound, Node: 1})
	q.RetryVariantTasks()

	seen := map[Type]int{}
	for q.Len() > 0 {
		seen[q.Pop().Type]++
	}
	if seen[EvalNodeVariantAuthored] != 2 {
		t.Fatalf("expected both tasks promoted to EvalNodeVariantAuthored, got %v", seen)
	}
}
