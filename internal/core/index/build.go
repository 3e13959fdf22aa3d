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

package index

import (
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/sched"
)

// buildAt implements spec.md §4.10 steps 1-4: the namespace-ancestor
// ladder. Building site s first fully builds and drains s.Path.Parent()
// (recursively down to the root), clone-rebases that completed graph by
// appending s's own final name, then drains this level's own task queue
// over the rebased graph. Each level of the ladder runs its own
// temporary Queue; Frame (and therefore cross-frame cycle/duplicate
// state) is shared across the whole ladder, since it is one call chain,
// not a new recursive sub-index.
func (st *IndexerState) buildAt(s graph.Site, ancestorDepth int, evaluateImpliedSpecializes, evaluateVariants, rootContributesSpecs bool) *graph.Graph {
	switch {
	case s.Path.IsRoot():
		return graph.New(s)
	case s.Path.ContainsPrimVariantSelection():
		g := graph.New(s)
		g.Root().Inert = !rootContributesSpecs
		return g
	}

	parentSite := graph.Site{LayerStackID: s.LayerStackID, Path: s.Path.Parent()}
	parentGraph := st.buildAt(parentSite, ancestorDepth+1, evaluateImpliedSpecializes, true, true)

	name, _ := s.Path.Last()
	g := parentGraph.CloneRebased(name.Name, rootContributesSpecs, st.Inputs.Cull)

	savedGraph, savedQueue := st.Frame.Graph, st.Queue
	savedEIS, savedEV := st.EvaluateImpliedSpecializes, st.EvaluateVariants
	st.Frame.Graph = g
	st.Queue = sched.New()
	st.EvaluateImpliedSpecializes = evaluateImpliedSpecializes
	st.EvaluateVariants = evaluateVariants

	st.AddTasksForRootNode(g.Root())
	st.drain()

	st.Frame.Graph, st.Queue = savedGraph, savedQueue
	st.EvaluateImpliedSpecializes, st.EvaluateVariants = savedEIS, savedEV

	return g
}

// drain dispatches tasks from st.Queue until it is empty, per spec.md
// §2's control-flow summary: "pop the highest-priority task, dispatch
// to the matching evaluator, which may call AddArc, which may push new
// tasks. Loop terminates when the queue empties."
func (st *IndexerState) drain() {
	for st.Queue.Len() > 0 {
		t := st.Queue.Pop()
		st.dispatch(t)
	}
}

// dispatch is the switch over Task.Type named in spec.md §9
// ("Polymorphism ... evaluator dispatch is a switch over Task.type").
func (st *IndexerState) dispatch(t sched.Task) {
	g := st.graph()
	if int(t.Node) >= g.Len() {
		return
	}
	n := g.Node(t.Node)
	if n.Culled {
		return
	}

	switch t.Type {
	case sched.EvalNodeRelocations:
		st.evalNodeRelocations(n)
	case sched.EvalImpliedRelocations:
		st.evalImpliedRelocations(n)
	case sched.EvalNodeReferences:
		st.evalNodeReferences(n)
	case sched.EvalNodePayload:
		st.evalNodePayload(n)
	case sched.EvalNodeInherits:
		st.evalNodeInherits(n)
	case sched.EvalNodeSpecializes:
		st.evalNodeSpecializes(n)
	case sched.EvalImpliedClasses:
		st.evalImpliedClasses(n)
	case sched.EvalImpliedSpecializes:
		st.evalImpliedSpecializes(n)
	case sched.EvalNodeVariantSets:
		st.evalNodeVariantSets(n)
	case sched.EvalNodeVariantAuthored:
		st.evalNodeVariantAuthored(n, t.VSetName, t.VSetNum)
	case sched.EvalNodeVariantFallback:
		st.evalNodeVariantFallback(n, t.VSetName, t.VSetNum)
	case sched.EvalNodeVariantNoneFound:
		// Terminal: no further evaluator work. RetryVariantTasks may
		// later promote this task back to EvalNodeVariantAuthored.
	}
}
