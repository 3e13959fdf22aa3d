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

// classHierarchyStart implements the starting-node rule of spec.md §4.7:
// walk toward the root across class-based arcs; stop at the first
// non-class ancestor, unless the hierarchy start itself is class-based
// and the inherited class path is a namespace child of that ancestral
// class's path at introduction, in which case stop there as well.
func (st *IndexerState) classHierarchyStart(n *graph.Node) *graph.Node {
	g := st.graph()
	cur := n
	for {
		if cur.Parent == graph.NoIndex {
			return cur
		}
		parent := g.Node(cur.Parent)
		if parent.ArcType != graph.ArcInherit && parent.ArcType != graph.ArcSpecialize {
			return cur
		}
		if parent.Site.Path.NamespaceDepth() > cur.NamespaceDepth {
			// parent is itself class-based and cur's class is a
			// namespace child of parent's class path at introduction;
			// stop here rather than continuing past it.
			return cur
		}
		cur = parent
	}
}

func isClassBased(n *graph.Node) bool {
	return n.ArcType == graph.ArcInherit || n.ArcType == graph.ArcSpecialize
}

// AddTasksForNode enqueues the evaluator tasks for a freshly-inserted
// sub-tree rooted at n, per spec.md §4.5.1.
func (st *IndexerState) AddTasksForNode(n *graph.Node, skipExpressedArcTasks bool) {
	g := st.graph()

	if isClassBased(n) {
		start := st.classHierarchyStart(n)
		st.Queue.Push(sched.Task{Type: sched.EvalImpliedClasses, Node: start.Index()})
	} else if hasClassBasedChild(g, n) {
		st.Queue.Push(sched.Task{Type: sched.EvalImpliedClasses, Node: n.Index()})
	}

	if st.EvaluateImpliedSpecializes {
		if isClassBased(n) {
			start := st.classHierarchyStart(n)
			st.Queue.Push(sched.Task{Type: sched.EvalImpliedSpecializes, Node: start.Index()})
		} else if hasClassBasedChild(g, n) {
			st.Queue.Push(sched.Task{Type: sched.EvalImpliedSpecializes, Node: n.Index()})
		}
	}

	var walk func(idx graph.Index)
	walk = func(idx graph.Index) {
		node := g.Node(idx)
		st.addExpressedArcTasks(node, skipExpressedArcTasks)
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n.Index())

	st.Queue.RecomputeRanks(g)
}

// AddTasksForRootNode enqueues tasks for a just-initialized graph's root
// node, per spec.md §4.10 step 4.
func (st *IndexerState) AddTasksForRootNode(root *graph.Node) {
	st.AddTasksForNode(root, false)
}

func hasClassBasedChild(g *graph.Graph, n *graph.Node) bool {
	for _, c := range n.Children {
		if isClassBased(g.Node(c)) {
			return true
		}
	}
	return false
}

// addExpressedArcTasks scans node's site for which of
// {relocates, references, payloads, inherits, specializes, variants}
// are authored and enqueues the matching evaluator task, per spec.md
// §4.5.1's final bullet.
func (st *IndexerState) addExpressedArcTasks(node *graph.Node, skipExpressedArcTasks bool) {
	if node.Inert {
		return
	}

	if node.ArcType == graph.ArcRelocate && !node.DueToAncestor {
		st.Queue.Push(sched.Task{Type: sched.EvalImpliedRelocations, Node: node.Index()})
	}

	if skipExpressedArcTasks {
		return
	}

	if !st.Inputs.Usd && len(st.Composer.IncrementalRelocations(node.Site)) > 0 {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeRelocations, Node: node.Index()})
	}
	if len(st.Composer.References(node.Site)) > 0 {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeReferences, Node: node.Index()})
	}
	if len(st.Composer.Payloads(node.Site)) > 0 {
		st.Queue.Push(sched.Task{Type: sched.EvalNodePayload, Node: node.Index()})
	}
	if len(st.Composer.InheritPaths(node.Site)) > 0 {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeInherits, Node: node.Index()})
	}
	if len(st.Composer.SpecializePaths(node.Site)) > 0 {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeSpecializes, Node: node.Index()})
	}
	if st.EvaluateVariants && len(st.Composer.VariantSetNames(node.Site)) > 0 {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeVariantSets, Node: node.Index()})
	}
}
