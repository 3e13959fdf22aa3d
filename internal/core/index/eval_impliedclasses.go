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
	"github.com/expenses/primidx/path"
)

// evalImpliedClasses implements spec.md §4.7's EvalImpliedClasses.
func (st *IndexerState) evalImpliedClasses(n *graph.Node) {
	if n.Parent == graph.NoIndex {
		return
	}
	g := st.graph()
	parent := g.Node(n.Parent)
	transfer := n.MapToParent.AddRootIdentity()
	st.propagateClassChildren(n, parent, transfer)
}

func (st *IndexerState) propagateClassChildren(n, parent *graph.Node, transfer *path.MapExpression) {
	g := st.graph()

	if parent.ArcType == graph.ArcRelocate {
		if parent.Parent == graph.NoIndex {
			return
		}
		grand := g.Node(parent.Parent)
		newTransfer := parent.MapToParent.AddRootIdentity().Compose(transfer)
		st.propagateClassChildren(n, grand, newTransfer)
		st.Queue.Push(sched.Task{Type: sched.EvalImpliedClasses, Node: parent.Index()})
		return
	}

	for _, c := range append([]graph.Index{}, n.Children...) {
		child := g.Node(c)
		if !isClassBased(child) {
			continue
		}
		if child.DueToAncestor && child.NamespaceDepth == n.NamespaceDepth {
			// An ancestral class child already introduced at the same
			// depth as n: its implication was already materialized when
			// its own ancestor was propagated.
			continue
		}
		impliedMap := transfer.Compose(child.MapToParent).Compose(transfer.Inverse()).AddRootIdentity()
		st.AddClassBasedArc(parent, child.ArcType, impliedMap, 0, child.Index(), child.Site, true)
	}
}
