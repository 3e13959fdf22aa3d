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

import "github.com/expenses/primidx/internal/core/graph"

// elide implements spec.md §4.9.1: set inert (or culled, when culling
// is enabled and cullInstead is true) on node and every descendant.
func (st *IndexerState) elide(n *graph.Node, cullInstead bool) {
	g := st.graph()
	var walk func(idx graph.Index)
	walk = func(idx graph.Index) {
		node := g.Node(idx)
		if cullInstead && st.Inputs.Cull {
			node.Culled = true
		} else {
			node.Inert = true
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n.Index())
}

// contributes reports whether n itself can contribute opinions: it must
// directly contribute, not be inert, and have a spec in some layer.
func contributes(n *graph.Node) bool {
	return n.DirectContributes && !n.Inert && n.HasSpecs
}

// canCull decides whether n may be physically removed at Finalize, per
// spec.md §4.9: never the root, never a node at depth-below-introduction
// zero, never a node carrying symmetry or a restricted permission, and
// never a node (or ancestor of a node) that itself contributes or has
// an uncullable descendant.
//
// "Depth-below-introduction" in the spec distinguishes a recursively
// grafted sub-index's own root (depth 0, the point an ancestral arc was
// introduced) from its namespace descendants pulled along by the
// ancestor ladder; graph.Node.ArcIntroduction records that distinction
// directly (set exactly on the node AddArc returns). The
// root-layer-stack subroot-Inherit exception named in the spec is left
// unimplemented — see DESIGN.md.
func (st *IndexerState) canCull(n *graph.Node) bool {
	g := st.graph()
	if n.Parent == graph.NoIndex {
		return false
	}
	if n.HasSymmetry || n.Restricted {
		return false
	}
	if n.ArcIntroduction {
		return false
	}
	if contributes(n) {
		return false
	}
	for _, c := range n.Children {
		if !g.Node(c).Culled {
			return false
		}
	}
	return true
}

// uncullAncestors clears the Culled flag on every culled ancestor of n,
// walking up until reaching a non-culled ancestor, per spec.md §4.5
// step 7.
func (st *IndexerState) uncullAncestors(n *graph.Node) {
	g := st.graph()
	idx := n.Parent
	for idx != graph.NoIndex {
		anc := g.Node(idx)
		if !anc.Culled {
			break
		}
		anc.Culled = false
		idx = anc.Parent
	}
}
