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

// isPropagatedSpecializesNode implements spec.md §4.8's detection rule:
// arc type Specialize, parent is the root, and site equals origin's
// site.
func isPropagatedSpecializesNode(g *graph.Graph, n *graph.Node) bool {
	if n.ArcType != graph.ArcSpecialize || n.Origin == graph.NoIndex {
		return false
	}
	if n.Parent != g.Root().Index() {
		return false
	}
	return n.Site.Equal(g.Node(n.Origin).Site)
}

// isRelocatePlaceholder reports whether n is a relocate placeholder per
// spec.md §4.8's skip clause: parent is a Relocate whose site equals
// n's and whose identity differs from n's origin.
func (st *IndexerState) isRelocatePlaceholder(n *graph.Node) bool {
	if n.Parent == graph.NoIndex {
		return false
	}
	g := st.graph()
	parent := g.Node(n.Parent)
	if parent.ArcType != graph.ArcRelocate || !parent.Site.Equal(n.Site) {
		return false
	}
	return n.Origin != parent.Index()
}

// evalImpliedSpecializes implements spec.md §4.8's EvalImpliedSpecializes.
func (st *IndexerState) evalImpliedSpecializes(n *graph.Node) {
	g := st.graph()

	if isPropagatedSpecializesNode(g, n) {
		origin := g.Node(n.Origin)
		for _, c := range append([]graph.Index{}, n.Children...) {
			child := g.Node(c)
			if child.ArcType == graph.ArcSpecialize {
				continue
			}
			st.propagateNodeToParent(origin, child, false, true)
		}
		return
	}

	// Test n itself before recursing into its children: AddTasksForNode
	// schedules this task directly against a freshly-added Specialize
	// node when that node's parent isn't class-based, so the walk must
	// catch that case at its starting node, not only among descendants.
	var walk func(idx graph.Index)
	walk = func(idx graph.Index) {
		node := g.Node(idx)
		if node.ArcType == graph.ArcSpecialize && !st.isRelocatePlaceholder(node) {
			node.Inert = false
			st.propagateNodeToParent(g.Root(), node, true, false)
			return
		}
		for _, c := range append([]graph.Index{}, node.Children...) {
			walk(c)
		}
	}
	walk(n.Index())
}

// propagateNodeToParent implements spec.md §4.8's _PropagateNodeToParent.
func (st *IndexerState) propagateNodeToParent(dstParent, src *graph.Node, skipImpliedSpecializes, skipExpressedArcTasks bool) *graph.Node {
	g := st.graph()
	if src.Parent == dstParent.Index() {
		return src
	}
	for _, c := range dstParent.Children {
		cn := g.Node(c)
		if cn.ArcType == src.ArcType && cn.Site.Equal(src.Site) {
			return cn
		}
	}

	origin := dstParent.Index()
	if isClassBased(src) || src.ArcIntroduction {
		origin = src.Index()
	}

	node, ok := st.AddArc(AddArcParams{
		ArcType:                        src.ArcType,
		Parent:                         dstParent.Index(),
		Origin:                         origin,
		ChildSite:                      src.Site,
		MapExpr:                        src.MapToParent,
		SiblingNum:                     src.SiblingNumberAtOrigin,
		NamespaceDepth:                 -1,
		DirectContributes:              src.DirectContributes,
		IncludeAncestral:               false,
		SkipImpliedSpecializesComplete: skipImpliedSpecializes,
		SkipExpressedArcTasks:          skipExpressedArcTasks,
	})
	if !ok {
		return src
	}
	node.Inert = src.Inert
	node.HasSymmetry = src.HasSymmetry
	node.Permission = src.Permission
	node.Restricted = src.Restricted
	src.Inert = true
	return node
}
