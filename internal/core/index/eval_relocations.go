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
	"github.com/expenses/primidx/path"
)

// evalNodeRelocations implements spec.md §4.6's "Relocations" evaluator.
func (st *IndexerState) evalNodeRelocations(n *graph.Node) {
	var source path.Path
	found := false
	for _, r := range st.Composer.IncrementalRelocations(n.Site) {
		if r.Target.Equal(n.Site.Path) {
			source, found = r.Source, true
			break
		}
	}
	if !found {
		return
	}

	existingChildren := append([]graph.Index{}, n.Children...)

	st.AddArc(AddArcParams{
		ArcType:           graph.ArcRelocate,
		Parent:            n.Index(),
		Origin:            n.Index(),
		ChildSite:         graph.Site{LayerStackID: n.Site.LayerStackID, Path: source},
		MapExpr:           path.IdentityExpr(),
		NamespaceDepth:    -1,
		DirectContributes: false,
		IncludeAncestral:  true,
		SkipDuplicate:     true,
	})

	g := st.graph()
	for _, c := range existingChildren {
		child := g.Node(c)
		switch child.ArcType {
		case graph.ArcReference, graph.ArcPayload, graph.ArcInherit, graph.ArcSpecialize, graph.ArcRelocate:
			st.elide(child, st.Inputs.Cull)
		}
	}
}

// evalImpliedRelocations implements spec.md §4.6's "Implied Relocations"
// evaluator.
func (st *IndexerState) evalImpliedRelocations(n *graph.Node) {
	if n.DueToAncestor || n.Parent == graph.NoIndex {
		return
	}
	g := st.graph()
	p := g.Node(n.Parent)
	if p.Parent == graph.NoIndex {
		return
	}
	gp := g.Node(p.Parent)

	mapped, ok := p.MapToParent.MapSourceToTarget(n.Site.Path)
	if !ok {
		return
	}
	for _, c := range gp.Children {
		cn := g.Node(c)
		if cn.ArcType == graph.ArcRelocate && cn.Site.LayerStackID == n.Site.LayerStackID && cn.Site.Path.Equal(mapped) {
			return
		}
	}

	st.AddArc(AddArcParams{
		ArcType:           graph.ArcRelocate,
		Parent:            gp.Index(),
		Origin:            n.Index(),
		ChildSite:         graph.Site{LayerStackID: n.Site.LayerStackID, Path: mapped},
		MapExpr:           path.IdentityExpr(),
		NamespaceDepth:    -1,
		DirectContributes: false,
		IncludeAncestral:  false,
		DueToAncestor:     true,
	})
}
