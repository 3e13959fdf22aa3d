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

// cycleExempt implements the two exceptions of spec.md §4.5 step 1:
// variant arcs never cycle, and implied class-based arcs whose nearest
// non-class ancestor is a Relocate node are exempt.
func (st *IndexerState) cycleExempt(p AddArcParams) bool {
	if p.ArcType == graph.ArcVariant {
		return true
	}
	if (p.ArcType == graph.ArcInherit || p.ArcType == graph.ArcSpecialize) && p.Origin != p.Parent {
		if anc := st.nearestNonClassAncestor(p.Parent); anc != nil && anc.ArcType == graph.ArcRelocate {
			return true
		}
	}
	return false
}

func (st *IndexerState) nearestNonClassAncestor(idx graph.Index) *graph.Node {
	g := st.graph()
	for _, n := range g.Ancestors(idx) {
		if n.ArcType != graph.ArcInherit && n.ArcType != graph.ArcSpecialize {
			return n
		}
	}
	return nil
}

// detectCycle walks from parent to the graph root, and across enclosing
// stack frames (see Frame.chainSites), looking for an ancestor that
// shares childSite's layer stack where one site's path is a prefix of
// the other. It reports the ancestor chain (root-to-offending, for the
// error message) and whether a cycle was found.
func (st *IndexerState) detectCycle(parent graph.Index, childSite graph.Site) (chain []path.Path, offending path.Path, cyclic bool) {
	sites := st.Frame.chainSites(st.graph(), parent)
	for _, s := range sites {
		if s.LayerStackID != childSite.LayerStackID {
			continue
		}
		if s.Path.HasPrefix(childSite.Path) || childSite.Path.HasPrefix(s.Path) {
			out := make([]path.Path, 0, len(sites)+1)
			for i := len(sites) - 1; i >= 0; i-- {
				out = append(out, sites[i].Path)
			}
			out = append(out, childSite.Path)
			return out, childSite.Path, true
		}
	}
	return nil, path.Path{}, false
}

// hasDuplicate walks the current frame's graph and every enclosing
// frame's graph looking for an existing node at childSite, per spec.md
// §4.5 step 2. The spec's cross-frame path-prefix rewrite is
// approximated here by direct site equality against each frame's full
// node set; see Frame's doc comment for the rationale.
func (st *IndexerState) hasDuplicate(childSite graph.Site) bool {
	for _, n := range st.graph().All() {
		if n.Site.Equal(childSite) {
			return true
		}
	}
	for fr := st.Frame.Parent; fr != nil; fr = fr.Parent {
		if fr.Graph == nil {
			continue
		}
		for _, n := range fr.Graph.All() {
			if n.Site.Equal(childSite) {
				return true
			}
		}
	}
	return false
}
