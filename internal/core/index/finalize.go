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
	"github.com/expenses/primidx/errs"
	"github.com/expenses/primidx/internal/core/graph"
)

// finalize implements spec.md §4.10 step 5: permission enforcement,
// instanceability, compaction, and prim-stack gathering. Only the
// topmost frame of a BuildPrimIndex call chain runs this.
func (st *IndexerState) finalize(pi *PrimIndex) {
	g := pi.Graph
	if !st.Inputs.Usd {
		st.enforcePermissions(g)
	}

	pi.Instanceable = instanceable(g)
	pi.HasPayloads = hasPayloadNode(g) || st.Outputs.PayloadState != NoPayload
	if !st.Inputs.Usd {
		pi.PrimStack = gatherPrimStack(g)
	}

	g.WalkCulled(func(n *graph.Node) {
		if n.HasSpecs {
			st.Outputs.CulledDependencies = append(st.Outputs.CulledDependencies, n)
		}
	})

	g.Finalize()
}

// enforcePermissions implements spec.md §4.11: walk all nodes strong to
// weak, and once a Private node has been seen, restrict every stronger
// subsequent node that could contribute specs (recording
// PrimPermissionDenied for those that actually have a spec).
func (st *IndexerState) enforcePermissions(g *graph.Graph) {
	seenPrivate := false
	for _, n := range g.StrengthOrderIncludingCulled() {
		if seenPrivate && contributes(n) {
			n.Restricted = true
			if n.HasSpecs {
				st.Outputs.AllErrors.Add(&errs.Error{
					Code:     errs.PrimPermissionDenied,
					RootSite: st.RootSite.String(),
					Site:     n.Site.String(),
					Msg:      "a stronger node carries specs beneath a Private opinion",
				})
			}
		}
		if n.Permission == graph.Private {
			seenPrivate = true
		}
	}
}

// instanceable is a documented simplification of the instanceability bit
// the spec names in its data model and driver but never fully defines
// (spec.md §3, §4.10 step 5): a prim index is instanceable unless some
// node carries symmetry information or has been marked restricted by
// permission enforcement, both of which make a prim's composed result
// depend on context that differs instance-to-instance. See DESIGN.md.
func instanceable(g *graph.Graph) bool {
	for _, n := range g.All() {
		if n.HasSymmetry || n.Restricted {
			return false
		}
	}
	return true
}

func hasPayloadNode(g *graph.Graph) bool {
	for _, n := range g.All() {
		if n.ArcType == graph.ArcPayload {
			return true
		}
	}
	return false
}

// gatherPrimStack collects the (node, layer-stack) pairs that carry
// specs, in strong-to-weak order. Per-layer resolution within a layer
// stack is not available through layerstack.LayerStack (which exposes
// only aggregate HasSpecs), so each entry names the node's whole layer
// stack rather than an individual layer; see PrimIndex.PrimStack's doc
// comment and DESIGN.md.
func gatherPrimStack(g *graph.Graph) []PrimStackEntry {
	var out []PrimStackEntry
	for _, n := range g.StrengthOrder() {
		if n.HasSpecs && !n.Inert {
			out = append(out, PrimStackEntry{Node: n, LayerStackID: n.Site.LayerStackID})
		}
	}
	return out
}
