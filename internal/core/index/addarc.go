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
	"github.com/expenses/primidx/layerstack"
	"github.com/expenses/primidx/path"
)

// AddArcParams bundles AddArc's parameters, named for spec.md §4.5's
// signature: "AddArc(arc_type, parent, origin, child_site, map_expr,
// sibling_num, namespace_depth, direct_contributes, include_ancestral,
// skip_duplicate, skip_implied_specializes_complete,
// skip_expressed_arc_tasks) -> node | error".
type AddArcParams struct {
	ArcType    graph.ArcType
	Parent     graph.Index
	Origin     graph.Index
	ChildSite  graph.Site
	MapExpr    *path.MapExpression
	SiblingNum int

	// NamespaceDepth, if negative, defaults to Parent's site namespace
	// depth (the common case: the arc is introduced directly at
	// Parent).
	NamespaceDepth int

	DirectContributes bool
	IncludeAncestral  bool

	// DueToAncestor marks an arc produced by propagating an ancestor's
	// arc rather than by direct authorship at Parent (spec.md §4.6's
	// Implied Relocations, §4.7's EvalImpliedClasses): such arcs must
	// not themselves be propagated a second time.
	DueToAncestor bool

	SkipDuplicate                  bool
	SkipImpliedSpecializesComplete bool
	SkipExpressedArcTasks          bool
}

// Structural limits enforced by AddArc, per spec.md §7's
// IndexCapacityExceeded/ArcCapacityExceeded/
// ArcNamespaceDepthCapacityExceeded codes. The spec names these as
// guards against pathological inputs (a reference cycle too indirect
// for detectCycle's site-identity check, or a deeply nested sequence of
// default-target placeholders) without naming concrete thresholds; these
// values are chosen generously enough not to trip on any legitimate
// scene in spec.md §8, while still bounding runaway recursion. See
// DESIGN.md.
const (
	maxGraphNodes     = 1 << 20
	maxArcsPerNode    = 1 << 16
	maxNamespaceDepth = 1 << 16
)

// AddArc inserts one composition arc, running the cycle check,
// duplicate-node check, salted-earth rule, node creation (leaf or
// recursive sub-index graft), post-flags, default-target placeholder
// handling, culling fix-up, and task enqueue of spec.md §4.5. It returns
// the new node and true, or (nil, false) if the arc was rejected
// (cycle) or silently skipped (duplicate).
func (st *IndexerState) AddArc(p AddArcParams) (*graph.Node, bool) {
	g := st.graph()

	if !st.cycleExempt(p) {
		if chain, offending, cyclic := st.detectCycle(p.Parent, p.ChildSite); cyclic {
			st.Outputs.AllErrors.Add(errs.NewCycle(st.RootSite.String(), chain, offending))
			return nil, false
		}
	}

	if p.SkipDuplicate && st.hasDuplicate(p.ChildSite) {
		return nil, false
	}

	if g.Len() >= maxGraphNodes {
		st.Outputs.AllErrors.AddOnce(&errs.Error{
			Code:     errs.IndexCapacityExceeded,
			RootSite: st.RootSite.String(),
			Msg:      "the prim index grew past its structural node-count limit",
		})
		return nil, false
	}
	if len(g.Node(p.Parent).Children) >= maxArcsPerNode {
		st.Outputs.AllErrors.AddOnce(&errs.Error{
			Code:     errs.ArcCapacityExceeded,
			RootSite: st.RootSite.String(),
			Site:     g.Node(p.Parent).Site.String(),
			Msg:      "a single node accumulated more arcs than the structural limit allows",
		})
		return nil, false
	}

	directContributes := p.DirectContributes
	saltedEarth := false
	if directContributes && p.IncludeAncestral &&
		st.Composer.RelocationSourceAtOrBeneath(p.ChildSite, p.ChildSite.Path) {
		directContributes = false
		saltedEarth = true
	}

	nsDepth := p.NamespaceDepth
	if nsDepth < 0 {
		nsDepth = g.Node(p.Parent).Site.Path.NamespaceDepth()
	}
	if nsDepth > maxNamespaceDepth {
		st.Outputs.AllErrors.AddOnce(&errs.Error{
			Code:     errs.ArcNamespaceDepthCapacityExceeded,
			RootSite: st.RootSite.String(),
			Site:     p.ChildSite.String(),
			Msg:      "namespace recursion exceeded the structural depth limit",
		})
		return nil, false
	}

	var newIdx graph.Index
	if !p.IncludeAncestral {
		newIdx = g.AddChildNode(&graph.Node{
			ArcType:               p.ArcType,
			Site:                  p.ChildSite,
			Parent:                p.Parent,
			Origin:                p.Origin,
			MapToParent:           p.MapExpr,
			NamespaceDepth:        nsDepth,
			SiblingNumberAtOrigin: p.SiblingNum,
			DirectContributes:     directContributes,
			DueToAncestor:         p.DueToAncestor,
			ArcIntroduction:       true,
		})
	} else {
		sub := st.buildSubIndex(p)
		newIdx = g.GraftSubTree(p.Parent, sub, p.Origin)
		n := g.Node(newIdx)
		n.ArcType = p.ArcType
		n.MapToParent = p.MapExpr
		n.NamespaceDepth = nsDepth
		n.SiblingNumberAtOrigin = p.SiblingNum
		n.DirectContributes = directContributes
		n.DueToAncestor = p.DueToAncestor
		n.ArcIntroduction = true
	}
	node := g.Node(newIdx)

	node.HasSpecs = st.Composer.HasSpecs(node.Site)
	if saltedEarth && node.HasSpecs {
		st.Outputs.AllErrors.Add(&errs.Error{
			Code:     errs.OpinionAtRelocationSource,
			RootSite: st.RootSite.String(),
			Site:     node.Site.String(),
			Msg:      "specs are authored at a relocation source, where opinions are forbidden",
		})
	}
	if !st.Inputs.Usd {
		if st.Composer.Permission(node.Site) == layerstack.Private {
			node.Permission = graph.Private
		}
		node.HasSymmetry = st.Composer.HasSymmetry(node.Site)
	}
	if node.Permission == graph.Private {
		st.Outputs.AllErrors.Add(&errs.Error{
			Code:     errs.ArcPermissionDenied,
			RootSite: st.RootSite.String(),
			Site:     node.Site.String(),
			Msg:      "direct arc targets a site with Private permission",
		})
		st.elide(node, false)
	}

	if node.Site.Path.IsRoot() {
		st.elide(node, false)
	}

	if st.Inputs.Cull {
		if st.canCull(node) {
			node.Culled = true
		} else {
			st.uncullAncestors(node)
		}
	}

	st.AddTasksForNode(node, p.SkipExpressedArcTasks)

	return node, true
}

// buildSubIndex runs the recursive BuildPrimIndex call named in spec.md
// §4.5 step 4 ("recursively invoke BuildPrimIndex on child_site ... a
// new stack-frame linking back to this call"), with
// evaluate_implied_specializes=false and evaluate_variants=false as the
// spec requires for this path.
func (st *IndexerState) buildSubIndex(p AddArcParams) *graph.Graph {
	child := &IndexerState{
		Inputs:   st.Inputs,
		Outputs:  st.Outputs,
		Composer: st.Composer,
		RootSite: p.ChildSite,
		Frame: &Frame{
			Parent:          st.Frame,
			AnchorAncestors: st.Frame.chainSites(st.graph(), p.Parent),
		},
	}
	return child.buildAt(p.ChildSite, 0, false, false, true)
}
