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
	"time"

	"github.com/expenses/primidx/errs"
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/layerstack"
	"github.com/expenses/primidx/path"
)

func (st *IndexerState) evalNodeReferences(n *graph.Node) {
	st.evalReferenceOrPayload(n, st.Composer.References(n.Site), graph.ArcReference, false)
}

func (st *IndexerState) evalNodePayload(n *graph.Node) {
	st.evalReferenceOrPayload(n, st.Composer.Payloads(n.Site), graph.ArcPayload, true)
}

// evalReferenceOrPayload implements spec.md §4.6's shared
// "References and Payloads" algorithm.
func (st *IndexerState) evalReferenceOrPayload(n *graph.Node, arcs []layerstack.ArcSpec, arcType graph.ArcType, isPayload bool) {
	rootSite := st.RootSite.String()

	for i, spec := range arcs {
		targetPath := spec.TargetPath
		if !targetPath.IsRoot() && !targetPath.IsPrimPath() {
			st.Outputs.AllErrors.Add(&errs.Error{
				Code: errs.InvalidPrimPath, RootSite: rootSite, Site: n.Site.String(),
				Msg: "reference/payload target path carries a variant selection",
			})
			continue
		}

		offset := spec.LayerOffset
		if spec.OffsetInvalid {
			st.Outputs.AllErrors.Add(&errs.Error{
				Code: errs.InvalidReferenceOffset, RootSite: rootSite, Site: n.Site.String(),
				Msg: "layer offset is not invertible; substituting identity",
			})
			offset = 0
		}

		var targetLS layerstack.LayerStack
		internal := spec.AssetPath == ""
		if internal {
			targetLS = st.Composer.Registry.Lookup(n.Site.LayerStackID)
		} else {
			anchor := st.Composer.Registry.Lookup(n.Site.LayerStackID)
			identifier, err := st.Inputs.Resolver.Resolve(anchor, spec.AssetPath)
			if err != nil {
				st.Outputs.AllErrors.Add(&errs.Error{
					Code: errs.InvalidAssetPath, RootSite: rootSite, Site: n.Site.String(),
					Msg: "resolving " + spec.AssetPath + ": " + err.Error(),
				})
				continue
			}
			if st.Inputs.Resolver.IsMuted(identifier) {
				st.Outputs.AllErrors.Add(&errs.Error{
					Code: errs.MutedAssetPath, RootSite: rootSite, Site: n.Site.String(),
					Msg: "target layer " + identifier + " is muted",
				})
				continue
			}
			targetLS, err = st.Inputs.Cache.LayerStackFor(identifier)
			if err != nil {
				st.Outputs.AllErrors.Add(&errs.Error{
					Code: errs.InvalidAssetPath, RootSite: rootSite, Site: n.Site.String(),
					Msg: "opening " + identifier + ": " + err.Error(),
				})
				continue
			}
			st.Composer.Registry.Register(targetLS)
			offset = scaleOffset(offset, anchor, targetLS)
		}

		if targetPath.IsRoot() {
			dp, ok := targetLS.DefaultPrim()
			if !ok {
				st.Outputs.AllErrors.Add(&errs.Error{
					Code: errs.UnresolvedPrimPath, RootSite: rootSite, Site: n.Site.String(),
					Msg: "reference/payload omits a target prim and the target layer has no default prim",
				})
				st.AddArc(AddArcParams{
					ArcType: arcType, Parent: n.Index(), Origin: n.Index(),
					ChildSite:        graph.Site{LayerStackID: n.Site.LayerStackID, Path: path.Root},
					MapExpr:          path.IdentityExpr(),
					SiblingNum:       i,
					NamespaceDepth:   -1,
					IncludeAncestral: false,
				})
				continue
			}
			targetPath = dp
		}

		if isPayload {
			include, state := st.Inputs.IncludedPayloads.Included(n.Site.Path)
			st.Outputs.PayloadState = state
			if !include {
				continue
			}
		}

		mapFn := path.SingleEntry(targetPath, n.Site.Path).WithTimeOffset(offset)
		mapExpr := path.ConstantExpr(mapFn)
		if internal {
			mapExpr = mapExpr.AddRootIdentity()
		}
		mapExpr = relocatesAtTargetExpr(targetLS).Compose(mapExpr)

		node, ok := st.AddArc(AddArcParams{
			ArcType:           arcType,
			Parent:            n.Index(),
			Origin:            n.Index(),
			ChildSite:         graph.Site{LayerStackID: targetLS.ID(), Path: targetPath},
			MapExpr:           mapExpr,
			SiblingNum:        i,
			NamespaceDepth:    -1,
			DirectContributes: true,
			IncludeAncestral:  !targetPath.IsRootPrimPath(),
		})
		if ok && !node.HasSpecs {
			st.Outputs.AllErrors.Add(&errs.Error{
				Code: errs.UnresolvedPrimPath, RootSite: rootSite, Site: node.Site.String(),
				Msg: "target prim has no spec in the resolved layer",
			})
		}
	}
}

// scaleOffset applies spec.md §4.6 step 3's timecode scaling between
// source and target layer stacks.
func scaleOffset(offset time.Duration, source, target layerstack.LayerStack) time.Duration {
	scale := source.TimecodeScale(target)
	if scale == 0 {
		return offset
	}
	return time.Duration(float64(offset) * scale)
}

// relocatesAtTargetExpr builds spec.md §4.6 step 5's relocates_at_target
// term: target's relocations composed to identity when it has none, so
// composing it onto an entry map is always safe.
func relocatesAtTargetExpr(target layerstack.LayerStack) *path.MapExpression {
	relocs := target.RelocatesAtTarget()
	if len(relocs) == 0 {
		return path.IdentityExpr()
	}
	entries := make([]path.Entry, len(relocs))
	for i, r := range relocs {
		entries[i] = path.Entry{Source: r.Source, Target: r.Target}
	}
	return path.ConstantExpr(path.ConstantFunction(entries, 0).AddRootIdentity())
}
