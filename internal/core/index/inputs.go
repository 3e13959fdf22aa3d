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

// Package index implements the prim index driver and its supporting
// arc-insertion and arc-evaluation machinery (spec.md §4.5–§4.11,
// §4.10). Arc insertion, the per-arc-kind evaluators, and the driver are
// kept in one package, rather than split along the lines of the
// leaf packages (graph, site, sched), because they are mutually
// recursive by construction: evaluators call AddArc, AddArc may
// recursively invoke the driver for ancestral opinions, and the driver
// dispatches queued tasks back into the evaluators. This mirrors the
// teacher's own choice to keep its evaluator, scheduler and node types
// in one "adt" package rather than separating them and fighting import
// cycles (_examples/cue-lang-cue/internal/core/adt).
package index

import (
	"github.com/expenses/primidx/errs"
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/site"
	"github.com/expenses/primidx/layerstack"
	"github.com/expenses/primidx/path"
)

// PayloadState mirrors spec.md §6's output enum.
type PayloadState int8

const (
	NoPayload PayloadState = iota
	IncludedByPredicate
	ExcludedByPredicate
	IncludedByIncludeSet
	ExcludedByIncludeSet
)

// IncludedPayloads is the caller-supplied payload inclusion policy of
// spec.md §6: a set of absolute paths to include, plus an optional
// predicate that can override the set. Lookups in Set are made under
// Locker's read lock (spec.md §5); Predicate is called without it.
type IncludedPayloads struct {
	Locker    RLocker
	Set       map[string]bool // path.Path.String() -> included
	Predicate func(path.Path) (include bool, overridden bool)
}

// RLocker is the read-side of a sync.RWMutex, named so this package does
// not need to import sync just to accept one.
type RLocker interface {
	RLock()
	RUnlock()
}

// Included decides the payload inclusion policy for p, reporting both
// the decision and the PayloadState to attribute it to.
func (ip *IncludedPayloads) Included(p path.Path) (bool, PayloadState) {
	if ip == nil {
		return false, NoPayload
	}
	if ip.Predicate != nil {
		if include, overridden := ip.Predicate(p); overridden {
			if include {
				return true, IncludedByPredicate
			}
			return false, ExcludedByPredicate
		}
	}
	if ip.Locker != nil {
		ip.Locker.RLock()
		defer ip.Locker.RUnlock()
	}
	if ip.Set[p.String()] {
		return true, IncludedByIncludeSet
	}
	return false, ExcludedByIncludeSet
}

// Inputs bundles every immutable-during-a-call input named in spec.md §6.
type Inputs struct {
	// Site is the (layer_stack, path) to index.
	Site graph.Site

	// VariantFallbacks maps variant-set name to an ordered list of
	// fallback selections.
	VariantFallbacks map[string][]string

	// IncludedPayloads is the payload inclusion policy.
	IncludedPayloads *IncludedPayloads

	// Cull enables culling of nodes that contribute nothing.
	Cull bool

	// Usd disables non-USD behavior: permissions, symmetry, relocations,
	// and prim-stack retention.
	Usd bool

	// FileFormatTarget names the file format target. The indexer does
	// not read it, and layerstack.AssetResolver takes no such argument,
	// so it has no effect on layer resolution.
	FileFormatTarget string

	// Cache is the layer-stack provider / layer opener.
	Cache layerstack.Cache

	// RootLayerStack is the concrete LayerStack backing Site.LayerStackID.
	// The engine has no other way to turn the opaque root LayerStackID
	// into a queryable LayerStack; referenced/payload layer stacks are
	// discovered and registered lazily as arcs resolve them.
	RootLayerStack layerstack.LayerStack

	// Resolver anchors and resolves authored asset paths.
	Resolver layerstack.AssetResolver

	// ParentIndex, if set, bypasses the driver's recursive parent-index
	// step (spec.md §6).
	ParentIndex *PrimIndex

	// LegacyStandinFallback toggles the legacy "standin" variant
	// fallback behavior of spec.md §4.6 ("EvalNodeVariantAuthored" step
	// 4): when true, an authored "standin" selection beneath a Payload
	// arc is replaced by the fallback. It is a plain boolean rather than
	// an environment variable lookup; the CLI does not set it, so it is
	// false in CLI runs.
	LegacyStandinFallback bool
}

// Outputs bundles every output named in spec.md §6, beyond the
// PrimIndex itself.
type Outputs struct {
	AllErrors                     *errs.List
	DynamicFileFormatDependency   []site.DynamicFileFormatDependency
	ExpressionVariablesDependency map[string]bool
	CulledDependencies            []*graph.Node
	PayloadState                  PayloadState
}
