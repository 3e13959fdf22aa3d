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

// Package layerstack declares the external collaborators that spec.md §1
// explicitly places out of scope for the indexer core: layer I/O and
// layer-stack construction, and file-format plugin resolution / asset
// path anchoring. The indexer consumes these only through the interfaces
// below; it never interprets layer content itself.
package layerstack

import (
	"time"

	"github.com/expenses/primidx/path"
)

// Relocation is a single entry in a layer stack's relocations table:
// source (the path opinions are authored at) maps to target (the path
// they appear at in the composed scene).
type Relocation struct {
	Source, Target path.Path
}

// ArcSpec is one authored entry in a references/payloads list: an
// optional asset path (empty means "internal", i.e. within the current
// layer stack), an optional target prim path (empty means "consult the
// target layer's default prim"), and a layer time offset.
type ArcSpec struct {
	AssetPath     string
	TargetPath    path.Path
	LayerOffset   time.Duration
	OffsetInvalid bool
}

// VariantSet names the options and authored/fallback-eligible selection
// state for one variant set at one site, as composed by the site
// composers (spec.md §4.3).
type VariantSet struct {
	Name              string
	Options           []string
	AuthoredSelection string // "" if not authored here
	ExprVarsConsulted []string
}

// A LayerStack is the opaque, externally-supplied view onto one layer
// stack's content, in strong-to-weak layer order. Implementations are
// expected to offer internally-synchronized lookups per spec.md §5,
// since independent top-level BuildPrimIndex calls may share one cache.
type LayerStack interface {
	// ID returns a stable, comparable identity for this layer stack.
	ID() string

	// References composes the authored reference list at p, strong to
	// weak across layers.
	References(p path.Path) []ArcSpec

	// Payloads composes the authored payload list at p.
	Payloads(p path.Path) []ArcSpec

	// InheritPaths composes the authored inherit list at p.
	InheritPaths(p path.Path) []path.Path

	// SpecializePaths composes the authored specializes list at p.
	SpecializePaths(p path.Path) []path.Path

	// VariantSetNames composes the authored variant-set name order at p.
	VariantSetNames(p path.Path) []string

	// VariantSet composes options and authored selection for the named
	// variant set at p.
	VariantSet(p path.Path, name string) VariantSet

	// ChildNames composes the child-name order at p, across layers.
	ChildNames(p path.Path) []string

	// Permission reports the authored permission at p.
	Permission(p path.Path) Permission

	// HasSymmetry reports whether p carries symmetry information (a
	// non-USD-mode concept; the indexer does not consult it when Usd is
	// set on its Inputs).
	HasSymmetry(p path.Path) bool

	// HasSpecs reports whether any layer in the stack has a prim spec
	// at p.
	HasSpecs(p path.Path) bool

	// IncrementalRelocations returns the relocations authored directly
	// in this layer stack (not the transitively-composed form), per
	// spec.md §4.6's instruction that the Relocations evaluator consult
	// "the *incremental* form".
	IncrementalRelocations() []Relocation

	// RelocatesAtTarget returns this layer stack's relocations in their
	// fully-composed, target-side form: each entry's Source is the
	// as-authored path opinions are placed at, mapped directly to its
	// final post-relocation location, chaining through every
	// intermediate incremental relocation. This is the map_expression =
	// relocates_at_target ∘ {source → target, offset} term of spec.md
	// §4.6 step 5, distinct from IncrementalRelocations (which the
	// Relocations evaluator alone consults).
	RelocatesAtTarget() []Relocation

	// DefaultPrim returns the target layer's default prim path, used
	// when an authored reference/payload omits a target path.
	DefaultPrim() (path.Path, bool)

	// TimecodeScale returns the scale factor to apply to a layer offset
	// crossing from this layer stack into target, per spec.md §4.6 step
	// 3 ("Apply timecode scaling between source and target layer
	// stacks").
	TimecodeScale(target LayerStack) float64

	// ExpressionVariable resolves a `${name}`-style expression variable
	// consulted while expanding an authored variant selection, per
	// spec.md §4.3.
	ExpressionVariable(name string) (string, bool)
}

// Permission mirrors graph.Permission without importing the graph
// package from here, keeping this package's dependency surface limited
// to path.
type Permission int8

const (
	Public Permission = iota
	Private
)

// Cache is the opaque layer-stack provider / layer opener named by
// spec.md §6 ("cache: the layer-stack provider / layer opener"). It is
// the seam through which AssetResolver results become concrete
// LayerStacks.
type Cache interface {
	// LayerStackFor returns the LayerStack for the identifier produced
	// by an AssetResolver.Resolve call.
	LayerStackFor(identifier string) (LayerStack, error)
}

// DynamicFileFormatContext is the opaque context threaded through
// payload dynamic-file-format argument composition (spec.md §4.6,
// References/Payloads step 3). Implementations record which fields of
// the referencing site were consulted, for dependency tracking.
type DynamicFileFormatContext interface {
	// Arguments returns the dynamic file-format arguments to apply when
	// opening the target layer.
	Arguments() map[string]string

	// RecordFieldDependency notes that composing these arguments
	// consulted the named field at the given path.
	RecordFieldDependency(p path.Path, field string)
}

// AssetResolver anchors and resolves an authored asset path to a
// concrete layer identifier the Cache can open. spec.md §1 explicitly
// keeps "asset-path anchoring" out of the indexer core.
type AssetResolver interface {
	// Resolve anchors assetPath relative to anchorLayerStack and
	// returns an identifier the Cache can open, or an error if the
	// asset path could not be resolved (surfaced as errs.InvalidAssetPath).
	Resolve(anchorLayerStack LayerStack, assetPath string) (identifier string, err error)

	// IsMuted reports whether the resolved identifier names a muted
	// layer (surfaced as errs.MutedAssetPath).
	IsMuted(identifier string) bool
}
