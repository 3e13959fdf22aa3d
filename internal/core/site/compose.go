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

// Package site implements the pure "site composer" helpers of spec.md
// §4.3: given a node's site, read its layer stack and compose the
// authored arc lists. Most layer access in the engine flows through this
// package; the reference/payload evaluator also queries a target
// layerstack.LayerStack directly for its default prim, relocations and
// timecode scale.
package site

import (
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/layerstack"
	"github.com/expenses/primidx/path"
)

// Registry resolves a graph.Site's LayerStackID back to a concrete
// layerstack.LayerStack. The driver populates one Registry per
// BuildPrimIndex call chain from the caller-supplied Cache and the root
// site's own layer stack.
type Registry struct {
	byID map[string]layerstack.LayerStack
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]layerstack.LayerStack)}
}

// Register makes ls available by its own ID().
func (r *Registry) Register(ls layerstack.LayerStack) {
	r.byID[ls.ID()] = ls
}

// Lookup returns the LayerStack for id, or nil if it was never
// registered. A nil result is a programmer error (every Site reachable
// by the engine must have had its LayerStack registered before use).
func (r *Registry) Lookup(id string) layerstack.LayerStack {
	return r.byID[id]
}

// Dependencies accumulates the opaque dependency-tracking payloads named
// in spec.md §6's outputs: expression variables consulted while
// resolving variant selections, and dynamic-file-format field
// dependencies consulted while composing payload arguments.
type Dependencies struct {
	ExpressionVariables map[string]bool
	DynamicFileFormat   []DynamicFileFormatDependency
}

// DynamicFileFormatDependency records one field consulted while
// composing a payload's dynamic file-format arguments.
type DynamicFileFormatDependency struct {
	Site  graph.Site
	Field string
}

// NewDependencies creates an empty Dependencies accumulator.
func NewDependencies() *Dependencies {
	return &Dependencies{ExpressionVariables: make(map[string]bool)}
}

func (d *Dependencies) recordExprVars(vars []string) {
	for _, v := range vars {
		d.ExpressionVariables[v] = true
	}
}

// Composer bundles a Registry and a Dependencies accumulator; evaluators
// hold one Composer for the duration of a BuildPrimIndex call chain.
type Composer struct {
	Registry *Registry
	Deps     *Dependencies
}

func (c *Composer) layerStack(s graph.Site) layerstack.LayerStack {
	ls := c.Registry.Lookup(s.LayerStackID)
	if ls == nil {
		panic("site: layer stack " + s.LayerStackID + " was never registered")
	}
	return ls
}

// References composes the authored reference list at n's site.
func (c *Composer) References(s graph.Site) []layerstack.ArcSpec {
	return c.layerStack(s).References(s.Path)
}

// Payloads composes the authored payload list at n's site.
func (c *Composer) Payloads(s graph.Site) []layerstack.ArcSpec {
	return c.layerStack(s).Payloads(s.Path)
}

// InheritPaths composes the authored inherit list at n's site.
func (c *Composer) InheritPaths(s graph.Site) []path.Path {
	return c.layerStack(s).InheritPaths(s.Path)
}

// SpecializePaths composes the authored specializes list at n's site.
func (c *Composer) SpecializePaths(s graph.Site) []path.Path {
	return c.layerStack(s).SpecializePaths(s.Path)
}

// VariantSetNames composes the authored variant-set name order at n's
// site.
func (c *Composer) VariantSetNames(s graph.Site) []string {
	return c.layerStack(s).VariantSetNames(s.Path)
}

// VariantSet composes options and authored selection for name at n's
// site, recording any expression variables consulted.
func (c *Composer) VariantSet(s graph.Site, name string) layerstack.VariantSet {
	vs := c.layerStack(s).VariantSet(s.Path, name)
	c.Deps.recordExprVars(vs.ExprVarsConsulted)
	return vs
}

// ChildNames composes the child-name order at n's site.
func (c *Composer) ChildNames(s graph.Site) []string {
	return c.layerStack(s).ChildNames(s.Path)
}

// Permission composes the authored permission at n's site.
func (c *Composer) Permission(s graph.Site) layerstack.Permission {
	return c.layerStack(s).Permission(s.Path)
}

// HasSymmetry reports whether n's site carries symmetry information.
func (c *Composer) HasSymmetry(s graph.Site) bool {
	return c.layerStack(s).HasSymmetry(s.Path)
}

// HasSpecs reports whether any layer at n's site has a prim spec.
func (c *Composer) HasSpecs(s graph.Site) bool {
	return c.layerStack(s).HasSpecs(s.Path)
}

// IncrementalRelocations returns the relocations authored directly in
// n's layer stack.
func (c *Composer) IncrementalRelocations(s graph.Site) []layerstack.Relocation {
	return c.layerStack(s).IncrementalRelocations()
}

// RelocationSourceAtOrBeneath reports whether any relocation in s's
// layer stack has a source that is p or a descendant of p. This backs
// the salted-earth rule of spec.md §4.5 step 3.
func (c *Composer) RelocationSourceAtOrBeneath(s graph.Site, p path.Path) bool {
	for _, r := range c.IncrementalRelocations(s) {
		if r.Source.HasPrefix(p) {
			return true
		}
	}
	return false
}

// ExpressionVariable resolves a variable against n's layer stack,
// recording the consultation.
func (c *Composer) ExpressionVariable(s graph.Site, name string) (string, bool) {
	c.Deps.ExpressionVariables[name] = true
	return c.layerStack(s).ExpressionVariable(name)
}
