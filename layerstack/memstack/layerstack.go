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

package memstack

import (
	"sort"
	"time"

	"github.com/expenses/primidx/layerstack"
	"github.com/expenses/primidx/path"
)

// LayerStack implements layerstack.LayerStack over one Scene stack
// definition. Every composed list is resolved by "strongest sublayer
// defining this path wins outright" (findPrim) rather than the real
// USD list-editing algebra (prepend/append/delete ops): the fixture only
// needs to exercise the indexer's consumption of these lists, not
// reproduce list-op composition itself.
type LayerStack struct {
	id     string
	scene  *Scene
	layers []*Layer
	def    *Stack
}

var _ layerstack.LayerStack = (*LayerStack)(nil)

// New builds a LayerStack for stack id within scene.
func New(scene *Scene, id string) *LayerStack {
	return &LayerStack{
		id:     id,
		scene:  scene,
		layers: scene.sublayers(id),
		def:    scene.stack(id),
	}
}

func (ls *LayerStack) ID() string { return ls.id }

func (ls *LayerStack) References(p path.Path) []layerstack.ArcSpec {
	return convertArcs(findPrim(ls.layers, p))
}

func (ls *LayerStack) Payloads(p path.Path) []layerstack.ArcSpec {
	pr := findPrim(ls.layers, p)
	if pr == nil {
		return nil
	}
	return convertArcsList(pr.Payloads)
}

func convertArcs(pr *Prim) []layerstack.ArcSpec {
	if pr == nil {
		return nil
	}
	return convertArcsList(pr.References)
}

func convertArcsList(arcs []Arc) []layerstack.ArcSpec {
	if len(arcs) == 0 {
		return nil
	}
	out := make([]layerstack.ArcSpec, len(arcs))
	for i, a := range arcs {
		var target path.Path
		if a.Target != "" {
			target = resolvePath(a.Target)
		}
		out[i] = layerstack.ArcSpec{
			AssetPath:     a.Asset,
			TargetPath:    target,
			LayerOffset:   time.Duration(a.OffsetSeconds * float64(time.Second)),
			OffsetInvalid: a.OffsetInvalid,
		}
	}
	return out
}

func (ls *LayerStack) InheritPaths(p path.Path) []path.Path {
	pr := findPrim(ls.layers, p)
	if pr == nil {
		return nil
	}
	return convertPaths(pr.InheritPaths)
}

func (ls *LayerStack) SpecializePaths(p path.Path) []path.Path {
	pr := findPrim(ls.layers, p)
	if pr == nil {
		return nil
	}
	return convertPaths(pr.SpecializePaths)
}

func convertPaths(ss []string) []path.Path {
	if len(ss) == 0 {
		return nil
	}
	out := make([]path.Path, len(ss))
	for i, s := range ss {
		out[i] = resolvePath(s)
	}
	return out
}

func (ls *LayerStack) VariantSetNames(p path.Path) []string {
	pr := findPrim(ls.layers, p)
	if pr == nil {
		return nil
	}
	out := make([]string, len(pr.VariantSets))
	for i, vs := range pr.VariantSets {
		out[i] = vs.Name
	}
	return out
}

func (ls *LayerStack) VariantSet(p path.Path, name string) layerstack.VariantSet {
	pr := findPrim(ls.layers, p)
	if pr == nil {
		return layerstack.VariantSet{Name: name}
	}
	for _, vs := range pr.VariantSets {
		if vs.Name == name {
			return layerstack.VariantSet{
				Name:              vs.Name,
				Options:           append([]string{}, vs.Options...),
				AuthoredSelection: vs.Selection,
				ExprVarsConsulted: vs.ExprVars,
			}
		}
	}
	return layerstack.VariantSet{Name: name}
}

// ChildNames composes the union of child names across every sublayer,
// preferring the strongest layer's explicit ChildOrder (if any) and
// falling back to alphabetical order for names no layer ordered
// explicitly, so results are deterministic regardless of Go's
// unspecified map iteration order.
func (ls *LayerStack) ChildNames(p path.Path) []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, l := range ls.layers {
		if pr, ok := l.Prims[p.String()]; ok {
			for _, name := range pr.ChildOrder {
				add(name)
			}
		}
	}

	var rest []string
	for _, l := range ls.layers {
		for key := range l.Prims {
			cp := resolvePath(key)
			if cp.IsRoot() {
				continue
			}
			last, _ := cp.Last()
			if last.HasVariantSelection() || !cp.Parent().Equal(p) {
				continue
			}
			if !seen[last.Name] {
				rest = append(rest, last.Name)
			}
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return out
}

func (ls *LayerStack) Permission(p path.Path) layerstack.Permission {
	pr := findPrim(ls.layers, p)
	if pr != nil && pr.Permission == "private" {
		return layerstack.Private
	}
	return layerstack.Public
}

func (ls *LayerStack) HasSymmetry(p path.Path) bool {
	pr := findPrim(ls.layers, p)
	return pr != nil && pr.Symmetry
}

func (ls *LayerStack) HasSpecs(p path.Path) bool {
	return findPrim(ls.layers, p) != nil
}

func (ls *LayerStack) IncrementalRelocations() []layerstack.Relocation {
	var out []layerstack.Relocation
	for _, l := range ls.layers {
		for _, r := range l.Relocations {
			out = append(out, layerstack.Relocation{
				Source: resolvePath(r.Source),
				Target: resolvePath(r.Target),
			})
		}
	}
	return out
}

// RelocatesAtTarget composes ls's incremental relocations into their
// final target-side form, chaining a source through however many
// further incremental relocations retarget it.
func (ls *LayerStack) RelocatesAtTarget() []layerstack.Relocation {
	incremental := ls.IncrementalRelocations()
	if len(incremental) == 0 {
		return nil
	}
	byTarget := make(map[string]path.Path, len(incremental))
	for _, r := range incremental {
		byTarget[r.Source.String()] = r.Target
	}

	out := make([]layerstack.Relocation, len(incremental))
	for i, r := range incremental {
		final := r.Target
		for seen := map[string]bool{r.Source.String(): true}; ; {
			key := final.String()
			if seen[key] {
				break // a relocation cycle; stop chaining rather than loop forever.
			}
			seen[key] = true
			next, ok := byTarget[key]
			if !ok {
				break
			}
			final = next
		}
		out[i] = layerstack.Relocation{Source: r.Source, Target: final}
	}
	return out
}

func (ls *LayerStack) DefaultPrim() (path.Path, bool) {
	if ls.def.DefaultPrim == "" {
		return path.Path{}, false
	}
	return resolvePath(ls.def.DefaultPrim), true
}

// TimecodeScale always returns 1 (no rescale): this fixture models layer
// offsets directly in wall-clock seconds rather than stack-relative
// frames, so there is nothing for a timecodes-per-second ratio to adjust.
func (ls *LayerStack) TimecodeScale(target layerstack.LayerStack) float64 {
	return 1
}

func (ls *LayerStack) ExpressionVariable(name string) (string, bool) {
	v, ok := ls.scene.ExpressionVariables[name]
	return v, ok
}
