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

// Package memstack is the only place this repository invents scene
// content: a declarative, YAML-loadable Scene that implements
// layerstack.LayerStack, layerstack.Cache and layerstack.AssetResolver in
// memory, for tests and the CLI demo. It carries no composition semantics
// of its own beyond what those interfaces require; the indexer is the
// only place arcs are actually resolved.
package memstack

import (
	"fmt"

	"github.com/expenses/primidx/path"
)

// Arc is one authored reference or payload entry.
type Arc struct {
	Asset         string  `yaml:"asset,omitempty"`
	Target        string  `yaml:"target,omitempty"`
	OffsetSeconds float64 `yaml:"offset,omitempty"`
	OffsetInvalid bool    `yaml:"offsetInvalid,omitempty"`
}

// VariantSetSpec is one authored variant set at a prim.
type VariantSetSpec struct {
	Name      string   `yaml:"name"`
	Options   []string `yaml:"options"`
	Selection string   `yaml:"selection,omitempty"`
	ExprVars  []string `yaml:"exprVars,omitempty"`
}

// Relocation is one authored incremental relocation, declared at layer
// scope (relocations apply to the whole layer stack, not to a single
// prim).
type Relocation struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Prim is the authored content at one path within one Layer. Its mere
// presence in a Layer's Prims map is what layerstack.LayerStack.HasSpecs
// reports as true for that path in that layer.
type Prim struct {
	References      []Arc            `yaml:"references,omitempty"`
	Payloads        []Arc            `yaml:"payloads,omitempty"`
	InheritPaths    []string         `yaml:"inherits,omitempty"`
	SpecializePaths []string         `yaml:"specializes,omitempty"`
	VariantSets     []VariantSetSpec `yaml:"variantSets,omitempty"`
	Permission      string           `yaml:"permission,omitempty"` // "private" or "" (public)
	Symmetry        bool             `yaml:"symmetry,omitempty"`
	ChildOrder      []string         `yaml:"children,omitempty"`
}

// Layer is one sublayer's authored content: a flat map from path string
// (path.Path.String() syntax, including `{vset=vsel}` components) to the
// Prim authored there, plus the layer's relocation table.
type Layer struct {
	Prims       map[string]*Prim `yaml:"prims,omitempty"`
	Relocations []Relocation     `yaml:"relocations,omitempty"`
}

// Stack names an ordered set of sublayers (strong to weak) plus the
// per-stack metadata a LayerStack needs.
type Stack struct {
	Sublayers          []string `yaml:"sublayers"`
	DefaultPrim        string   `yaml:"defaultPrim,omitempty"`
	TimecodesPerSecond float64  `yaml:"timecodesPerSecond,omitempty"`
}

// Scene is the full declarative fixture: named layers, named stacks over
// them, and a shared expression-variable environment.
type Scene struct {
	Layers              map[string]*Layer `yaml:"layers"`
	Stacks              map[string]*Stack `yaml:"stacks"`
	ExpressionVariables map[string]string `yaml:"expressionVariables,omitempty"`
}

// resolvePath parses a prim-map key, panicking on malformed scene data;
// Scene content is authored by tests and the CLI's YAML loader, not
// discovered at runtime, so a malformed key is a fixture bug.
func resolvePath(key string) path.Path {
	p, err := path.Parse(key)
	if err != nil {
		panic(fmt.Sprintf("memstack: invalid path %q: %v", key, err))
	}
	return p
}

func (s *Scene) layer(name string) *Layer {
	l := s.Layers[name]
	if l == nil {
		panic(fmt.Sprintf("memstack: undefined layer %q", name))
	}
	return l
}

func (s *Scene) stack(id string) *Stack {
	st := s.Stacks[id]
	if st == nil {
		panic(fmt.Sprintf("memstack: undefined stack %q", id))
	}
	return st
}

// sublayers returns id's sublayers, strong to weak.
func (s *Scene) sublayers(id string) []*Layer {
	def := s.stack(id)
	out := make([]*Layer, len(def.Sublayers))
	for i, name := range def.Sublayers {
		out[i] = s.layer(name)
	}
	return out
}

// findPrim returns the Prim for p from the strongest sublayer defining
// it, or nil if no sublayer defines it.
func findPrim(layers []*Layer, p path.Path) *Prim {
	key := p.String()
	for _, l := range layers {
		if pr, ok := l.Prims[key]; ok {
			return pr
		}
	}
	return nil
}
