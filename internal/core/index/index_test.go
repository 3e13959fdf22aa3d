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

package index_test

import (
	"testing"

	"github.com/expenses/primidx/errs"
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/layerstack/memstack"
	"github.com/expenses/primidx/path"
)

// buildInputs wires a memstack.Scene's "root" stack up as the Site and
// Cache/Resolver/RootLayerStack the spec names as external collaborators
// (spec.md §1, §6), so each scenario below only has to describe scene
// content.
func buildInputs(scene *memstack.Scene, rootStack, p string, configure func(*index.Inputs)) *index.Inputs {
	cache := memstack.NewCache(scene)
	root := memstack.New(scene, rootStack)
	in := &index.Inputs{
		Site:           graph.Site{LayerStackID: root.ID(), Path: path.MustParse(p)},
		RootLayerStack: root,
		Cache:          cache,
		Resolver:       &memstack.Resolver{},
	}
	if configure != nil {
		configure(in)
	}
	return in
}

func siteStrings(pi *index.PrimIndex) []string {
	var out []string
	for _, n := range pi.Graph.StrengthOrder() {
		out = append(out, n.Site.String())
	}
	return out
}

// S1: root's /Model references asset's /M, which has a child /M/X.
func TestS1SingleReference(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/Model": {References: []memstack.Arc{{Asset: "asset", Target: "/M"}}},
			}},
			"asset": {Prims: map[string]*memstack.Prim{
				"/M":   {},
				"/M/X": {},
			}},
		},
		Stacks: map[string]*memstack.Stack{
			"root":  {Sublayers: []string{"root"}},
			"asset": {Sublayers: []string{"asset"}},
		},
	}

	pi, outputs := index.Run(buildInputs(scene, "root", "/Model", nil))
	if outputs.AllErrors.Len() != 0 {
		t.Fatalf("unexpected errors: %v", outputs.AllErrors.Errs())
	}

	got := siteStrings(pi)
	want := []string{"root:/Model", "asset:/M"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("strength order = %v, want %v", got, want)
	}

	assetLS := memstack.New(scene, "asset")
	if got := assetLS.ChildNames(path.MustParse("/M")); len(got) != 1 || got[0] != "X" {
		t.Errorf("asset's /M children = %v, want [X]", got)
	}
}

// S2: root's /Model references asset's /M; /M inherits /C, and /C exists
// in asset. Expect an implied Inherit directly under the root too.
func TestS2ReferenceAndInherit(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/Model": {References: []memstack.Arc{{Asset: "asset", Target: "/M"}}},
			}},
			"asset": {Prims: map[string]*memstack.Prim{
				"/M": {InheritPaths: []string{"/C"}},
				"/C": {},
			}},
		},
		Stacks: map[string]*memstack.Stack{
			"root":  {Sublayers: []string{"root"}},
			"asset": {Sublayers: []string{"asset"}},
		},
	}

	pi, outputs := index.Run(buildInputs(scene, "root", "/Model", nil))
	if outputs.AllErrors.Len() != 0 {
		t.Fatalf("unexpected errors: %v", outputs.AllErrors.Errs())
	}

	var sawReference, sawNestedInherit, sawImpliedInherit bool
	for _, n := range pi.Graph.StrengthOrder() {
		switch {
		case n.ArcType == graph.ArcReference && n.Site.String() == "asset:/M":
			sawReference = true
		case n.ArcType == graph.ArcInherit && n.Site.String() == "asset:/C" && n.Parent != graph.NoIndex:
			if pi.Graph.Node(n.Parent).ArcType == graph.ArcReference {
				sawNestedInherit = true
			} else {
				sawImpliedInherit = true
			}
		}
	}
	if !sawReference {
		t.Error("expected a Reference node at asset:/M")
	}
	if !sawNestedInherit {
		t.Error("expected an Inherit child of the Reference node at asset:/C")
	}
	if !sawImpliedInherit {
		t.Error("expected an implied Inherit node directly under the root")
	}
}

// S3: root's /P references a's /A and specializes /S. Expect strength
// order [(root,/P), (a,/A), (root,/S)].
func TestS3SpecializesWeakest(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/P": {
					References:      []memstack.Arc{{Asset: "a", Target: "/A"}},
					SpecializePaths: []string{"/S"},
				},
				"/S": {},
			}},
			"a": {Prims: map[string]*memstack.Prim{"/A": {}}},
		},
		Stacks: map[string]*memstack.Stack{
			"root": {Sublayers: []string{"root"}},
			"a":    {Sublayers: []string{"a"}},
		},
	}

	pi, outputs := index.Run(buildInputs(scene, "root", "/P", nil))
	if outputs.AllErrors.Len() != 0 {
		t.Fatalf("unexpected errors: %v", outputs.AllErrors.Errs())
	}

	got := siteStrings(pi)
	want := []string{"root:/P", "a:/A", "root:/S"}
	if len(got) != len(want) {
		t.Fatalf("strength order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("strength order = %v, want %v", got, want)
		}
	}
}

// S4: /P has a variant set "v" with options {a,b} and no authored
// selection; variant_fallbacks={v:["b"]}. Expect a Variant node at
// (same, /P{v=b}).
func TestS4VariantFallback(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/P": {VariantSets: []memstack.VariantSetSpec{
					{Name: "v", Options: []string{"a", "b"}},
				}},
				"/P{v=a}": {},
				"/P{v=b}": {},
			}},
		},
		Stacks: map[string]*memstack.Stack{
			"root": {Sublayers: []string{"root"}},
		},
	}

	in := buildInputs(scene, "root", "/P", func(in *index.Inputs) {
		in.VariantFallbacks = map[string][]string{"v": {"b"}}
	})
	pi, outputs := index.Run(in)
	if outputs.AllErrors.Len() != 0 {
		t.Fatalf("unexpected errors: %v", outputs.AllErrors.Errs())
	}

	var sawVariant bool
	for _, n := range pi.Graph.StrengthOrder() {
		if n.ArcType == graph.ArcVariant && n.Site.Path.String() == "/P{v=b}" {
			sawVariant = true
		}
	}
	if !sawVariant {
		t.Errorf("expected a Variant node at /P{v=b}, strength order = %v", siteStrings(pi))
	}
}

// S5: /P has a payload to a's /A; IncludedPayloads excludes everything.
// Expect HasPayloads==true, no Payload child, PayloadState excluded.
func TestS5PayloadExcluded(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/P": {Payloads: []memstack.Arc{{Asset: "a", Target: "/A"}}},
			}},
			"a": {Prims: map[string]*memstack.Prim{"/A": {}}},
		},
		Stacks: map[string]*memstack.Stack{
			"root": {Sublayers: []string{"root"}},
			"a":    {Sublayers: []string{"a"}},
		},
	}

	in := buildInputs(scene, "root", "/P", func(in *index.Inputs) {
		in.IncludedPayloads = &index.IncludedPayloads{Set: map[string]bool{}}
	})
	pi, outputs := index.Run(in)
	if outputs.AllErrors.Len() != 0 {
		t.Fatalf("unexpected errors: %v", outputs.AllErrors.Errs())
	}
	if !pi.HasPayloads {
		t.Error("expected HasPayloads == true")
	}
	for _, n := range pi.Graph.StrengthOrder() {
		if n.ArcType == graph.ArcPayload {
			t.Errorf("expected no Payload node, found one at %s", n.Site)
		}
	}
	if outputs.PayloadState != index.ExcludedByIncludeSet {
		t.Errorf("PayloadState = %v, want ExcludedByIncludeSet", outputs.PayloadState)
	}
}

// S6: /A references itself. Expect one ArcCycle error and a graph
// containing only the Root node.
func TestS6Cycle(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/A": {References: []memstack.Arc{{Target: "/A"}}},
			}},
		},
		Stacks: map[string]*memstack.Stack{
			"root": {Sublayers: []string{"root"}},
		},
	}

	pi, outputs := index.Run(buildInputs(scene, "root", "/A", nil))
	if !outputs.AllErrors.HasCode(errs.ArcCycle) {
		t.Fatalf("expected an ArcCycle error, got %v", outputs.AllErrors.Errs())
	}
	if n := len(pi.Graph.StrengthOrder()); n != 1 {
		t.Fatalf("graph has %d nodes, want 1 (root only)", n)
	}
}

// S7: root's layer stack declares a relocation from /A/B to /A/C; /A/B
// carries authored content. Expect a Relocate node at /A/B directly
// under /A/C.
func TestS7RelocationElision(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {
				Prims: map[string]*memstack.Prim{
					"/A":   {},
					"/A/C": {},
					"/A/B": {},
				},
				Relocations: []memstack.Relocation{
					{Source: "/A/B", Target: "/A/C"},
				},
			},
		},
		Stacks: map[string]*memstack.Stack{
			"root": {Sublayers: []string{"root"}},
		},
	}

	pi, outputs := index.Run(buildInputs(scene, "root", "/A/C", nil))
	if outputs.AllErrors.Len() != 0 {
		t.Fatalf("unexpected errors: %v", outputs.AllErrors.Errs())
	}

	var sawRelocate bool
	for _, n := range pi.Graph.StrengthOrder() {
		if n.ArcType == graph.ArcRelocate && n.Site.Path.String() == "/A/B" {
			sawRelocate = true
			if n.Parent == graph.NoIndex || pi.Graph.Node(n.Parent).Site.Path.String() != "/A/C" {
				t.Errorf("relocate node's parent path = %q, want /A/C", pi.Graph.Node(n.Parent).Site.Path.String())
			}
		}
	}
	if !sawRelocate {
		t.Errorf("expected a Relocate node at /A/B, strength order = %v", siteStrings(pi))
	}
}

// Property 3 (cycle rejection), restated: no Reference node at the
// offending site survives.
func TestS6NoReferenceNodeSurvives(t *testing.T) {
	scene := &memstack.Scene{
		Layers: map[string]*memstack.Layer{
			"root": {Prims: map[string]*memstack.Prim{
				"/A":   {References: []memstack.Arc{{Target: "/A/B"}}},
				"/A/B": {},
			}},
		},
		Stacks: map[string]*memstack.Stack{
			"root": {Sublayers: []string{"root"}},
		},
	}

	pi, _ := index.Run(buildInputs(scene, "root", "/A", nil))
	for _, n := range pi.Graph.StrengthOrder() {
		if n.ArcType == graph.ArcReference && n.Site.Path.String() == "/A/B" {
			t.Errorf("found a surviving Reference node at the cyclic target")
		}
	}
}
