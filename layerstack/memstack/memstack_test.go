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
	"testing"

	"github.com/expenses/primidx/path"
)

func singleReferenceScene() *Scene {
	return &Scene{
		Layers: map[string]*Layer{
			"root": {Prims: map[string]*Prim{
				"/Model": {References: []Arc{{Asset: "asset", Target: "/M"}}},
			}},
			"asset": {Prims: map[string]*Prim{
				"/M":   {},
				"/M/X": {},
			}},
		},
		Stacks: map[string]*Stack{
			"root":  {Sublayers: []string{"root"}},
			"asset": {Sublayers: []string{"asset"}},
		},
	}
}

func TestLayerStackComposesReferences(t *testing.T) {
	scene := singleReferenceScene()
	ls := New(scene, "root")

	refs := ls.References(path.MustParse("/Model"))
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if refs[0].AssetPath != "asset" {
		t.Errorf("refs[0].AssetPath = %q, want %q", refs[0].AssetPath, "asset")
	}
	if refs[0].TargetPath.String() != "/M" {
		t.Errorf("refs[0].TargetPath = %q, want /M", refs[0].TargetPath)
	}
}

func TestLayerStackChildNames(t *testing.T) {
	scene := singleReferenceScene()
	ls := New(scene, "asset")

	names := ls.ChildNames(path.MustParse("/M"))
	if len(names) != 1 || names[0] != "X" {
		t.Fatalf("ChildNames = %v, want [X]", names)
	}
}

func TestCacheMemoizesLayerStacks(t *testing.T) {
	scene := singleReferenceScene()
	cache := NewCache(scene)

	a, err := cache.LayerStackFor("asset")
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.LayerStackFor("asset")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("LayerStackFor did not memoize: got distinct pointers")
	}
}

func TestResolverMutes(t *testing.T) {
	r := &Resolver{Muted: map[string]bool{"blocked": true}}
	id, err := r.Resolve(nil, "blocked")
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsMuted(id) {
		t.Errorf("expected %q to be muted", id)
	}
}
