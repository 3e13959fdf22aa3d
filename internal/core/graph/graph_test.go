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

package graph

import (
	"testing"

	"github.com/expenses/primidx/path"
)

func siteAt(stack string, p string) Site {
	return Site{LayerStackID: stack, Path: path.MustParse(p)}
}

func TestStrengthOrderSiblingTieBreak(t *testing.T) {
	g := New(siteAt("root", "/P"))
	root := g.Root().index

	// Insert a Payload child before a Reference child; strength order
	// must still place the Reference ahead of the Payload, per the
	// arc-type rank in spec.md §4.2, regardless of insertion order.
	payload := &Node{ArcType: ArcPayload, Site: siteAt("a", "/A"), Parent: root, Origin: root}
	g.AddChildNode(payload)

	ref := &Node{ArcType: ArcReference, Site: siteAt("a", "/A"), Parent: root, Origin: root}
	g.AddChildNode(ref)

	order := g.StrengthOrder()
	if len(order) != 3 {
		t.Fatalf("len(order) = %d, want 3", len(order))
	}
	if order[1].ArcType != ArcReference {
		t.Errorf("order[1].ArcType = %v, want Reference", order[1].ArcType)
	}
	if order[2].ArcType != ArcPayload {
		t.Errorf("order[2].ArcType = %v, want Payload", order[2].ArcType)
	}
}

func TestFinalizeRemovesCulledAndCompacts(t *testing.T) {
	g := New(siteAt("root", "/P"))
	root := g.Root().index

	keep := &Node{ArcType: ArcReference, Site: siteAt("a", "/A"), Parent: root, Origin: root}
	keepIdx := g.AddChildNode(keep)

	culled := &Node{ArcType: ArcSpecialize, Site: siteAt("b", "/B"), Parent: root, Origin: root, Culled: true}
	g.AddChildNode(culled)

	remap := g.Finalize()
	if g.Len() != 2 {
		t.Fatalf("g.Len() = %d, want 2 after finalize", g.Len())
	}
	newKeep, ok := remap[keepIdx]
	if !ok {
		t.Fatalf("expected kept node to have a remap entry")
	}
	if g.Node(newKeep).ArcType != ArcReference {
		t.Errorf("remapped node has wrong ArcType")
	}
	for _, n := range g.All() {
		if n.Culled {
			t.Errorf("found culled node still present after Finalize")
		}
	}
}

func TestAncestors(t *testing.T) {
	g := New(siteAt("root", "/P"))
	root := g.Root().index
	child := &Node{ArcType: ArcReference, Site: siteAt("a", "/A"), Parent: root, Origin: root}
	childIdx := g.AddChildNode(child)

	chain := g.Ancestors(childIdx)
	if len(chain) != 2 {
		t.Fatalf("len(chain) = %d, want 2", len(chain))
	}
	if chain[0].index != childIdx || chain[1].index != root {
		t.Errorf("Ancestors chain in wrong order: %v", chain)
	}
}
