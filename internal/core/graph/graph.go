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

import "sort"

// A Graph owns the flat node pool for one prim index (or one recursive
// sub-index frame, per spec.md §4.10). Nodes are never physically removed
// except by Finalize.
type Graph struct {
	pool []*Node
}

// New creates a Graph with a single Root node at the given site.
func New(rootSite Site) *Graph {
	g := &Graph{}
	root := &Node{
		ArcType:           ArcRoot,
		Site:              rootSite,
		Parent:            NoIndex,
		Origin:            NoIndex,
		DirectContributes: true,
	}
	idx := g.insert(root)
	root.Root = idx
	return g
}

func (g *Graph) insert(n *Node) Index {
	idx := Index(len(g.pool))
	n.index = idx
	n.insertionOrder = int(idx)
	g.pool = append(g.pool, n)
	return idx
}

// Node returns the node at idx.
func (g *Graph) Node(idx Index) *Node {
	if idx == NoIndex {
		return nil
	}
	return g.pool[idx]
}

// Root returns the graph's root node. The root is always the first node
// inserted (index 0) for a freshly-built graph; when grafting sub-trees
// (spec.md §4.5 step 4) the root of the overall PrimIndex remains index
// 0 in the owning graph, while grafted nodes carry their own Root field
// pointing back to it.
func (g *Graph) Root() *Node { return g.pool[0] }

// Len reports the number of nodes currently in the pool (including
// culled-but-not-yet-finalized nodes).
func (g *Graph) Len() int { return len(g.pool) }

// AddChildNode creates a new node as a child of parent's Node and
// returns it.
func (g *Graph) AddChildNode(n *Node) Index {
	idx := g.insert(n)
	parent := g.Node(n.Parent)
	parent.Children = append(parent.Children, idx)
	return idx
}

// Ancestors returns the chain of nodes from n up to and including the
// root, nearest ancestor first.
func (g *Graph) Ancestors(idx Index) []*Node {
	var chain []*Node
	for idx != NoIndex {
		n := g.Node(idx)
		chain = append(chain, n)
		idx = n.Parent
	}
	return chain
}

// StrengthOrder returns every node in the graph in whole-graph strength
// order: a depth-first walk visiting each parent before its children,
// and ordering each node's children by the three-level tie-break of
// spec.md §4.2.
//
// Nodes already marked Culled are skipped, matching the observable
// behaviour after Finalize; callers that need pre-cull visibility should
// use StrengthOrderIncludingCulled.
func (g *Graph) StrengthOrder() []*Node {
	return g.strengthOrder(true)
}

// StrengthOrderIncludingCulled is StrengthOrder without filtering out
// culled nodes; used by permission enforcement, the task queue's rank
// computation, and the explain command, which all run before Finalize.
func (g *Graph) StrengthOrderIncludingCulled() []*Node {
	return g.strengthOrder(false)
}

func (g *Graph) strengthOrder(skipCulled bool) []*Node {
	if g.Len() == 0 {
		return nil
	}
	var out []*Node
	var visit func(idx Index)
	visit = func(idx Index) {
		n := g.Node(idx)
		if skipCulled && n.Culled {
			return
		}
		out = append(out, n)
		children := g.sortedChildren(n)
		for _, c := range children {
			visit(c)
		}
	}
	visit(g.Root().index)
	return out
}

// sortedChildren returns n's children ordered by the sibling strength
// rule of spec.md §4.2: arc-type rank, then sibling-number-at-origin,
// then insertion order. Directly under the graph root, Specialize
// children rank after every other arc type.
func (g *Graph) sortedChildren(n *Node) []Index {
	children := append([]Index{}, n.Children...)
	rank := func(c *Node) int {
		if n.Parent == NoIndex && c.ArcType == ArcSpecialize {
			return ArcPayload.strengthRank() + 1
		}
		return c.ArcType.strengthRank()
	}
	sort.SliceStable(children, func(i, j int) bool {
		a, b := g.Node(children[i]), g.Node(children[j])
		ra, rb := rank(a), rank(b)
		if ra != rb {
			return ra < rb
		}
		if a.SiblingNumberAtOrigin != b.SiblingNumberAtOrigin {
			return a.SiblingNumberAtOrigin < b.SiblingNumberAtOrigin
		}
		return a.insertionOrder < b.insertionOrder
	})
	return children
}

// Finalize physically removes every node marked Culled from the pool,
// per spec.md §4.9, and compacts indices. It returns a mapping from old
// to new indices for callers (e.g. PrimIndex) that keep Index-valued
// fields of their own (such as the prim stack).
func (g *Graph) Finalize() map[Index]Index {
	remap := make(map[Index]Index, len(g.pool))
	newPool := make([]*Node, 0, len(g.pool))
	for _, n := range g.pool {
		if n.Culled {
			continue
		}
		remap[n.index] = Index(len(newPool))
		newPool = append(newPool, n)
	}
	for _, n := range newPool {
		n.index = remap[n.index]
		if n.Parent != NoIndex {
			n.Parent = remapOrRoot(remap, n.Parent)
		}
		if n.Origin != NoIndex {
			n.Origin = remapOrRoot(remap, n.Origin)
		}
		if n.Root != NoIndex {
			n.Root = remapOrRoot(remap, n.Root)
		}
		out := n.Children[:0]
		for _, c := range n.Children {
			if newIdx, ok := remap[c]; ok {
				out = append(out, newIdx)
			}
		}
		n.Children = out
	}
	g.pool = newPool
	return remap
}

// remapOrRoot resolves idx through remap; if idx referred to a node that
// was itself culled (which should not happen given spec.md's "culled
// implies every descendant culled" invariant, but may transiently hold
// during propagation per §4.8), it falls back to 0 (the graph root)
// rather than leaving a dangling index.
func remapOrRoot(remap map[Index]Index, idx Index) Index {
	if v, ok := remap[idx]; ok {
		return v
	}
	return 0
}

// WalkCulled calls f for every node that is culled but still present in
// the pool (i.e. before Finalize runs). This backs the driver's
// culled_dependencies output (spec.md §6).
func (g *Graph) WalkCulled(f func(*Node)) {
	for _, n := range g.pool {
		if n.Culled {
			f(n)
		}
	}
}

// All returns every node currently in the pool, in pool (insertion)
// order, independent of strength order or culling. Used by whole-graph
// scans whose result does not depend on order, such as the payload and
// instanceability checks in finalization.
func (g *Graph) All() []*Node { return g.pool }
