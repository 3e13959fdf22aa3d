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

// CloneRebased deep-copies g, appending childName to every node's path,
// per spec.md §4.10 step 3. The returned graph is used as the starting
// point for BuildPrimIndex at a namespace child: ancestral opinions
// carry over, but the child's own arcs have not yet been discovered.
//
// The has-payload bit is a PrimIndex field computed during
// finalization, not a Node field, so no per-node payload state is
// reset here.
func (g *Graph) CloneRebased(childName string, rootContributesSpecs bool, cullEnabled bool) *Graph {
	out := &Graph{pool: make([]*Node, len(g.pool))}
	for i, n := range g.pool {
		cp := *n
		cp.Site.Path = cp.Site.Path.Append(childName)
		cp.Children = append([]Index{}, n.Children...)
		out.pool[i] = &cp
	}
	root := out.Root()
	if !rootContributesSpecs {
		root.Inert = true
	}
	if cullEnabled {
		// The namespace-child root is where this arc was introduced, so
		// per the culling exception in spec.md §4.9 ("a node at
		// depth-below-introduction = 0 ... is never culled") it starts
		// unculled; descendants inherit their parent's prior cull
		// state, which CloneRebased otherwise preserves verbatim.
	}
	return out
}

// GraftSubTree appends every node of sub (a Graph built by a recursive
// BuildPrimIndex call, per spec.md §4.5 step 4's include_ancestral=true
// path) into g as descendants of parent, translating sub's internal
// indices to g's index space. It returns the index, in g, corresponding
// to sub's root.
func (g *Graph) GraftSubTree(parent Index, sub *Graph, originOverride Index) Index {
	offset := Index(len(g.pool))
	remap := func(idx Index) Index {
		if idx == NoIndex {
			return NoIndex
		}
		return idx + offset
	}
	for _, n := range sub.pool {
		cp := *n
		if cp.Parent == NoIndex {
			cp.Parent = parent
		} else {
			cp.Parent = remap(cp.Parent)
		}
		if cp.Origin == NoIndex || cp.index == sub.Root().index {
			cp.Origin = originOverride
		} else {
			cp.Origin = remap(cp.Origin)
		}
		cp.Root = NoIndex // set to g's root by fixRoots below.
		for i, c := range cp.Children {
			cp.Children[i] = remap(c)
		}
		cp.index = remap(n.index)
		cp.insertionOrder = int(cp.index)
		g.pool = append(g.pool, &cp)
	}
	graftedRoot := remap(sub.Root().index)
	parentNode := g.Node(parent)
	parentNode.Children = append(parentNode.Children, graftedRoot)
	g.fixRoots(graftedRoot, g.Root().index)
	return graftedRoot
}

// fixRoots sets the Root field of idx and every descendant to rootIdx.
func (g *Graph) fixRoots(idx, rootIdx Index) {
	n := g.Node(idx)
	n.Root = rootIdx
	for _, c := range n.Children {
		g.fixRoots(c, rootIdx)
	}
}
