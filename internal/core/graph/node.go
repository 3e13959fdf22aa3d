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

// Package graph implements the prim index graph: a flat pool of Nodes
// linked by parent/origin/root relations, with the strength-ordering
// rules of spec.md §4.2.
//
// The pool-of-indices representation is grounded on the teacher's
// internal/core/adt.Vertex (_examples/cue-lang-cue/internal/core/adt/composite.go),
// which keeps a flat Arcs slice per node in insertion order and derives
// a Path by walking Parent pointers; this package generalizes that shape
// to composition arcs: a global, monotonically-indexed pool (rather than
// per-node Go pointers) so that strength order can fall back to index
// comparison (spec.md §9, "Graph representation"), and Origin/Root fields
// alongside Parent, which the teacher's Vertex does not need because CUE
// arcs are not distinguished by how they were introduced.
package graph

import (
	"fmt"
	"strings"

	"github.com/expenses/primidx/path"
)

// ArcType identifies the kind of composition arc that introduced a node.
type ArcType int8

const (
	ArcRoot ArcType = iota
	ArcRelocate
	ArcInherit
	ArcSpecialize
	ArcVariant
	ArcReference
	ArcPayload
)

func (a ArcType) String() string {
	switch a {
	case ArcRoot:
		return "Root"
	case ArcRelocate:
		return "Relocate"
	case ArcInherit:
		return "Inherit"
	case ArcSpecialize:
		return "Specialize"
	case ArcVariant:
		return "Variant"
	case ArcReference:
		return "Reference"
	case ArcPayload:
		return "Payload"
	default:
		return "Unknown"
	}
}

// strengthRank orders arc types strongest-first, per spec.md §4.2.
// Specialize ranks as the fourth-strongest type here (its pre-propagation
// rank, used only to order siblings under the same direct parent before
// EvalImpliedSpecializes relocates specializes sub-trees to the root,
// where root-level sibling order makes them weakest in the whole-graph
// walk; see Graph.sortedChildren).
func (a ArcType) strengthRank() int {
	switch a {
	case ArcRoot:
		return 0
	case ArcRelocate:
		return 1
	case ArcInherit:
		return 2
	case ArcSpecialize:
		return 3
	case ArcVariant:
		return 4
	case ArcReference:
		return 5
	case ArcPayload:
		return 6
	default:
		return 99
	}
}

// Permission models the node's site permission, per spec.md's Node data
// model.
type Permission int8

const (
	Public Permission = iota
	Private
)

// Index identifies a Node within a Graph's pool. The root is always
// created first and is index 0; callers use NoIndex, not the zero
// value, to mean "absent".
type Index int32

// NoIndex marks the absence of a node reference (e.g. a node with no
// origin distinct from itself, prior to assignment).
const NoIndex Index = -1

// A Node is a single entry in the prim index graph: one per contributing
// site.
type Node struct {
	index Index

	ArcType ArcType
	Site    Site

	Parent Index
	Origin Index
	Root   Index

	Children []Index // insertion order

	MapToParent *path.MapExpression

	// NamespaceDepth is the number of non-variant path components at the
	// parent at the time this arc was introduced.
	NamespaceDepth int

	// SiblingNumberAtOrigin is the stable tie-break for equal-strength
	// siblings (spec.md §3, Node invariants).
	SiblingNumberAtOrigin int

	// insertionOrder is the pool index at creation time and doubles as
	// the final strength tie-break (spec.md §4.2 rule 3); it is
	// recorded separately from index because Finalize compacts the pool
	// and would otherwise destroy this ordering information.
	insertionOrder int

	Inert         bool
	Culled        bool
	Restricted    bool
	HasSpecs      bool
	HasSymmetry   bool
	Permission    Permission
	DueToAncestor bool

	// ArcIntroduction is true for exactly the node returned by the AddArc
	// call that introduced it: depth-below-introduction zero, in
	// spec.md §4.9's phrasing ("this is the node that introduced its
	// arc"). Namespace descendants pulled into a grafted sub-index by
	// the ancestor ladder (CloneRebased chaining inside buildAt) are
	// never themselves returned by AddArc, so they leave this false
	// even though they inherit the same Origin.
	ArcIntroduction bool

	// DirectContributes records whether this node's own site may
	// contribute direct opinions (spec.md §4.5 step 3, the salted-earth
	// rule, and step 6, default-target placeholders).
	DirectContributes bool
}

// Index returns the node's identity within its Graph.
func (n *Node) Index() Index { return n.index }

// A Site pairs a layer-stack identity with a path, per spec.md §3's
// LayerStackSite. LayerStackID is an opaque comparable key supplied by
// the layerstack.LayerStack implementation (spec.md treats layer-stack
// construction as an external collaborator; the engine only needs
// equality over layer-stack identities, not their content).
type Site struct {
	LayerStackID string
	Path         path.Path
}

// Equal reports whether two sites are equal, per spec.md §3: "Two sites
// are equal iff both fields are equal."
func (s Site) Equal(o Site) bool {
	return s.LayerStackID == o.LayerStackID && s.Path.Equal(o.Path)
}

func (s Site) String() string {
	return s.LayerStackID + ":" + s.Path.String()
}

// ParseSite parses the "layerStackID:path" form produced by Site.String,
// the CLI's external notation for naming a site to build.
func ParseSite(s string) (Site, error) {
	id, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Site{}, fmt.Errorf("graph: site %q is missing the \"layerStackID:\" prefix", s)
	}
	p, err := path.Parse(rest)
	if err != nil {
		return Site{}, fmt.Errorf("graph: parsing site %q: %w", s, err)
	}
	return Site{LayerStackID: id, Path: p}, nil
}
