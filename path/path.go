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

// Package path implements the immutable path algebra used throughout the
// prim index: absolute namespace paths with optional variant-selection
// components, and the map-function/map-expression algebra used to translate
// paths across composition arcs.
package path

import (
	"strconv"
	"strings"
)

// A Component is a single element of a Path. It is either a plain
// namespace name, or a variant selection `{set=sel}` attached to the
// preceding name.
type Component struct {
	Name string

	// VariantSet and VariantSelection are both non-empty iff this
	// component carries a variant selection. A component may carry at
	// most one variant selection, per spec.
	VariantSet       string
	VariantSelection string
}

// HasVariantSelection reports whether c carries a variant selection.
func (c Component) HasVariantSelection() bool {
	return c.VariantSet != ""
}

func (c Component) String() string {
	if c.HasVariantSelection() {
		return c.Name + "{" + c.VariantSet + "=" + c.VariantSelection + "}"
	}
	return c.Name
}

// A Path is an immutable absolute namespace identifier. The zero Path is
// the absolute root ("/").
//
// Paths are compared structurally; two Paths are equal iff they have the
// same components in the same order.
type Path struct {
	components []Component
}

// Root is the absolute root path.
var Root = Path{}

// IsRoot reports whether p is the absolute root.
func (p Path) IsRoot() bool { return len(p.components) == 0 }

// Components returns the path's components. The returned slice must not
// be mutated.
func (p Path) Components() []Component { return p.components }

// Append returns the path formed by appending a plain name component.
func (p Path) Append(name string) Path {
	out := make([]Component, len(p.components)+1)
	copy(out, p.components)
	out[len(p.components)] = Component{Name: name}
	return Path{components: out}
}

// AppendVariantSelection returns the path formed by appending a variant
// selection to the path's final component. It is only meaningful when p
// is non-root; the spec models variant-selection paths as
// `parent_path + {vset=vsel}`, i.e. the selection decorates a synthetic
// trailing component carrying no name of its own.
func (p Path) AppendVariantSelection(vset, vsel string) Path {
	out := make([]Component, len(p.components)+1)
	copy(out, p.components)
	out[len(p.components)] = Component{VariantSet: vset, VariantSelection: vsel}
	return Path{components: out}
}

// Parent returns the path with its final component removed. Calling
// Parent on the root path returns the root path.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	return Path{components: p.components[:len(p.components)-1]}
}

// Last returns the final component of p and reports whether p is
// non-root.
func (p Path) Last() (Component, bool) {
	if p.IsRoot() {
		return Component{}, false
	}
	return p.components[len(p.components)-1], true
}

// Equal reports whether p and q have identical components.
func (p Path) Equal(q Path) bool {
	if len(p.components) != len(q.components) {
		return false
	}
	for i, c := range p.components {
		if c != q.components[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p has prefix as a component-wise prefix,
// i.e. either p equals prefix or prefix is a namespace ancestor of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.components) > len(p.components) {
		return false
	}
	for i, c := range prefix.components {
		if p.components[i] != c {
			return false
		}
	}
	return true
}

// StripAllVariantSelections returns p with every variant-selection
// component's selection cleared, leaving only plain namespace names.
func (p Path) StripAllVariantSelections() Path {
	out := make([]Component, 0, len(p.components))
	for _, c := range p.components {
		if c.HasVariantSelection() {
			continue
		}
		out = append(out, c)
	}
	return Path{components: out}
}

// ContainsPrimVariantSelection reports whether p has any component
// carrying a variant selection.
func (p Path) ContainsPrimVariantSelection() bool {
	for _, c := range p.components {
		if c.HasVariantSelection() {
			return true
		}
	}
	return false
}

// NamespaceDepth reports the number of non-variant-selection components
// in p. This is the quantity the spec calls "namespace depth" when used
// to stamp namespace-depth-at-introduction on a new arc.
func (p Path) NamespaceDepth() int {
	n := 0
	for _, c := range p.components {
		if !c.HasVariantSelection() {
			n++
		}
	}
	return n
}

// IsRootPrimPath reports whether p is a top-level prim path, i.e. a
// direct namespace child of the absolute root. This is distinct from
// IsRoot: "/S" is a root prim path but is not the root.
func (p Path) IsRootPrimPath() bool {
	return p.NamespaceDepth() == 1
}

// IsPrimPath reports whether p names a prim directly, i.e. carries no
// variant selection anywhere along it. References, payloads, inherits and
// specializes must target a prim path per spec.md §4.6 step 1.
func (p Path) IsPrimPath() bool {
	return !p.ContainsPrimVariantSelection()
}

// MustParse parses a slash-separated absolute path such as "/A/B/C" for
// use in tests and the CLI demo. It does not support variant-selection
// syntax; use Append/AppendVariantSelection to build those
// programmatically.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse parses a slash-separated absolute path such as "/A/B/C".
func Parse(s string) (Path, error) {
	if s == "" || s == "/" {
		return Root, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Path{}, &ParseError{Input: s, Reason: "path must be absolute"}
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	p := Root
	for _, part := range parts {
		if part == "" {
			return Path{}, &ParseError{Input: s, Reason: "empty path component"}
		}
		p = p.Append(part)
	}
	return p, nil
}

// ParseError reports a malformed path string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return "invalid path " + strconv.Quote(e.Input) + ": " + e.Reason
}

func (p Path) String() string {
	if p.IsRoot() {
		return "/"
	}
	var b strings.Builder
	for i, c := range p.components {
		if i == 0 || c.Name != "" || !c.HasVariantSelection() {
			b.WriteByte('/')
		}
		b.WriteString(c.String())
	}
	return b.String()
}
