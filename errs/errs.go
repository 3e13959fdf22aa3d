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

// Package errs defines the closed error taxonomy produced by the prim
// index engine (spec.md §7). Composition errors are never fatal: the
// indexer records them here and continues. Only programmer-invariant
// violations panic.
package errs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expenses/primidx/path"
)

// Code identifies the kind of composition error.
type Code int8

const (
	// ArcCycle: adding an arc would create a cycle.
	ArcCycle Code = iota
	// ArcPermissionDenied: a direct arc targets a Private site.
	ArcPermissionDenied
	// PrimPermissionDenied: a stronger node violates a weaker private node.
	PrimPermissionDenied
	// InvalidPrimPath: a reference/payload/class target is malformed.
	InvalidPrimPath
	// InvalidReferenceOffset: a layer-offset is non-invertible.
	InvalidReferenceOffset
	// UnresolvedPrimPath: the target prim is missing in the resolved layer.
	UnresolvedPrimPath
	// InvalidAssetPath: opening the target layer failed.
	InvalidAssetPath
	// MutedAssetPath: the target layer is muted.
	MutedAssetPath
	// OpinionAtRelocationSource: specs were authored at a forbidden site.
	OpinionAtRelocationSource
	// IndexCapacityExceeded: the index grew past a structural limit.
	IndexCapacityExceeded
	// ArcCapacityExceeded: too many arcs were added to a single node.
	ArcCapacityExceeded
	// ArcNamespaceDepthCapacityExceeded: namespace recursion went too deep.
	ArcNamespaceDepthCapacityExceeded
)

func (c Code) String() string {
	switch c {
	case ArcCycle:
		return "ArcCycle"
	case ArcPermissionDenied:
		return "ArcPermissionDenied"
	case PrimPermissionDenied:
		return "PrimPermissionDenied"
	case InvalidPrimPath:
		return "InvalidPrimPath"
	case InvalidReferenceOffset:
		return "InvalidReferenceOffset"
	case UnresolvedPrimPath:
		return "UnresolvedPrimPath"
	case InvalidAssetPath:
		return "InvalidAssetPath"
	case MutedAssetPath:
		return "MutedAssetPath"
	case OpinionAtRelocationSource:
		return "OpinionAtRelocationSource"
	case IndexCapacityExceeded:
		return "IndexCapacityExceeded"
	case ArcCapacityExceeded:
		return "ArcCapacityExceeded"
	case ArcNamespaceDepthCapacityExceeded:
		return "ArcNamespaceDepthCapacityExceeded"
	default:
		return "Unknown"
	}
}

// An Error is a single structured composition error. It carries enough
// context (root site, offending site) to be reported without a
// surrounding diagnostic formatter, per spec.md §1's scoping of
// diagnostic formatting as an external collaborator.
type Error struct {
	Code Code

	// RootSite is the site whose prim index construction surfaced this
	// error.
	RootSite string

	// Site is the offending site, if any (e.g. the cyclic target, the
	// malformed reference target).
	Site string

	// Chain holds the ancestor-to-offending-site path, for ArcCycle.
	Chain []string

	// Msg is a human-readable detail message.
	Msg string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Msg)
	if e.Site != "" {
		fmt.Fprintf(&b, " (site %s)", e.Site)
	}
	if e.RootSite != "" {
		fmt.Fprintf(&b, " [building %s]", e.RootSite)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, " chain: %s", strings.Join(e.Chain, " -> "))
	}
	return b.String()
}

// Position reports the offending site, satisfying a minimal
// position-reporting contract analogous to the teacher's
// errors.Error.Position, without depending on a token/source package
// this engine has no use for (layer I/O, and therefore source positions,
// is out of scope per spec.md §1).
func (e *Error) Position() string { return e.Site }

// NewCycle builds an ArcCycle error from the ancestor chain (root to
// offending site, inclusive) and the offending site itself.
func NewCycle(rootSite string, chain []path.Path, offending path.Path) *Error {
	strs := make([]string, len(chain))
	for i, p := range chain {
		strs[i] = p.String()
	}
	return &Error{
		Code:     ArcCycle,
		RootSite: rootSite,
		Site:     offending.String(),
		Chain:    strs,
		Msg:      "adding this arc would create a composition cycle",
	}
}

// List is an ordered, append-only accumulator of Errors, modeled on the
// teacher's cue/errors.List: stable insertion order, sortable by code
// then site for deterministic reporting, and a combined Error() string.
type List struct {
	errs       []*Error
	onceReport map[Code]bool
}

// Add appends err to the list. A nil err is ignored, matching the
// indexer's habit of calling error constructors conditionally.
func (l *List) Add(err *Error) {
	if err == nil {
		return
	}
	l.errs = append(l.errs, err)
}

// AddOnce appends err to the list the first time it is called for err's
// Code, and is a no-op on every subsequent call for that Code. This is
// used for the capacity-limit error codes, which spec.md §7 says must be
// "reported at most once per category".
func (l *List) AddOnce(err *Error) {
	if err == nil {
		return
	}
	if l.onceReport == nil {
		l.onceReport = make(map[Code]bool)
	}
	if l.onceReport[err.Code] {
		return
	}
	l.onceReport[err.Code] = true
	l.errs = append(l.errs, err)
}

// Errs returns the accumulated errors in insertion order.
func (l *List) Errs() []*Error { return l.errs }

// Len reports the number of accumulated errors.
func (l *List) Len() int { return len(l.errs) }

// HasCode reports whether any accumulated error has the given code.
func (l *List) HasCode(c Code) bool {
	for _, e := range l.errs {
		if e.Code == c {
			return true
		}
	}
	return false
}

// Sorted returns a stably-sorted copy of the accumulated errors, primarily
// useful for golden-file tests where insertion order might otherwise
// depend on task-queue scheduling details not worth pinning down.
func (l *List) Sorted() []*Error {
	out := append([]*Error{}, l.errs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Site < out[j].Site
	})
	return out
}

func (l *List) Error() string {
	parts := make([]string, len(l.errs))
	for i, e := range l.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
