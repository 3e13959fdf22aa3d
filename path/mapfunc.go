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

package path

import "time"

// A MapFunction is a finite map from source paths to target paths, plus a
// time offset applied uniformly across the mapping. Keys are unique.
//
// MapSourceToTarget and MapTargetToSource translate a path by
// longest-prefix match among the function's keys (source keys for the
// forward direction, target keys for the inverse direction). A path that
// matches no key translates to Empty, unless a root identity entry
// ("/" -> "/") is present.
type MapFunction struct {
	pairs      []pair
	timeOffset time.Duration
}

type pair struct {
	source, target Path
}

// Entry is one source->target mapping, for building a multi-entry
// MapFunction with ConstantFunction. Path is not comparable (it embeds a
// slice), so entries are passed as a slice of pairs rather than a map.
type Entry struct {
	Source, Target Path
}

// Empty is the sentinel MapFunction result meaning "this path does not
// translate". It is distinguished from Path{} (the root) by the ok bool
// returned from MapSourceToTarget/MapTargetToSource; callers must check
// that bool rather than comparing against Path{}.
var Empty = Path{}

// IdentityFunction returns the map function that translates every path to
// itself.
func IdentityFunction() MapFunction {
	return MapFunction{pairs: []pair{{source: Root, target: Root}}}
}

// ConstantFunction returns a MapFunction with the given source->target
// entries and time offset.
func ConstantFunction(entries []Entry, offset time.Duration) MapFunction {
	f := MapFunction{timeOffset: offset}
	for _, e := range entries {
		f.pairs = append(f.pairs, pair{source: e.Source, target: e.Target})
	}
	return f
}

// SingleEntry is a convenience constructor for the common case of a
// MapFunction with exactly one source->target entry (the shape used by
// references, payloads, inherits and specializes when composing their
// arc's map expression).
func SingleEntry(source, target Path) MapFunction {
	return MapFunction{pairs: []pair{{source: source, target: target}}}
}

// WithTimeOffset returns a copy of f with its time offset replaced.
func (f MapFunction) WithTimeOffset(offset time.Duration) MapFunction {
	f.timeOffset = offset
	return f
}

// TimeOffset returns f's time offset.
func (f MapFunction) TimeOffset() time.Duration { return f.timeOffset }

// HasRootIdentity reports whether f already contains the "/" -> "/" entry.
func (f MapFunction) HasRootIdentity() bool {
	for _, p := range f.pairs {
		if p.source.IsRoot() && p.target.IsRoot() {
			return true
		}
	}
	return false
}

// AddRootIdentity returns f with a "/" -> "/" entry added if not already
// present. Idempotent.
func (f MapFunction) AddRootIdentity() MapFunction {
	if f.HasRootIdentity() {
		return f
	}
	out := f
	out.pairs = append(append([]pair{}, f.pairs...), pair{source: Root, target: Root})
	return out
}

// MapSourceToTarget translates p from source namespace to target
// namespace by longest-prefix match. ok is false if no entry matches.
func (f MapFunction) MapSourceToTarget(p Path) (result Path, ok bool) {
	best := -1
	var bestPair pair
	for _, entry := range f.pairs {
		if p.HasPrefix(entry.source) && len(entry.source.components) > best {
			best = len(entry.source.components)
			bestPair = entry
		}
	}
	if best < 0 {
		return Empty, false
	}
	return rebase(p, bestPair.source, bestPair.target), true
}

// MapTargetToSource translates p from target namespace to source
// namespace by longest-prefix match. ok is false if no entry matches.
func (f MapFunction) MapTargetToSource(p Path) (result Path, ok bool) {
	best := -1
	var bestPair pair
	for _, entry := range f.pairs {
		if p.HasPrefix(entry.target) && len(entry.target.components) > best {
			best = len(entry.target.components)
			bestPair = entry
		}
	}
	if best < 0 {
		return Empty, false
	}
	return rebase(p, bestPair.target, bestPair.source), true
}

// rebase replaces the "from" prefix of p with "to".
func rebase(p, from, to Path) Path {
	suffix := p.components[len(from.components):]
	out := to
	for _, c := range suffix {
		if c.HasVariantSelection() {
			out = out.AppendVariantSelection(c.VariantSet, c.VariantSelection)
		} else {
			out = out.Append(c.Name)
		}
	}
	return out
}

// Inverse returns the MapFunction with source and target swapped.
func (f MapFunction) Inverse() MapFunction {
	out := MapFunction{timeOffset: -f.timeOffset}
	for _, p := range f.pairs {
		out.pairs = append(out.pairs, pair{source: p.target, target: p.source})
	}
	return out
}

// Compose returns f ∘ g, the MapFunction such that
//
//	(f.Compose(g)).MapSourceToTarget(p) == f.MapSourceToTarget(g.MapSourceToTarget(p))
//
// Composition is computed entry-wise: for every pair (gs, gt) in g and
// (fs, ft) in f such that gt has fs as a prefix (or vice versa), a
// composed entry is produced over the narrower of the two source spaces.
func (f MapFunction) Compose(g MapFunction) MapFunction {
	out := MapFunction{timeOffset: f.timeOffset + g.timeOffset}
	for _, gp := range g.pairs {
		for _, fp := range f.pairs {
			switch {
			case gp.target.HasPrefix(fp.source):
				composedTarget := rebase(gp.target, fp.source, fp.target)
				out.pairs = append(out.pairs, pair{source: gp.source, target: composedTarget})
			case fp.source.HasPrefix(gp.target) && !gp.target.Equal(fp.source):
				// g's target space is narrower than f's source space:
				// the composed source is the corresponding narrower
				// slice of g's source space.
				narrowedSource := rebase(fp.source, gp.target, gp.source)
				out.pairs = append(out.pairs, pair{source: narrowedSource, target: fp.target})
			}
		}
	}
	return out
}
