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

import "testing"

func TestParseAndString(t *testing.T) {
	cases := []string{"/", "/A", "/A/B/C"}
	for _, s := range cases {
		p, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("Parse(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	a := MustParse("/A/B")
	ab := MustParse("/A/B/C")
	other := MustParse("/A/X")

	if !ab.HasPrefix(a) {
		t.Errorf("expected %v to have prefix %v", ab, a)
	}
	if !a.HasPrefix(a) {
		t.Errorf("expected a path to have itself as a prefix")
	}
	if other.HasPrefix(a) {
		t.Errorf("did not expect %v to have prefix %v", other, a)
	}
	if !ab.HasPrefix(Root) {
		t.Errorf("every path should have Root as a prefix")
	}
}

func TestVariantSelection(t *testing.T) {
	p := MustParse("/A/B").AppendVariantSelection("geom", "sphere")
	if !p.ContainsPrimVariantSelection() {
		t.Errorf("expected ContainsPrimVariantSelection to be true")
	}
	stripped := p.StripAllVariantSelections()
	if stripped.ContainsPrimVariantSelection() {
		t.Errorf("expected stripped path to have no variant selection")
	}
	if !stripped.Equal(MustParse("/A/B")) {
		t.Errorf("StripAllVariantSelections() = %v, want /A/B", stripped)
	}
	if p.NamespaceDepth() != 2 {
		t.Errorf("NamespaceDepth() = %d, want 2", p.NamespaceDepth())
	}
}

func TestMapFunctionIdentity(t *testing.T) {
	id := IdentityFunction()
	p := MustParse("/A/B")
	got, ok := id.MapSourceToTarget(p)
	if !ok || !got.Equal(p) {
		t.Errorf("identity MapSourceToTarget(%v) = %v, %v; want %v, true", p, got, ok, p)
	}
}

func TestMapFunctionTranslation(t *testing.T) {
	f := SingleEntry(MustParse("/M"), MustParse("/Model"))
	got, ok := f.MapSourceToTarget(MustParse("/M/X"))
	if !ok {
		t.Fatalf("expected translation to succeed")
	}
	want := MustParse("/Model/X")
	if !got.Equal(want) {
		t.Errorf("MapSourceToTarget = %v, want %v", got, want)
	}

	// Paths outside of the source namespace do not translate.
	if _, ok := f.MapSourceToTarget(MustParse("/Other")); ok {
		t.Errorf("expected unrelated path to not translate")
	}
}

func TestMapFunctionRootIdentityFallback(t *testing.T) {
	f := SingleEntry(MustParse("/M"), MustParse("/Model")).AddRootIdentity()
	got, ok := f.MapSourceToTarget(MustParse("/Other"))
	if !ok {
		t.Fatalf("expected root identity to catch unrelated path")
	}
	if !got.Equal(MustParse("/Other")) {
		t.Errorf("MapSourceToTarget = %v, want /Other (root identity)", got)
	}
}

func TestMapFunctionInverse(t *testing.T) {
	f := SingleEntry(MustParse("/M"), MustParse("/Model"))
	inv := f.Inverse()
	got, ok := inv.MapSourceToTarget(MustParse("/Model/X"))
	if !ok {
		t.Fatalf("expected inverse translation to succeed")
	}
	if !got.Equal(MustParse("/M/X")) {
		t.Errorf("Inverse MapSourceToTarget = %v, want /M/X", got)
	}
}

func TestMapFunctionCompose(t *testing.T) {
	// g maps /C -> /B (an inherit from B's perspective), f maps /B -> /A
	// (a reference from A's perspective). The composition should map
	// /C -> /A directly.
	g := SingleEntry(MustParse("/C"), MustParse("/B"))
	f := SingleEntry(MustParse("/B"), MustParse("/A"))

	composed := f.Compose(g)
	got, ok := composed.MapSourceToTarget(MustParse("/C/X"))
	if !ok {
		t.Fatalf("expected composed translation to succeed")
	}
	if !got.Equal(MustParse("/A/X")) {
		t.Errorf("Compose MapSourceToTarget = %v, want /A/X", got)
	}
}

func TestMapExpressionMemoizes(t *testing.T) {
	e := &MapExpression{op: opConstant, fn: IdentityFunction()}
	// Evaluate, then change the leaf's function: a memoized expression
	// keeps returning the first result.
	_ = e.Evaluate()
	e.fn = SingleEntry(MustParse("/A"), MustParse("/B"))
	if !e.Evaluate().HasRootIdentity() {
		t.Errorf("second Evaluate recomputed the result instead of returning the memoized one")
	}
}

func TestMapExpressionComposeAndInverse(t *testing.T) {
	f := ConstantExpr(SingleEntry(MustParse("/M"), MustParse("/Model")))
	id := IdentityExpr()
	composed := f.Compose(id).AddRootIdentity()

	got, ok := composed.MapSourceToTarget(MustParse("/M/X"))
	if !ok || !got.Equal(MustParse("/Model/X")) {
		t.Errorf("composed.MapSourceToTarget = %v, %v; want /Model/X, true", got, ok)
	}

	inv := f.Inverse()
	got, ok = inv.MapSourceToTarget(MustParse("/Model/X"))
	if !ok || !got.Equal(MustParse("/M/X")) {
		t.Errorf("inverse.MapSourceToTarget = %v, %v; want /M/X, true", got, ok)
	}
}
