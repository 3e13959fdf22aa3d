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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rogpeppe/go-internal/txtar"
	"gopkg.in/yaml.v3"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/layerstack/memstack"
)

// TestGoldenScenarios runs the txtar-encoded scenarios of
// testdata/scenarios.txtar through BuildPrimIndex and compares a
// rendering of the resulting graph against each scenario's golden
// "want" file, using cmp.Diff for readable mismatches, the same
// combination the teacher's script-test harness uses for txtar-driven
// fixtures (_examples/cue-lang-cue/doc/tutorial/basics/script_test.go)
// plus its cmp-based struct comparisons elsewhere in the module.
func TestGoldenScenarios(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/scenarios.txtar")
	if err != nil {
		t.Fatal(err)
	}

	files := map[string]map[string][]byte{}
	for _, f := range ar.Files {
		dir, name, ok := strings.Cut(f.Name, "/")
		if !ok {
			continue
		}
		if files[dir] == nil {
			files[dir] = map[string][]byte{}
		}
		files[dir][name] = f.Data
	}

	for name, fs := range files {
		t.Run(name, func(t *testing.T) {
			var scene memstack.Scene
			if err := yaml.Unmarshal(fs["scene.yaml"], &scene); err != nil {
				t.Fatalf("parsing scene.yaml: %v", err)
			}
			siteArg := strings.TrimSpace(string(fs["site"]))
			site, err := graph.ParseSite(siteArg)
			if err != nil {
				t.Fatalf("parsing site %q: %v", siteArg, err)
			}

			cache := memstack.NewCache(&scene)
			rootLS, err := cache.LayerStackFor(site.LayerStackID)
			if err != nil {
				t.Fatalf("opening root stack: %v", err)
			}

			pi, outputs := index.Run(&index.Inputs{
				Site:           site,
				Cache:          cache,
				RootLayerStack: rootLS,
				Resolver:       &memstack.Resolver{},
			})

			got := renderGraph(pi)
			want := string(fs["want"])
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("strength order mismatch (-want +got):\n%s", diff)
			}

			wantErrs := strings.Fields(string(fs["wanterrors"]))
			if len(wantErrs) != outputs.AllErrors.Len() {
				t.Fatalf("errors = %v, want codes %v", outputs.AllErrors.Errs(), wantErrs)
			}
			for i, code := range wantErrs {
				if got := outputs.AllErrors.Errs()[i].Code.String(); got != code {
					t.Errorf("error[%d].Code = %s, want %s", i, got, code)
				}
			}
		})
	}
}

// renderGraph renders pi's whole-graph strength order as "ArcType Site"
// lines, one per node, terminated by a trailing newline so it matches
// the txtar convention of a final newline on every file section.
func renderGraph(pi *index.PrimIndex) string {
	var b strings.Builder
	for _, n := range pi.Graph.StrengthOrder() {
		b.WriteString(n.ArcType.String())
		b.WriteByte(' ')
		b.WriteString(n.Site.String())
		b.WriteByte('\n')
	}
	return b.String()
}
