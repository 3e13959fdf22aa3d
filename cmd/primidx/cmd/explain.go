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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
)

func newExplainCmd(root *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <scene.yaml> <stack:path>",
		Short: "build a prim index and print its nodes, variant decisions, and prim stack",
		Args:  cobra.ExactArgs(2),
		RunE:  mkRunE(root, runExplain),
	}
	return cmd
}

func runExplain(c *Command, args []string) error {
	inputs, err := c.flags.buildInputs(args[0], args[1])
	if err != nil {
		return err
	}
	pi, outputs := index.Run(inputs)
	w := c.OutOrStdout()
	printNodeList(w, c.runID.String(), pi, outputs)
	printVariantDecisions(w, pi)
	printPrimStack(w, pi)
	if outputs.AllErrors.Len() > 0 {
		return ErrPrintedError
	}
	return nil
}

// printVariantDecisions prints one line per Variant node, naming the set
// and selection recorded in the variant-selection path component
// AppendVariantSelection attached (spec.md §4.6's "EvalNodeVariantAuthored").
func printVariantDecisions(w io.Writer, pi *index.PrimIndex) {
	fmt.Fprintln(w, "variant decisions:")
	any := false
	for _, n := range pi.Graph.StrengthOrderIncludingCulled() {
		if n.ArcType != graph.ArcVariant {
			continue
		}
		last, ok := n.Site.Path.Last()
		if !ok || !last.HasVariantSelection() {
			continue
		}
		any = true
		fmt.Fprintf(w, "  %s: %s=%s\n", n.Site.Path.Parent(), last.VariantSet, last.VariantSelection)
	}
	if !any {
		fmt.Fprintln(w, "  (none)")
	}
}

// printPrimStack prints PrimIndex.PrimStack, the strong-to-weak sequence
// of (node, layer-stack) pairs carrying specs for the built site.
func printPrimStack(w io.Writer, pi *index.PrimIndex) {
	fmt.Fprintln(w, "prim stack:")
	if len(pi.PrimStack) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}
	for _, e := range pi.PrimStack {
		fmt.Fprintf(w, "  %s in %s\n", e.Node.Site, e.LayerStackID)
	}
}
