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

	"github.com/expenses/primidx/internal/core/index"
)

func newBuildCmd(root *Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <scene.yaml> <stack:path>",
		Short: "build a prim index and print its strength-ordered nodes",
		Args:  cobra.ExactArgs(2),
		RunE:  mkRunE(root, runBuild),
	}
	return cmd
}

func runBuild(c *Command, args []string) error {
	inputs, err := c.flags.buildInputs(args[0], args[1])
	if err != nil {
		return err
	}
	pi, outputs := index.Run(inputs)
	printNodeList(c.OutOrStdout(), c.runID.String(), pi, outputs)
	if outputs.AllErrors.Len() > 0 {
		return ErrPrintedError
	}
	return nil
}

// printNodeList prints one line per node in whole-graph strength order,
// the same ordering and Site.String rendering index_test.go's
// siteStrings helper uses, followed by any accumulated errors.
func printNodeList(w io.Writer, runID string, pi *index.PrimIndex, outputs *index.Outputs) {
	fmt.Fprintf(w, "# run %s\n", runID)
	for i, n := range pi.Graph.StrengthOrder() {
		flags := ""
		if n.Inert {
			flags += " inert"
		}
		if n.Culled {
			flags += " culled"
		}
		fmt.Fprintf(w, "%2d  %-10s %s%s\n", i, n.ArcType, n.Site, flags)
	}
	if pi.HasPayloads {
		fmt.Fprintln(w, "has-payloads: true")
	}
	if pi.Instanceable {
		fmt.Fprintln(w, "instanceable: true")
	}
	for _, e := range outputs.AllErrors.Sorted() {
		fmt.Fprintf(w, "error: %s\n", e.Error())
	}
}
