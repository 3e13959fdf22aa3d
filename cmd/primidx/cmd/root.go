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

// Package cmd implements the primidx command line, structured the way
// the teacher's cmd/cue/cmd is structured: a root command carrying
// global flags, one subcommand per verb, and a Main entry point that
// turns a returned error into an exit code.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrPrintedError indicates the command already reported its own error
// to stderr, so Main should not print it again.
var ErrPrintedError = errors.New("primidx: terminating because of errors")

// Command wraps the active cobra command the way the teacher's
// cmd.Command does, so subcommands can reach shared state (the parsed
// global flags, and a per-invocation run ID for correlating the output
// of a single build/explain call, the same role the teacher's LSP hub
// gives a preview-session UUID) without a package-level global.
type Command struct {
	*cobra.Command

	flags globalFlags
	runID uuid.UUID
}

type runFunction func(c *Command, args []string) error

func mkRunE(c *Command, f runFunction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c.Command = cmd
		return f(c, args)
	}
}

func newRootCmd() *Command {
	root := &cobra.Command{
		Use:   "primidx",
		Short: "primidx builds and inspects USD-style prim indices from YAML scene fixtures.",
		Long: `primidx loads a declarative scene (layers, stacks, authored arcs) from a
YAML fixture and runs the composition engine's BuildPrimIndex over it,
the way a USD host runs PcpComputePrimIndex over a stage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c := &Command{Command: root, runID: uuid.New()}

	addGlobalFlags(root.PersistentFlags(), &c.flags)

	root.AddCommand(newBuildCmd(c))
	root.AddCommand(newExplainCmd(c))

	return c
}

// Main runs the primidx CLI and returns a process exit code.
func Main() int {
	cmd := newRootCmd()

	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, ErrPrintedError) {
			fmt.Fprintf(os.Stderr, "primidx: %v\n", err)
		}
		return 1
	}
	return 0
}
