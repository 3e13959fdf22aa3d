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

package index

import (
	"github.com/expenses/primidx/errs"
	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/sched"
	"github.com/expenses/primidx/internal/core/site"
)

// PrimIndex is the finalized, immutable result of one BuildPrimIndex
// call chain (spec.md §3): the graph, its prim stack, and its
// payload/instanceability bits.
type PrimIndex struct {
	Graph *graph.Graph

	HasPayloads  bool
	Instanceable bool

	// PrimStack is the sequence of (node, layer-stack) pairs that carry
	// specs for this prim, in strong-to-weak order (GLOSSARY, "Prim
	// stack"). Per-layer resolution within a layer stack is not modeled
	// here since layerstack.LayerStack exposes only aggregate HasSpecs;
	// see DESIGN.md.
	PrimStack []PrimStackEntry
}

// PrimStackEntry is one entry of PrimIndex.PrimStack.
type PrimStackEntry struct {
	Node         *graph.Node
	LayerStackID string
}

// Run executes one top-level BuildPrimIndex call chain per spec.md
// §4.10: recursively builds the ancestral chain, drains the task queue
// for every level, and — being the topmost frame — finalizes (culling
// compaction, permission enforcement, instanceability, prim-stack
// gathering).
func Run(inputs *Inputs) (*PrimIndex, *Outputs) {
	outputs := &Outputs{
		AllErrors:                     &errs.List{},
		ExpressionVariablesDependency: map[string]bool{},
	}
	deps := site.NewDependencies()
	registry := site.NewRegistry()
	if inputs.RootLayerStack != nil {
		registry.Register(inputs.RootLayerStack)
	}

	st := &IndexerState{
		Inputs:  inputs,
		Outputs: outputs,
		Composer: &site.Composer{
			Registry: registry,
			Deps:     deps,
		},
		RootSite:                   inputs.Site,
		Frame:                      &Frame{},
		EvaluateImpliedSpecializes: true,
		EvaluateVariants:           true,
	}

	var pi *PrimIndex
	if inputs.ParentIndex != nil {
		// Bypass the recursive parent-index step: clone-rebase the
		// caller-supplied parent index directly (spec.md §6,
		// "parent_index: optional precomputed parent prim index
		// (bypasses the driver's recursive parent step)").
		name, _ := inputs.Site.Path.Last()
		rootContributesSpecs := true
		g := inputs.ParentIndex.Graph.CloneRebased(name.Name, rootContributesSpecs, inputs.Cull)
		st.Frame.Graph = g
		st.Queue = sched.New()
		st.AddTasksForRootNode(g.Root())
		st.drain()
		pi = &PrimIndex{Graph: g}
	} else {
		g := st.buildAt(inputs.Site, 0, true, true, true)
		pi = &PrimIndex{Graph: g}
	}

	st.finalize(pi)

	outputs.DynamicFileFormatDependency = deps.DynamicFileFormat
	outputs.ExpressionVariablesDependency = deps.ExpressionVariables

	return pi, outputs
}
