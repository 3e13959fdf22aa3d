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
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/expenses/primidx/internal/core/graph"
	"github.com/expenses/primidx/internal/core/index"
	"github.com/expenses/primidx/layerstack/memstack"
)

// loadScene reads and parses a memstack.Scene fixture from path.
func loadScene(path string) (*memstack.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scene memstack.Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &scene, nil
}

// parseFallbacks turns the repeated "set=selection" --fallback flag
// values into the map index.Inputs.VariantFallbacks expects.
func parseFallbacks(raw []string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, r := range raw {
		set, sel, ok := strings.Cut(r, "=")
		if !ok || set == "" || sel == "" {
			return nil, fmt.Errorf(`invalid --fallback %q, want "set=selection"`, r)
		}
		out[set] = append(out[set], sel)
	}
	return out, nil
}

// buildInputs resolves the scene file and site argument into an
// index.Inputs ready for index.Run, applying the root command's global
// flags.
func (g *globalFlags) buildInputs(sceneFile, siteArg string) (*index.Inputs, error) {
	scene, err := loadScene(sceneFile)
	if err != nil {
		return nil, err
	}
	site, err := graph.ParseSite(siteArg)
	if err != nil {
		return nil, err
	}
	if _, ok := scene.Stacks[site.LayerStackID]; !ok {
		return nil, fmt.Errorf("scene has no stack named %q", site.LayerStackID)
	}
	fallbacks, err := parseFallbacks(g.fallbacks)
	if err != nil {
		return nil, err
	}

	cache := memstack.NewCache(scene)
	rootStack, err := cache.LayerStackFor(site.LayerStackID)
	if err != nil {
		return nil, err
	}

	return &index.Inputs{
		Site:             site,
		VariantFallbacks: fallbacks,
		Cull:             g.cull,
		Usd:              g.usd,
		Cache:            cache,
		RootLayerStack:   rootStack,
		Resolver:         &memstack.Resolver{},
	}, nil
}
