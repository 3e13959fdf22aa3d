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

package memstack

import (
	"fmt"
	"sync"

	"github.com/expenses/primidx/layerstack"
)

// Cache implements layerstack.Cache over a Scene: an authored asset
// path, once resolved to a stack id, opens directly as that stack's
// LayerStack. Lookups are memoized and guarded by a mutex so independent
// concurrent BuildPrimIndex calls sharing one Cache (spec.md §5) do not
// race.
type Cache struct {
	scene *Scene

	mu    sync.Mutex
	built map[string]*LayerStack
}

var _ layerstack.Cache = (*Cache)(nil)

// NewCache creates a Cache over scene.
func NewCache(scene *Scene) *Cache {
	return &Cache{scene: scene, built: make(map[string]*LayerStack)}
}

func (c *Cache) LayerStackFor(identifier string) (layerstack.LayerStack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ls, ok := c.built[identifier]; ok {
		return ls, nil
	}
	if _, ok := c.scene.Stacks[identifier]; !ok {
		return nil, fmt.Errorf("memstack: no stack named %q", identifier)
	}
	ls := New(c.scene, identifier)
	c.built[identifier] = ls
	return ls, nil
}

// Resolver implements layerstack.AssetResolver: every asset path is
// already a stack id (anchoring is a no-op, since the fixture has no
// real filesystem layout to resolve relative to), except for entries in
// Muted, which Resolve still resolves but IsMuted then reports.
type Resolver struct {
	Muted map[string]bool
}

var _ layerstack.AssetResolver = (*Resolver)(nil)

func (r *Resolver) Resolve(anchor layerstack.LayerStack, assetPath string) (string, error) {
	if assetPath == "" {
		return "", fmt.Errorf("memstack: empty asset path")
	}
	return assetPath, nil
}

func (r *Resolver) IsMuted(identifier string) bool {
	return r.Muted[identifier]
}
