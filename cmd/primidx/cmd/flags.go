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

import "github.com/spf13/pflag"

type flagName string

const (
	flagCull     flagName = "cull"
	flagUsd      flagName = "usd"
	flagFallback flagName = "fallback"
)

// globalFlags holds the parsed values of the root command's persistent
// flags, filled in by addGlobalFlags.
type globalFlags struct {
	cull      bool
	usd       bool
	fallbacks []string
}

func addGlobalFlags(f *pflag.FlagSet, g *globalFlags) {
	f.BoolVar(&g.cull, string(flagCull), false,
		"cull nodes that contribute nothing from the finalized index")
	f.BoolVar(&g.usd, string(flagUsd), false,
		"disable non-USD behavior: permissions, symmetry, relocations, prim-stack retention")
	f.StringArrayVar(&g.fallbacks, string(flagFallback), nil,
		`variant fallback, as "set=selection" (repeatable)`)
}
