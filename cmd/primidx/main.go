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

// Command primidx builds and inspects prim indices from declarative YAML
// scene fixtures, exercising the engine the way the teacher's cmd/cue
// exercises CUE evaluation.
package main

import (
	"os"

	"github.com/expenses/primidx/cmd/primidx/cmd"
)

func main() {
	os.Exit(cmd.Main())
}
