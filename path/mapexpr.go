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

import "sync"

// A MapExpression is a lazily-evaluated tree of MapFunction combinators,
// per spec.md §9 ("Model as a small algebraic type ... with a lazy
// evaluator that memoizes results keyed on structural hash"). Composing
// a long chain of arcs (e.g. implied-class propagation across several
// ancestors) builds up a MapExpression rather than eagerly flattening
// MapFunctions, and the tree is only evaluated to a MapFunction when a
// path actually needs to be translated.
type MapExpression struct {
	op    exprOp
	fn    MapFunction // valid when op == opIdentity or opConstant
	left  *MapExpression
	right *MapExpression // valid when op == opCompose

	once   sync.Once
	cached MapFunction
}

type exprOp int8

const (
	opIdentity exprOp = iota
	opConstant
	opCompose
	opInverse
	opAddRootIdentity
)

// IdentityExpr is the MapExpression representing the identity mapping.
func IdentityExpr() *MapExpression {
	return &MapExpression{op: opIdentity}
}

// ConstantExpr wraps a concrete MapFunction as a leaf MapExpression.
func ConstantExpr(fn MapFunction) *MapExpression {
	return &MapExpression{op: opConstant, fn: fn}
}

// ComposeExpr returns the MapExpression for lhs ∘ rhs.
func ComposeExpr(lhs, rhs *MapExpression) *MapExpression {
	return &MapExpression{op: opCompose, left: lhs, right: rhs}
}

// InverseExpr returns the MapExpression for the inverse of inner.
func InverseExpr(inner *MapExpression) *MapExpression {
	return &MapExpression{op: opInverse, left: inner}
}

// AddRootIdentityExpr returns the MapExpression for inner with a root
// identity entry added.
func AddRootIdentityExpr(inner *MapExpression) *MapExpression {
	return &MapExpression{op: opAddRootIdentity, left: inner}
}

// Evaluate forces e to a concrete MapFunction, memoizing the result.
func (e *MapExpression) Evaluate() MapFunction {
	e.once.Do(func() {
		switch e.op {
		case opIdentity:
			e.cached = IdentityFunction()
		case opConstant:
			e.cached = e.fn
		case opCompose:
			e.cached = e.left.Evaluate().Compose(e.right.Evaluate())
		case opInverse:
			e.cached = e.left.Evaluate().Inverse()
		case opAddRootIdentity:
			e.cached = e.left.Evaluate().AddRootIdentity()
		}
	})
	return e.cached
}

// MapSourceToTarget translates p through the evaluated expression.
func (e *MapExpression) MapSourceToTarget(p Path) (Path, bool) {
	return e.Evaluate().MapSourceToTarget(p)
}

// MapTargetToSource translates p through the evaluated expression's
// inverse direction.
func (e *MapExpression) MapTargetToSource(p Path) (Path, bool) {
	return e.Evaluate().MapTargetToSource(p)
}

// AddRootIdentity returns a new expression with a root identity entry
// added. Idempotent in effect (not in tree shape).
func (e *MapExpression) AddRootIdentity() *MapExpression {
	return AddRootIdentityExpr(e)
}

// Inverse returns a new expression representing the inverse of e.
func (e *MapExpression) Inverse() *MapExpression {
	return InverseExpr(e)
}

// Compose returns a new expression representing e ∘ rhs.
func (e *MapExpression) Compose(rhs *MapExpression) *MapExpression {
	return ComposeExpr(e, rhs)
}
