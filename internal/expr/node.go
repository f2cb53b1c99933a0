// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"fmt"
	"strings"
)

// A Node represents one fragment of a SQL condition or select expression.
// The expression tree is built from comparisons, junctions, aggregate calls
// and verbatim fragments, and is flattened to SQL by Render.
type Node interface {
	// String returns a string representation of the node for debugging and
	// testing purposes.
	String() string

	// node is a marker method.
	node()
}

// Operator is a comparison operator understood by the renderer.
type Operator string

const (
	OpEq        Operator = "="
	OpNeq       Operator = "!="
	OpLt        Operator = "<"
	OpLte       Operator = "<="
	OpGt        Operator = ">"
	OpGte       Operator = ">="
	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
	OpLike      Operator = "LIKE"
	OpNotLike   Operator = "NOT LIKE"
	OpIn        Operator = "IN"
	OpNotIn     Operator = "NOT IN"
	OpInSet     Operator = "FIND_IN_SET"
	OpBitAnd    Operator = "&"
)

// JunctionKind selects the keyword a junction joins its children with.
type JunctionKind string

const (
	JunctionAnd JunctionKind = "AND"
	JunctionOr  JunctionKind = "OR"
)

// AggFunc is a SQL aggregate function name.
type AggFunc string

const (
	FuncMin   AggFunc = "MIN"
	FuncMax   AggFunc = "MAX"
	FuncAvg   AggFunc = "AVG"
	FuncSum   AggFunc = "SUM"
	FuncCount AggFunc = "COUNT"
)

// Ident is an identifier that has already been quoted for the target
// dialect. Node constructors only accept Ident values, never raw names, so
// an unquoted identifier cannot reach the renderer.
type Ident struct {
	sql string
}

// NewIdent wraps an already-quoted identifier. Callers are responsible for
// quoting via the dialect before construction.
func NewIdent(quoted string) Ident {
	return Ident{sql: quoted}
}

// SQL returns the quoted identifier text.
func (id Ident) SQL() string {
	return id.sql
}

// ValueSQL allows a quoted identifier to stand in a value position, for
// column-to-column comparisons.
func (id Ident) ValueSQL() string {
	return id.sql
}

// comparison is a single binary or unary predicate. The left side is always
// a quoted identifier and the right side, when present, is an opaque
// placeholder token or pre-quoted identifier reference resolved at
// construction time.
type comparison struct {
	op    Operator
	left  Ident
	right string
}

// Compare builds a comparison node. For the null-check operators right must
// be empty; for IN and NOT IN right must already include the parentheses.
func Compare(op Operator, left Ident, right string) Node {
	return &comparison{op: op, left: left, right: right}
}

// sql renders the comparison. Comparisons never fail to render: anything
// invalid is rejected at construction.
func (c *comparison) sql() string {
	switch c.op {
	case OpIsNull, OpIsNotNull:
		return c.left.sql + " " + string(c.op)
	case OpInSet:
		return "FIND_IN_SET(" + c.right + ", " + c.left.sql + ")"
	default:
		return c.left.sql + " " + string(c.op) + " " + c.right
	}
}

func (c *comparison) String() string {
	return "Compare[" + c.sql() + "]"
}

// Marker function for Node.
func (c *comparison) node() {}

// junction joins an ordered sequence of child expressions with AND or OR.
// Children are never flattened or deduplicated.
type junction struct {
	kind     JunctionKind
	children []Node
}

// NewJunction builds a junction node over the given children. Zero or one
// children is degenerate but valid: the junction renders as the empty
// string or as the single child.
func NewJunction(kind JunctionKind, children []Node) Node {
	return &junction{kind: kind, children: children}
}

func (j *junction) String() string {
	parts := make([]string, len(j.children))
	for i, child := range j.children {
		parts[i] = child.String()
	}
	return fmt.Sprintf("Junction[%s: %s]", j.kind, strings.Join(parts, ", "))
}

// Marker function for Node.
func (j *junction) node() {}

// aggregate is an aggregate function call with an optional alias. Both the
// operand and the alias arrive already quoted.
type aggregate struct {
	fn      AggFunc
	operand string
	alias   string
}

// NewAggregate builds an aggregate call node. An empty alias means no AS
// clause is rendered.
func NewAggregate(fn AggFunc, operand, alias string) Node {
	return &aggregate{fn: fn, operand: operand, alias: alias}
}

func (a *aggregate) sql() string {
	s := string(a.fn) + "(" + a.operand + ")"
	if a.alias != "" {
		s += " AS " + a.alias
	}
	return s
}

func (a *aggregate) String() string {
	return "Agg[" + a.sql() + "]"
}

// Marker function for Node.
func (a *aggregate) node() {}

// bypass is a fragment that is not touched by the builder and is passed to
// the surrounding query verbatim.
type bypass struct {
	chunk string
}

// NewBypass wraps a pre-rendered fragment.
func NewBypass(chunk string) Node {
	return &bypass{chunk: chunk}
}

func (b *bypass) String() string {
	return "Bypass[" + b.chunk + "]"
}

// Marker function for Node.
func (b *bypass) node() {}

// invalid records a construction error. Builder factories return an invalid
// node instead of an error so that expressions compose without error
// plumbing; the error surfaces from Render.
type invalid struct {
	err error
}

// Invalid wraps a construction error into a node.
func Invalid(err error) Node {
	return &invalid{err: err}
}

func (i *invalid) String() string {
	return "Invalid[" + i.err.Error() + "]"
}

// Marker function for Node.
func (i *invalid) node() {}
