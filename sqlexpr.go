// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlexpr

import (
	"errors"
	"fmt"

	"github.com/canonical/sqlexpr/internal/bind"
	"github.com/canonical/sqlexpr/internal/expr"
)

// ErrUnboundValue is returned when a raw value is supplied where a
// placeholder token or expression was required. Values must go through a
// [Binder] before they can appear in an expression.
var ErrUnboundValue = errors.New("unbound value")

// ErrDuplicatePlaceholder is returned when a placeholder name collides
// within one binder session.
var ErrDuplicatePlaceholder = bind.ErrDuplicatePlaceholder

// Expression is an immutable node of the expression tree. Expressions are
// built with the [Builder] factories, composed with [Builder.AndX] and
// [Builder.OrX], and flattened to a SQL fragment with [Render].
type Expression = expr.Node

// Param is a placeholder token bound to a value by a [Binder].
type Param = bind.Param

// Binder allocates placeholder tokens for the values of one
// query-building session. See [NewBinder].
type Binder = bind.Binder

// TypeKind declares how a bound value is typed at execution time.
type TypeKind = bind.TypeKind

const (
	TypeAuto        = bind.Auto
	TypeInt         = bind.Int
	TypeString      = bind.String
	TypeIntArray    = bind.IntArray
	TypeStringArray = bind.StringArray
)

// NewBinder creates an empty [Binder] for a new query-building session.
// Binders must not be shared between concurrently built queries.
func NewBinder() *Binder {
	return bind.NewBinder()
}

// EscapeLikeWildcards escapes the LIKE metacharacters % and _ (and the
// escape character itself) in value so a pattern match treats them
// literally. The builder never escapes LIKE values on its own: the caller
// controls wildcard placement, so escaping is an explicit separate step
// before binding.
func EscapeLikeWildcards(value string) string {
	return bind.EscapeLikeWildcards(value)
}

// Value is the capability required of the right-hand side of a comparison.
// It is satisfied by [Param] and by the column references returned from
// [Builder.Column]; raw Go values do not satisfy it, which keeps unbound
// literals out of the SQL text by construction.
type Value interface {
	// ValueSQL returns the token text to embed in the fragment.
	ValueSQL() string
}

// columnValue is a pre-quoted identifier standing in a value position.
type columnValue struct {
	sql string
	err error
}

func (c columnValue) ValueSQL() string {
	return c.sql
}

// Builder constructs expression nodes. Every raw field name passed to a
// factory is quoted through the injected [Dialect] before it reaches a
// node; there is no code path that renders an unquoted identifier.
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a [Builder] for the given dialect.
func NewBuilder(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// Column returns a reference to a column for use in a value position, for
// example to compare two columns: b.Eq("p.address_id", b.Column("a.id")).
func (b *Builder) Column(field string) Value {
	id, err := quoteIdentifier(b.dialect, field)
	if err != nil {
		return columnValue{err: fmt.Errorf("cannot reference column %q: %w", field, err)}
	}
	return columnValue{sql: id.SQL()}
}

// Eq builds field = value.
func (b *Builder) Eq(field string, v Value) Expression {
	return b.compare(expr.OpEq, field, v)
}

// Neq builds field != value.
func (b *Builder) Neq(field string, v Value) Expression {
	return b.compare(expr.OpNeq, field, v)
}

// Lt builds field < value.
func (b *Builder) Lt(field string, v Value) Expression {
	return b.compare(expr.OpLt, field, v)
}

// Lte builds field <= value.
func (b *Builder) Lte(field string, v Value) Expression {
	return b.compare(expr.OpLte, field, v)
}

// Gt builds field > value.
func (b *Builder) Gt(field string, v Value) Expression {
	return b.compare(expr.OpGt, field, v)
}

// Gte builds field >= value.
func (b *Builder) Gte(field string, v Value) Expression {
	return b.compare(expr.OpGte, field, v)
}

// IsNull builds field IS NULL.
func (b *Builder) IsNull(field string) Expression {
	return b.nullCheck(expr.OpIsNull, field)
}

// IsNotNull builds field IS NOT NULL.
func (b *Builder) IsNotNull(field string) Expression {
	return b.nullCheck(expr.OpIsNotNull, field)
}

// Like builds field LIKE value. The builder does not escape the bound
// pattern: pass the value through [EscapeLikeWildcards] and add wildcard
// markers before binding.
func (b *Builder) Like(field string, v Value) Expression {
	return b.compare(expr.OpLike, field, v)
}

// NotLike builds field NOT LIKE value.
func (b *Builder) NotLike(field string, v Value) Expression {
	return b.compare(expr.OpNotLike, field, v)
}

// In builds field IN (...) over an array-kinded param. An empty array
// renders the tautology 1 = 0: an IN over the empty set matches nothing.
func (b *Builder) In(field string, p *Param) Expression {
	return b.inList(expr.OpIn, field, p)
}

// NotIn builds field NOT IN (...) over an array-kinded param. An empty
// array renders the tautology 1 = 1: a NOT IN over the empty set matches
// every row.
func (b *Builder) NotIn(field string, p *Param) Expression {
	return b.inList(expr.OpNotIn, field, p)
}

// InSet builds FIND_IN_SET(value, field). Only scalar params are accepted.
func (b *Builder) InSet(field string, p *Param) Expression {
	return b.scalarCompare(expr.OpInSet, field, p)
}

// BitAnd builds field & value. Only scalar params are accepted.
func (b *Builder) BitAnd(field string, p *Param) Expression {
	return b.scalarCompare(expr.OpBitAnd, field, p)
}

// AndX joins the given parts with AND. Each part is an [Expression] or a
// pre-rendered fragment string; anything else fails with
// [ErrUnboundValue] when the result is rendered. Zero parts render as the
// empty fragment and a single part renders as itself.
func (b *Builder) AndX(parts ...any) Expression {
	return junctionOf(expr.JunctionAnd, parts)
}

// OrX joins the given parts with OR. See [Builder.AndX].
func (b *Builder) OrX(parts ...any) Expression {
	return junctionOf(expr.JunctionOr, parts)
}

// Min builds MIN(field), aliased if alias is not empty.
func (b *Builder) Min(field, alias string) Expression {
	return b.aggregate(expr.FuncMin, field, alias, false)
}

// Max builds MAX(field), aliased if alias is not empty.
func (b *Builder) Max(field, alias string) Expression {
	return b.aggregate(expr.FuncMax, field, alias, false)
}

// Avg builds AVG(field), aliased if alias is not empty.
func (b *Builder) Avg(field, alias string) Expression {
	return b.aggregate(expr.FuncAvg, field, alias, false)
}

// Sum builds SUM(field), aliased if alias is not empty.
func (b *Builder) Sum(field, alias string) Expression {
	return b.aggregate(expr.FuncSum, field, alias, false)
}

// Count builds COUNT(field), aliased if alias is not empty. The field "*"
// is passed through unquoted.
func (b *Builder) Count(field, alias string) Expression {
	return b.aggregate(expr.FuncCount, field, alias, true)
}

// Raw wraps a pre-rendered fragment so it can be composed with built
// expressions. The fragment is passed through verbatim: the caller is
// responsible for its quoting and binding.
func Raw(fragment string) Expression {
	return expr.NewBypass(fragment)
}

// Render flattens an expression tree into a SQL fragment. Errors deferred
// from construction, such as an invalid identifier or an unbound value,
// are returned here.
func Render(e Expression) (string, error) {
	return expr.Render(e)
}

func (b *Builder) compare(op expr.Operator, field string, v Value) Expression {
	id, err := quoteIdentifier(b.dialect, field)
	if err != nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression: %w", op, err))
	}
	if err := checkValue(v); err != nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression for %q: %w", op, field, err))
	}
	return expr.Compare(op, id, v.ValueSQL())
}

func (b *Builder) nullCheck(op expr.Operator, field string) Expression {
	id, err := quoteIdentifier(b.dialect, field)
	if err != nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression: %w", op, err))
	}
	return expr.Compare(op, id, "")
}

func (b *Builder) inList(op expr.Operator, field string, p *Param) Expression {
	id, err := quoteIdentifier(b.dialect, field)
	if err != nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression: %w", op, err))
	}
	if p == nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression for %q: %w", op, field, ErrUnboundValue))
	}
	if !p.Kind().IsArray() {
		return expr.Invalid(fmt.Errorf("cannot build %q expression for %q: requires an array parameter, got %s", op, field, p.Kind()))
	}
	if p.Len() == 0 {
		if op == expr.OpIn {
			return expr.NewBypass("1 = 0")
		}
		return expr.NewBypass("1 = 1")
	}
	return expr.Compare(op, id, "("+p.ValueSQL()+")")
}

func (b *Builder) scalarCompare(op expr.Operator, field string, p *Param) Expression {
	id, err := quoteIdentifier(b.dialect, field)
	if err != nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression: %w", op, err))
	}
	if p == nil {
		return expr.Invalid(fmt.Errorf("cannot build %q expression for %q: %w", op, field, ErrUnboundValue))
	}
	if p.Kind().IsArray() {
		return expr.Invalid(fmt.Errorf("cannot build %q expression for %q: requires a scalar parameter, got %s", op, field, p.Kind()))
	}
	return expr.Compare(op, id, p.ValueSQL())
}

func (b *Builder) aggregate(fn expr.AggFunc, field, alias string, allowStar bool) Expression {
	var operand string
	if field == "*" {
		if !allowStar {
			return expr.Invalid(fmt.Errorf("cannot build %s expression: %w: * is only valid in COUNT", fn, ErrInvalidIdentifier))
		}
		operand = "*"
	} else {
		id, err := quoteIdentifier(b.dialect, field)
		if err != nil {
			return expr.Invalid(fmt.Errorf("cannot build %s expression: %w", fn, err))
		}
		operand = id.SQL()
	}
	var aliasSQL string
	if alias != "" {
		var err error
		aliasSQL, err = b.dialect.QuoteIdentifier(alias)
		if err != nil {
			return expr.Invalid(fmt.Errorf("cannot build %s expression: %w", fn, err))
		}
	}
	return expr.NewAggregate(fn, operand, aliasSQL)
}

func junctionOf(kind expr.JunctionKind, parts []any) Expression {
	children := make([]expr.Node, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case expr.Node:
			children = append(children, p)
		case string:
			children = append(children, expr.NewBypass(p))
		default:
			children = append(children, expr.Invalid(
				fmt.Errorf("cannot use %T in %s junction: %w", part, kind, ErrUnboundValue)))
		}
	}
	return expr.NewJunction(kind, children)
}

// checkValue guards the weakly typed corners the type system cannot close:
// a nil interface or a nil *Param slipped into a value position, or a
// column reference whose quoting failed.
func checkValue(v Value) error {
	if v == nil {
		return ErrUnboundValue
	}
	switch p := v.(type) {
	case *bind.Param:
		if p == nil {
			return ErrUnboundValue
		}
		if p.Kind().IsArray() {
			return fmt.Errorf("requires a scalar parameter, got %s", p.Kind())
		}
	case columnValue:
		if p.err != nil {
			return p.err
		}
	}
	return nil
}
