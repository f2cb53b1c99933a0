// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package bind allocates named placeholders for query values. A Binder is
scoped to one query-building session: it hands out unique placeholder names
for the values given to it and keeps the name to value mapping that the
execution layer passes to the database. Values never appear in SQL text,
only their placeholder tokens do.
*/
package bind

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrDuplicatePlaceholder is returned when a placeholder name is registered
// twice in one session. The monotonic counter makes this unreachable in
// practice but the registry still guards against it.
var ErrDuplicatePlaceholder = errors.New("duplicate placeholder name")

// TypeKind declares how a bound value is typed when it is substituted at
// execution time.
type TypeKind int

const (
	// Auto infers Int, String or their array forms from the value's
	// runtime shape.
	Auto TypeKind = iota
	Int
	String
	IntArray
	StringArray
)

func (k TypeKind) String() string {
	switch k {
	case Auto:
		return "auto"
	case Int:
		return "int"
	case String:
		return "string"
	case IntArray:
		return "int array"
	case StringArray:
		return "string array"
	}
	return "unknown"
}

// IsArray reports whether the kind binds a collection of scalars.
func (k TypeKind) IsArray() bool {
	return k == IntArray || k == StringArray
}

// BoundValue is one entry of the session's binding map.
type BoundValue struct {
	Value any
	Kind  TypeKind
}

// Param is a placeholder token returned by Bind. It is an opaque handle:
// embedding its token text in SQL is always safe and never requires
// quoting. Array params carry one placeholder name per element.
type Param struct {
	names []string
	kind  TypeKind
}

// Kind returns the declared type of the bound value.
func (p *Param) Kind() TypeKind {
	return p.kind
}

// Name returns the placeholder name of a scalar param, or the first element
// name of an array param.
func (p *Param) Name() string {
	if len(p.names) == 0 {
		return ""
	}
	return p.names[0]
}

// Names returns the placeholder names of every element of the param.
func (p *Param) Names() []string {
	names := make([]string, len(p.names))
	copy(names, p.names)
	return names
}

// Len returns the number of placeholders the param expands to.
func (p *Param) Len() int {
	return len(p.names)
}

// ValueSQL returns the token text to embed in SQL: "@name" for a scalar,
// or the comma separated element tokens for an array.
func (p *Param) ValueSQL() string {
	tokens := make([]string, len(p.names))
	for i, name := range p.names {
		tokens[i] = "@" + name
	}
	return strings.Join(tokens, ", ")
}

// placeholderPrefix is the prefix of every generated placeholder name.
const placeholderPrefix = "sqlexpr_"

// Binder allocates placeholder names for one query-building session.
// A Binder must not be shared between sessions; concurrent query
// construction needs one Binder per session.
type Binder struct {
	// count stores the next unused placeholder number.
	count int
	// values maps placeholder names to their bound values.
	values map[string]BoundValue
}

// NewBinder creates an empty Binder for a new query-building session.
func NewBinder() *Binder {
	return &Binder{values: map[string]BoundValue{}}
}

// Bind registers value under a fresh placeholder name and returns the
// token to embed in an expression. Array kinds allocate one placeholder per
// element; an empty collection yields a token with no placeholders, which
// the expression builder substitutes with a tautology.
func (b *Binder) Bind(value any, kind TypeKind) (*Param, error) {
	kind, err := resolveKind(value, kind)
	if err != nil {
		return nil, err
	}

	if !kind.IsArray() {
		name, err := b.register(value, kind)
		if err != nil {
			return nil, err
		}
		return &Param{names: []string{name}, kind: kind}, nil
	}

	elems, err := arrayElems(value, kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(elems))
	elemKind := Int
	if kind == StringArray {
		elemKind = String
	}
	for _, elem := range elems {
		name, err := b.register(elem, elemKind)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return &Param{names: names, kind: kind}, nil
}

// MustBind is the same as [Binder.Bind] except that it panics on error.
func (b *Binder) MustBind(value any, kind TypeKind) *Param {
	p, err := b.Bind(value, kind)
	if err != nil {
		panic(err)
	}
	return p
}

// register stores value under the next free placeholder name.
func (b *Binder) register(value any, kind TypeKind) (string, error) {
	name := placeholderPrefix + strconv.Itoa(b.count)
	if _, ok := b.values[name]; ok {
		return "", fmt.Errorf("%w: %q", ErrDuplicatePlaceholder, name)
	}
	b.count++
	b.values[name] = BoundValue{Value: value, Kind: kind}
	return name, nil
}

// BoundValues returns a copy of the session's binding map for the
// execution layer.
func (b *Binder) BoundValues() map[string]BoundValue {
	m := make(map[string]BoundValue, len(b.values))
	for name, bv := range b.values {
		m[name] = bv
	}
	return m
}

// Args returns the bound values as database/sql named arguments, ordered
// by placeholder name, ready to pass to QueryContext or ExecContext.
func (b *Binder) Args() []any {
	names := make([]string, 0, len(b.values))
	for name := range b.values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		// Numeric order, not lexical: sqlexpr_10 sorts after sqlexpr_9.
		ni, _ := strconv.Atoi(strings.TrimPrefix(names[i], placeholderPrefix))
		nj, _ := strconv.Atoi(strings.TrimPrefix(names[j], placeholderPrefix))
		return ni < nj
	})
	args := make([]any, 0, len(names))
	for _, name := range names {
		args = append(args, sql.Named(name, b.values[name].Value))
	}
	return args
}

// resolveKind checks the declared kind against the value's runtime shape,
// inferring the kind when Auto is given.
func resolveKind(value any, kind TypeKind) (TypeKind, error) {
	inferred, ok := inferKind(value)
	if kind == Auto {
		if !ok {
			return 0, fmt.Errorf("cannot bind value of type %T", value)
		}
		return inferred, nil
	}
	if !ok || inferred != kind {
		return 0, fmt.Errorf("cannot bind value of type %T as %s", value, kind)
	}
	return kind, nil
}

// inferKind maps the value's runtime shape to a binding kind.
func inferKind(value any) (TypeKind, bool) {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return Int, true
	case string:
		return String, true
	case []int, []int64:
		return IntArray, true
	case []string:
		return StringArray, true
	}
	return 0, false
}

// arrayElems flattens an array value into its elements.
func arrayElems(value any, kind TypeKind) ([]any, error) {
	var elems []any
	switch v := value.(type) {
	case []int:
		for _, e := range v {
			elems = append(elems, e)
		}
	case []int64:
		for _, e := range v {
			elems = append(elems, e)
		}
	case []string:
		for _, e := range v {
			elems = append(elems, e)
		}
	default:
		return nil, fmt.Errorf("cannot bind value of type %T as %s", value, kind)
	}
	return elems, nil
}

// likeEscapes lists the characters neutralized by EscapeLikeWildcards. The
// escape character itself must come first.
var likeEscapes = []string{`\`, `%`, `_`}

// EscapeLikeWildcards escapes the LIKE pattern metacharacters in value so
// that a pattern match treats them literally. Wildcard placement is left to
// the caller: wrap the escaped value in % or _ markers before binding.
func EscapeLikeWildcards(value string) string {
	for _, ch := range likeEscapes {
		value = strings.ReplaceAll(value, ch, `\`+ch)
	}
	return value
}
