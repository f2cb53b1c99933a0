// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/fastjson"
	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlexpr"
)

// FilterSpec is the declarative form of a condition tree. It is decoded
// from YAML or JSON and handed to BuildExpression.
type FilterSpec struct {
	Junction   string      `yaml:"junction" json:"junction"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// Condition is one entry of a FilterSpec: either a comparison (field + op),
// a verbatim fragment, or a nested junction.
type Condition struct {
	Field    string `yaml:"field" json:"field"`
	Op       string `yaml:"op" json:"op"`
	Value    any    `yaml:"value" json:"value"`
	Values   []any  `yaml:"values" json:"values"`
	Fragment string `yaml:"fragment" json:"fragment"`

	// Nested junction.
	Junction   string      `yaml:"junction" json:"junction"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// LoadFilterSpec reads and decodes a filter spec file. The format is
// chosen by extension: .json is parsed as JSON, everything else as YAML.
func LoadFilterSpec(path string) (FilterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FilterSpec{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSONFilter(data)
	}
	return parseYAMLFilter(data)
}

func parseYAMLFilter(data []byte) (FilterSpec, error) {
	var spec FilterSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return FilterSpec{}, fmt.Errorf("cannot parse filter spec: %w", err)
	}
	return spec, nil
}

func parseJSONFilter(data []byte) (FilterSpec, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return FilterSpec{}, fmt.Errorf("cannot parse filter spec: %w", err)
	}
	return jsonFilter(v)
}

func jsonFilter(v *fastjson.Value) (FilterSpec, error) {
	spec := FilterSpec{Junction: string(v.GetStringBytes("junction"))}
	for _, cv := range v.GetArray("conditions") {
		cond, err := jsonCondition(cv)
		if err != nil {
			return FilterSpec{}, err
		}
		spec.Conditions = append(spec.Conditions, cond)
	}
	return spec, nil
}

func jsonCondition(v *fastjson.Value) (Condition, error) {
	cond := Condition{
		Field:    string(v.GetStringBytes("field")),
		Op:       string(v.GetStringBytes("op")),
		Fragment: string(v.GetStringBytes("fragment")),
		Junction: string(v.GetStringBytes("junction")),
	}
	if val := v.Get("value"); val != nil {
		scalar, err := jsonScalar(val)
		if err != nil {
			return Condition{}, err
		}
		cond.Value = scalar
	}
	for _, ev := range v.GetArray("values") {
		scalar, err := jsonScalar(ev)
		if err != nil {
			return Condition{}, err
		}
		cond.Values = append(cond.Values, scalar)
	}
	for _, cv := range v.GetArray("conditions") {
		child, err := jsonCondition(cv)
		if err != nil {
			return Condition{}, err
		}
		cond.Conditions = append(cond.Conditions, child)
	}
	return cond, nil
}

func jsonScalar(v *fastjson.Value) (any, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeNumber:
		i, err := v.Int()
		if err != nil {
			return nil, fmt.Errorf("only integer and string values can be bound, got %s", v)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("only integer and string values can be bound, got %s", v.Type())
	}
}

// BuildExpression turns a decoded filter spec into an expression, binding
// every value through the given binder.
func BuildExpression(b *sqlexpr.Builder, binder *sqlexpr.Binder, spec FilterSpec) (sqlexpr.Expression, error) {
	kind := strings.ToLower(spec.Junction)
	if kind == "" {
		kind = "and"
	}
	if kind != "and" && kind != "or" {
		return nil, fmt.Errorf("unknown junction %q: must be \"and\" or \"or\"", spec.Junction)
	}

	parts := make([]any, 0, len(spec.Conditions))
	for i, cond := range spec.Conditions {
		e, err := buildCondition(b, binder, cond)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		parts = append(parts, e)
	}
	if kind == "or" {
		return b.OrX(parts...), nil
	}
	return b.AndX(parts...), nil
}

func buildCondition(b *sqlexpr.Builder, binder *sqlexpr.Binder, cond Condition) (sqlexpr.Expression, error) {
	switch {
	case cond.Fragment != "":
		return sqlexpr.Raw(cond.Fragment), nil
	case cond.Junction != "" || len(cond.Conditions) > 0:
		return BuildExpression(b, binder, FilterSpec{Junction: cond.Junction, Conditions: cond.Conditions})
	}

	if cond.Field == "" {
		return nil, fmt.Errorf("condition needs a field, a fragment or a nested junction")
	}

	switch strings.ToLower(cond.Op) {
	case "is_null":
		return b.IsNull(cond.Field), nil
	case "is_not_null":
		return b.IsNotNull(cond.Field), nil
	case "in", "not_in":
		p, err := bindValues(binder, cond.Values)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", cond.Field, err)
		}
		if strings.ToLower(cond.Op) == "in" {
			return b.In(cond.Field, p), nil
		}
		return b.NotIn(cond.Field, p), nil
	}

	p, err := binder.Bind(cond.Value, sqlexpr.TypeAuto)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", cond.Field, err)
	}
	switch strings.ToLower(cond.Op) {
	case "eq":
		return b.Eq(cond.Field, p), nil
	case "neq":
		return b.Neq(cond.Field, p), nil
	case "lt":
		return b.Lt(cond.Field, p), nil
	case "lte":
		return b.Lte(cond.Field, p), nil
	case "gt":
		return b.Gt(cond.Field, p), nil
	case "gte":
		return b.Gte(cond.Field, p), nil
	case "like":
		return b.Like(cond.Field, p), nil
	case "not_like":
		return b.NotLike(cond.Field, p), nil
	case "in_set":
		return b.InSet(cond.Field, p), nil
	case "bit_and":
		return b.BitAnd(cond.Field, p), nil
	}
	return nil, fmt.Errorf("field %q: unknown operator %q", cond.Field, cond.Op)
}

// bindValues binds a homogeneous value list as an array parameter.
func bindValues(binder *sqlexpr.Binder, values []any) (*sqlexpr.Param, error) {
	ints := make([]int64, 0, len(values))
	strs := make([]string, 0, len(values))
	for _, v := range values {
		switch e := v.(type) {
		case int:
			ints = append(ints, int64(e))
		case int64:
			ints = append(ints, e)
		case string:
			strs = append(strs, e)
		default:
			return nil, fmt.Errorf("cannot bind list value of type %T", v)
		}
	}
	if len(ints) > 0 && len(strs) > 0 {
		return nil, fmt.Errorf("list values must be all integers or all strings")
	}
	if len(strs) > 0 {
		return binder.Bind(strs, sqlexpr.TypeStringArray)
	}
	return binder.Bind(ints, sqlexpr.TypeIntArray)
}
