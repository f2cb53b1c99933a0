// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package expr

import (
	"fmt"
	"strings"
)

// Render flattens an expression tree into a SQL fragment. It is a pure
// function of the tree: identifiers and placeholder tokens were resolved at
// construction time and no binder state is consulted. The first deferred
// construction error found in the tree is returned.
func Render(n Node) (string, error) {
	return render(n, false)
}

// render walks the tree. nested reports whether n sits inside another
// expression, which decides parenthesization of junctions.
func render(n Node, nested bool) (string, error) {
	switch e := n.(type) {
	case *invalid:
		return "", e.err
	case *bypass:
		return e.chunk, nil
	case *comparison:
		return e.sql(), nil
	case *aggregate:
		return e.sql(), nil
	case *junction:
		var parts []string
		for _, child := range e.children {
			s, err := render(child, true)
			if err != nil {
				return "", err
			}
			// A degenerate empty child contributes nothing rather than
			// leaving a dangling AND/OR.
			if s == "" {
				continue
			}
			parts = append(parts, s)
		}
		switch len(parts) {
		case 0:
			return "", nil
		case 1:
			return parts[0], nil
		}
		joined := strings.Join(parts, " "+string(e.kind)+" ")
		if nested {
			return "(" + joined + ")", nil
		}
		return joined, nil
	default:
		return "", fmt.Errorf("internal error: unsupported expression node type %T", n)
	}
}
