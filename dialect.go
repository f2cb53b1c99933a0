// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package sqlexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/sqlexpr/internal/expr"
)

// ErrInvalidIdentifier is returned when a raw identifier cannot be safely
// quoted for the target dialect.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Dialect quotes identifiers for one database platform. The quote character
// and escaping rules vary by target database, so the dialect is injected
// into the [Builder] rather than fixed.
type Dialect interface {
	// QuoteIdentifier quotes a single identifier segment: a bare table,
	// column or alias name without any qualifying dots. It fails with an
	// error wrapping [ErrInvalidIdentifier] if the segment cannot be
	// safely quoted.
	QuoteIdentifier(segment string) (string, error)
}

// MySQLDialect quotes identifiers with backticks.
type MySQLDialect struct{}

func (MySQLDialect) QuoteIdentifier(segment string) (string, error) {
	return quoteSegment(segment, '`')
}

// SQLiteDialect quotes identifiers with double quotes.
type SQLiteDialect struct{}

func (SQLiteDialect) QuoteIdentifier(segment string) (string, error) {
	return quoteSegment(segment, '"')
}

// PostgresDialect quotes identifiers with double quotes.
type PostgresDialect struct{}

func (PostgresDialect) QuoteIdentifier(segment string) (string, error) {
	return quoteSegment(segment, '"')
}

// quoteSegment wraps one identifier segment in the dialect's quote
// character. A segment containing the quote character itself is rejected
// rather than escaped: such a name is a malformed input and a known
// injection vector.
func quoteSegment(segment string, quote rune) (string, error) {
	if segment == "" {
		return "", fmt.Errorf("%w: empty identifier segment", ErrInvalidIdentifier)
	}
	if strings.ContainsRune(segment, quote) {
		return "", fmt.Errorf("%w: %q contains the quote character %q", ErrInvalidIdentifier, segment, quote)
	}
	if strings.ContainsRune(segment, 0) {
		return "", fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidIdentifier, segment)
	}
	return string(quote) + segment + string(quote), nil
}

// quoteIdentifier quotes a possibly qualified name. Dotted names such as
// "table.column" or "alias.column" are split on the separator and each
// segment quoted independently, never as one token.
func quoteIdentifier(d Dialect, raw string) (expr.Ident, error) {
	segments := strings.Split(raw, ".")
	quoted := make([]string, len(segments))
	for i, segment := range segments {
		q, err := d.QuoteIdentifier(segment)
		if err != nil {
			return expr.Ident{}, err
		}
		quoted[i] = q
	}
	return expr.NewIdent(strings.Join(quoted, ".")), nil
}
