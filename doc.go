// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package sqlexpr builds dialect-correct SQL condition fragments for use
inside WHERE, JOIN and SELECT clauses. It guarantees two things by
construction: every identifier is quoted for the target dialect before it
reaches the generated SQL, and values never appear in the SQL text at all,
only the named placeholder tokens allocated for them.

# Basics

A query-building session needs a [Builder], configured with the dialect of
the target database, and a [Binder], which owns the placeholder map for
that session:

	b := sqlexpr.NewBuilder(sqlexpr.MySQLDialect{})
	binder := sqlexpr.NewBinder()

Values are bound first, and the resulting tokens are passed to the builder
factories along with raw field names:

	uid, err := binder.Bind(42, sqlexpr.TypeInt)
	if err != nil {
		...
	}
	cond := b.Eq("p.uid", uid)
	sql, err := sqlexpr.Render(cond)
	// sql is `p`.`uid` = @sqlexpr_0

The binder's final map, available through Args or BoundValues, is handed to
the execution layer so that the database performs the parameter
substitution. The fragment itself never contains a value.

# Composition

Expressions nest through the AndX and OrX junctions. A nested junction
with two or more children is parenthesized to preserve grouping:

	cond := b.AndX(
		b.Eq("name", name),
		b.OrX(b.Lt("age", young), b.Gt("age", old)),
	)
	// `name` = @sqlexpr_0 AND (`age` < @sqlexpr_1 OR `age` > @sqlexpr_2)

Junction arguments may also be pre-rendered fragment strings. Anything
else, in particular a raw unbound Go value, causes [Render] to fail with
[ErrUnboundValue].

# LIKE patterns

The builder never rewrites bound LIKE patterns, because wildcard placement
belongs to the caller. Escape the user data explicitly, then place the
wildcards, then bind:

	pattern := "%" + sqlexpr.EscapeLikeWildcards(userInput) + "%"
	p, err := binder.Bind(pattern, sqlexpr.TypeString)
	cond := b.Like("name", p)

# Dialects

Identifier quoting is a strategy injected through the [Dialect] interface.
[MySQLDialect], [SQLiteDialect] and [PostgresDialect] are provided; a
custom dialect only has to quote a single identifier segment, the package
handles splitting qualified names.
*/
package sqlexpr
