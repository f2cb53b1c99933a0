// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/canonical/sqlexpr"
)

// dialects maps the --dialect flag values to their implementations.
var dialects = map[string]sqlexpr.Dialect{
	"mysql":    sqlexpr.MySQLDialect{},
	"sqlite":   sqlexpr.SQLiteDialect{},
	"postgres": sqlexpr.PostgresDialect{},
}

func dialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var dialectName string

	cmd := &cobra.Command{
		Use:   "render <filter-file>",
		Short: "Render a filter spec to a SQL fragment and its parameters",
		Long: `Render reads a filter spec (YAML, or JSON for files ending in .json),
builds the condition tree for the chosen dialect and prints the SQL
fragment followed by the bound parameters. The fragment is meant to be
spliced into a WHERE or JOIN clause by the surrounding query builder; the
parameters are passed to the database at execution time.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, dialectName, args[0])
		},
	}

	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "mysql",
		fmt.Sprintf("target dialect %v", dialectNames()))

	return cmd
}

func runRender(cmd *cobra.Command, dialectName, path string) error {
	dialect, ok := dialects[dialectName]
	if !ok {
		return fmt.Errorf("unknown dialect %q: must be one of %v", dialectName, dialectNames())
	}

	spec, err := LoadFilterSpec(path)
	if err != nil {
		return err
	}

	b := sqlexpr.NewBuilder(dialect)
	binder := sqlexpr.NewBinder()
	e, err := BuildExpression(b, binder, spec)
	if err != nil {
		return err
	}
	fragment, err := sqlexpr.Render(e)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, fragment)

	args := binder.Args()
	if len(args) == 0 {
		return nil
	}
	values := binder.BoundValues()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Parameters:")
	for _, arg := range args {
		named := arg.(sql.NamedArg)
		fmt.Fprintf(out, "  %s = %v (%s)\n", named.Name, named.Value, values[named.Name].Kind)
	}
	return nil
}
