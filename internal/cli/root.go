// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the sqlexpr CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlexpr",
		Short: "Render safe SQL condition fragments from declarative filter specs",
		Long: `sqlexpr renders dialect-correct SQL condition fragments from a YAML or
JSON filter spec. Identifiers are quoted for the chosen dialect and values
are bound to named placeholders, never interpolated into the SQL text.`,
	}

	cmd.AddCommand(NewRenderCommand())

	return cmd
}
