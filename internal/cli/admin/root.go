// Package admin holds the syllabiqd command tree.
package admin

import "github.com/spf13/cobra"

// NewRootCmd builds the root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "syllabiqd",
		Short:         "Curriculum-scoped academic query answering service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newReindexCmd())
	root.AddCommand(newAPIKeyCmd())
	return root
}
