package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keshon/dispatch/internal/commands"
	"github.com/keshon/dispatch/internal/docs"
	"github.com/keshon/dispatch/pkg/cmd"
)

var (
	readmeTemplate string
	readmeOut      string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Regenerate README.md from the built-in commands",
	Long: `Render the README template with the current command list.

The template receives the sections as {{ .CommandSections }}.`,
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().StringVar(&readmeTemplate, "template", "README.md.tmpl", "README template")
	docsCmd.Flags().StringVar(&readmeOut, "out", "README.md", "output file")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(c *cobra.Command, _ []string) error {
	registry := cmd.NewRegistry()
	if err := commands.Register(registry, zap.NewNop()); err != nil {
		return err
	}
	if err := docs.Update(registry, readmeTemplate, readmeOut); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "%s updated with %d commands\n", readmeOut, registry.Len())
	return nil
}
