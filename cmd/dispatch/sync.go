package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/keshon/dispatch/internal/commandsync"
)

var (
	dryRun    bool
	permsOnly bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publish application commands once and exit",
	Long: `Compare the built-in commands with the ones Discord has for the
configured scope and publish them when they differ.

With --dry-run nothing is published; the differences are printed.
With --permissions only the per-command role and user grants are pushed
to the commands already published in the guild.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the differences without publishing")
	syncCmd.Flags().BoolVar(&permsOnly, "permissions", false, "push command grants only (guild scope)")
	syncCmd.MarkFlagsMutuallyExclusive("dry-run", "permissions")
}

func runSync(c *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	ctx := c.Context()
	if err := a.bot.Open(ctx); err != nil {
		_ = a.bot.Close()
		return err
	}
	defer func() { _ = a.bot.Close() }()

	if permsOnly {
		n, err := a.bot.SyncPermissions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "permissions pushed for %d commands\n", n)
		return nil
	}

	var res commandsync.Result
	if dryRun {
		res, err = a.bot.Plan(ctx)
	} else {
		res, err = a.bot.Sync(ctx)
	}
	if err != nil {
		return err
	}
	printResult(c.OutOrStdout(), a.cfg.Scope(), res, dryRun)
	return nil
}

func printResult(w io.Writer, scope commandsync.Scope, res commandsync.Result, dry bool) {
	fmt.Fprintf(w, "scope:   %s\n", scope)
	fmt.Fprintf(w, "local:   %d commands (%s)\n", res.LocalCount, res.Local)
	fmt.Fprintf(w, "remote:  %d commands (%s)\n", res.RemoteCount, res.Remote)
	fmt.Fprintf(w, "changes: %s\n", res.Report)
	for _, name := range res.Report.Changed {
		fmt.Fprintf(w, "\n%s:\n%s", name, res.Report.Details[name])
	}
	switch {
	case res.Pushed:
		fmt.Fprintln(w, "published")
	case dry && !res.Report.Empty():
		fmt.Fprintln(w, "dry run, nothing published")
	}
}
