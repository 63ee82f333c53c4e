// Command dispatch runs the bot and manages its application commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFiles []string

var rootCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Discord bot with synced slash commands",
	Long: `dispatch connects to Discord, publishes its application commands when
they differ from what Discord has, and routes interactions to them.

Without a subcommand it behaves like "dispatch run".`,
	SilenceUsage: true,
	RunE:         runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect and serve commands until interrupted",
	RunE:  runBot,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.AddCommand(runCmd, syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
