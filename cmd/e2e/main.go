package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is the application version (set during build).
	Version = "dev"

	// Commit is the git commit hash (set during build).
	Commit = "unknown"

	// BuildDate is the build date (set during build).
	BuildDate = "unknown"
)

var (
	configFile   string
	envFiles     []string
	outputFormat string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "e2e",
		Short:         "Browser end-to-end suite for login, lockout and rate limiting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, ".env files to load (missing files are skipped)")
	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")

	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newSUTCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "e2e %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
