package main

import (
	"fmt"
	"os"

	"github.com/weekwise/weekwise/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "weekwise-configure",
		Short: "Configuration tool for the Weekwise API",
		Long:  "CLI tool for inspecting configuration and probing backing services",
	}

	rootCmd.AddCommand(commands.NewShowCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
