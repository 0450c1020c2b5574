package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/takecare/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "takecare",
		Short: "TakeCare API Server",
		Long:  `TakeCare keeps shared care lists in sync: it evaluates daily task recurrence, reconciles list state against the document store, and maintains the reminder set for owners and recipients.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
