package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "leavectl",
	Short:        "Leave request tooling",
	Long:         `Offline helpers for leave requests: working-day counts and exports.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	rootCmd.AddCommand(newWorkdaysCmd())
	rootCmd.AddCommand(newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
