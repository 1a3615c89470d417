package main

import (
	"fmt"

	"go-hrms/internal/leave"

	"github.com/spf13/cobra"
)

func newWorkdaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workdays START END",
		Short: "Count Monday-Friday days between two dates, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := leave.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			end, err := leave.ParseDate(args[1])
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}

			days, err := leave.BusinessDays(start, end)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), days)
			return nil
		},
	}
}
