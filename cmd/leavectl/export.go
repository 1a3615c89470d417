package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-hrms/internal/app"
	"go-hrms/internal/config"
	"go-hrms/internal/domain"
	"go-hrms/internal/leave"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type exportOptions struct {
	companyID string
	userID    string
	format    string
	out       string
	filter    leave.ListFilter
}

func newExportCmd() *cobra.Command {
	opts := exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the leave requests a user can see",
		Long: `Export renders the leave requests visible to --user in --company, the same
rows the API export returns for that user, and writes the file to --out.
When --out is a directory the generated file name is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.companyID, "company", "", "company id")
	flags.StringVar(&opts.userID, "user", "", "id of the user the export runs as")
	flags.StringVar(&opts.format, "format", leave.FormatCSV, "csv or xlsx")
	flags.StringVar(&opts.out, "out", "", "output file or directory; defaults to the generated name in the working directory")
	flags.StringVar(&opts.filter.Status, "status", "", "only this status")
	flags.StringVar(&opts.filter.LeaveType, "type", "", "only this leave type")
	flags.StringVar(&opts.filter.From, "from", "", "leaves ending on or after YYYY-MM-DD")
	flags.StringVar(&opts.filter.To, "to", "", "leaves starting on or before YYYY-MM-DD")
	flags.StringVarP(&opts.filter.Search, "search", "q", "", "text in reason or employee name")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions) error {
	if opts.format != leave.FormatCSV && opts.format != leave.FormatXLSX {
		return errors.New("format must be csv or xlsx")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	defer logger.Sync()

	infra, err := app.ConnectDatabase(cfg)
	if err != nil {
		return err
	}
	defer infra.Close()

	service, err := app.LeaveService(cfg, infra, logger)
	if err != nil {
		return err
	}

	actor := domain.Actor{UserID: opts.userID, CompanyID: opts.companyID}
	file, err := service.Export(cmd.Context(), actor, opts.filter, opts.format)
	if err != nil {
		return err
	}

	path := opts.out
	if path == "" {
		path = file.Filename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, file.Filename)
	}
	if err := os.WriteFile(path, file.Content, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d rows)\n", path, file.Rows)
	return nil
}
