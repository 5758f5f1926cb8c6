package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hanamahes78/sshsift/internal/config"
	"github.com/hanamahes78/sshsift/internal/db"
	"github.com/hanamahes78/sshsift/internal/exporter"
	"github.com/hanamahes78/sshsift/internal/store"
	"github.com/spf13/cobra"
)

func exportCmd(cfgPath *string) *cobra.Command {
	var format string
	var outPath string
	var category string
	var limit int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored SSH events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.RequireDB(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			dbConn, err := db.Open(ctx, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			if err := db.ApplyMigrations(ctx, dbConn); err != nil {
				return err
			}

			st := store.New(dbConn)
			events, err := st.ListSSHEvents(ctx, store.EventFilter{
				Category: category,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			var b []byte
			switch format {
			case "json":
				b, _, err = exporter.ExportJSON(events)
			case "csv":
				b, _, err = exporter.ExportCSV(events)
			default:
				return fmt.Errorf("unknown format %q (use json|csv)", format)
			}
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				_, _ = os.Stdout.Write(b)
				return nil
			}
			return os.WriteFile(outPath, b, 0644)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "export format: json|csv")
	cmd.Flags().StringVar(&outPath, "out", "-", "output path (or - for stdout)")
	cmd.Flags().StringVar(&category, "category", "", "only this category (login|failed_connection|opened_connection)")
	cmd.Flags().IntVar(&limit, "limit", 10000, "max events")
	return cmd
}
