package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hanamahes78/sshsift/internal/config"
	"github.com/hanamahes78/sshsift/internal/db"
	"github.com/hanamahes78/sshsift/internal/ingest"
	"github.com/hanamahes78/sshsift/internal/keys"
	"github.com/hanamahes78/sshsift/internal/store"
	"github.com/spf13/cobra"
)

func Main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "sshsift",
		Short: "Sshsift CLI",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (yaml)")

	root.AddCommand(classifyCmd(&cfgPath))
	root.AddCommand(ingestCmd(&cfgPath))
	root.AddCommand(exportCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openInput returns the log source: a file, or stdin for "-".
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// loadKeyIndex builds the fingerprint index from configured files, if any.
func loadKeyIndex(cfg *config.Config) *keys.Index {
	if len(cfg.Keys.AuthorizedKeys) == 0 {
		return nil
	}
	ix := keys.NewIndex()
	for _, p := range cfg.Keys.AuthorizedKeys {
		if _, err := ix.LoadFile(p); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	return ix
}

func classifyCmd(cfgPath *string) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify sshd log lines and print matched records as JSON (no database)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			in, err := openInput(inPath)
			if err != nil {
				return err
			}
			defer in.Close()

			pipe := ingest.New(ingest.WriterSink{W: os.Stdout}, ingest.Options{
				Reporter: cfg.Ingest.Reporter,
				Keys:     loadKeyIndex(cfg),
			})
			res, err := pipe.Run(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "lines=%d matched=%d\n", res.Lines, res.Matched)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "-", "log file to read (or - for stdin)")
	return cmd
}

func ingestCmd(cfgPath *string) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Parse an sshd log file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.RequireDB(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			dbConn, err := db.Open(ctx, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			if err := db.ApplyMigrations(ctx, dbConn); err != nil {
				return err
			}

			in, err := openInput(inPath)
			if err != nil {
				return err
			}
			defer in.Close()

			pipe := ingest.New(store.New(dbConn), ingest.Options{
				Reporter: cfg.Ingest.Reporter,
				Keys:     loadKeyIndex(cfg),
			})
			res, err := pipe.Run(ctx, in)
			if err != nil {
				return err
			}

			fmt.Printf("lines=%d matched=%d inserted=%d\n", res.Lines, res.Matched, res.Produced)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "log file to read (or - for stdin)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
