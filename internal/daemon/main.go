package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanamahes78/sshsift/internal/api"
	"github.com/hanamahes78/sshsift/internal/config"
	"github.com/hanamahes78/sshsift/internal/db"
	"github.com/hanamahes78/sshsift/internal/ingest"
	"github.com/hanamahes78/sshsift/internal/keys"
	"github.com/hanamahes78/sshsift/internal/store"
	"github.com/hanamahes78/sshsift/internal/watchhub"
	"github.com/hanamahes78/sshsift/internal/worker"
	"github.com/spf13/cobra"
)

func Main() {
	var cfgPath string

	root := &cobra.Command{Use: "sshsiftd", Short: "Sshsift daemon (API + tail workers)"}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (yaml)")

	root.AddCommand(migrateCmd(&cfgPath))
	root.AddCommand(serveCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.RequireDB(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			dbConn, err := db.Open(ctx, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer dbConn.Close()
			return db.ApplyMigrations(ctx, dbConn)
		},
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and tail workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.RequireDB(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dbConn, err := db.Open(ctx, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer dbConn.Close()
			if err := db.ApplyMigrations(ctx, dbConn); err != nil {
				return err
			}

			var keyIndex *keys.Index
			if len(cfg.Keys.AuthorizedKeys) > 0 {
				keyIndex = keys.NewIndex()
				for _, p := range cfg.Keys.AuthorizedKeys {
					n, err := keyIndex.LoadFile(p)
					if err != nil {
						log.Printf("daemon: %v", err)
						continue
					}
					log.Printf("daemon: indexed %d keys from %s", n, p)
				}
			}

			hub := watchhub.New()
			pipe := ingest.New(store.New(dbConn), ingest.Options{
				Reporter: cfg.Ingest.Reporter,
				Keys:     keyIndex,
				Hub:      hub,
			})
			go worker.NewTailWorker(cfg, pipe).Run(ctx)

			h := api.New(cfg, dbConn, hub)
			srv := &http.Server{Addr: cfg.API.Listen, Handler: h.Router()}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("daemon: listening on %s", cfg.API.Listen)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
				return nil
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			}
		},
	}
}
