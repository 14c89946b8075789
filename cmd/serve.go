package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cillers/ledgerd/internal/refine"
	"github.com/cillers/ledgerd/internal/store"
	"github.com/cillers/ledgerd/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var enricher *refine.Enricher
		if cfg.Anthropic.Key != "" {
			enricher = &refine.Enricher{
				Client:    anthropic.NewRateLimited(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.RateLimit),
				Model:     cfg.Anthropic.Model,
				MaxTokens: cfg.Anthropic.MaxTokens,
			}
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(st, enricher, cfg.Ingest.IndexLimit),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter wires the read, upload, and refinement endpoints.
func newRouter(st store.Store, enricher *refine.Enricher, indexLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	h := &apiHandler{store: st, enricher: enricher, indexLimit: indexLimit}

	r.Get("/health", h.health)
	r.Get("/costs", h.listCosts)
	r.Post("/costs/upload", h.uploadCosts)
	r.Get("/transactions", h.listTransactions)
	r.Post("/refine/promote", h.promote)
	r.Post("/refine/enrich", h.enrich)

	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
