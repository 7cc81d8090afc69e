package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/stb-lab/websettings/api"
	"github.com/stb-lab/websettings/internal/config"
	"github.com/stb-lab/websettings/internal/httplog"
	"github.com/stb-lab/websettings/session"
	"github.com/stb-lab/websettings/web"
)

var (
	addr    string
	tlsCert string
	tlsKey  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the settings web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if tlsCert != "" {
			cfg.TLSCert = tlsCert
		}
		if tlsKey != "" {
			cfg.TLSKey = tlsKey
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.SlogLevel(),
		}))

		engine := session.New(session.WithKeyTTL(cfg.KeyTTL))
		a := api.New(engine,
			api.WithLogger(logger),
			api.WithPollTimeout(cfg.PollTimeout))
		ui := web.New(engine, web.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(httplog.Middleware(logger))
		r.Use(api.SecurityHeaders)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/stb", a.Router())
		r.Mount("/", ui.Router())

		server := &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Must exceed the poll timeout or held-open polls are cut off
			// before the engine can answer.
			WriteTimeout: cfg.PollTimeout + 15*time.Second,
			IdleTimeout:  120 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if cfg.TLSCert != "" && cfg.TLSKey != "" {
				err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		logger.Info("server started",
			slog.String("addr", cfg.Addr),
			slog.Duration("key_ttl", cfg.KeyTTL),
			slog.Duration("poll_timeout", cfg.PollTimeout))

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("shutting down", slog.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides WEBSETTINGS_ADDR)")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
