package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scholarspath-quiz/internal/app"
	"scholarspath-quiz/internal/config"
	"scholarspath-quiz/internal/logger"
	transport "scholarspath-quiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config and PORT)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := buildBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	catalog := app.NewCatalog(b.store, b.generator, log)
	if cfg.Quiz.SeedSamples {
		seeded, err := seedSamples(ctx, catalog, b.store)
		if err != nil {
			log.Warn().Err(err).Msg("seeding sample questions failed")
		} else if seeded > 0 {
			log.Info().Int("sets", seeded).Msg("sample questions seeded")
		}
	}

	engine := app.NewEngine(catalog, catalog, log)
	handler := transport.NewHandler(catalog, b.presence, log)
	wsHandler := transport.NewWSHandler(engine, b.presence, log)
	router := transport.NewRouter(handler, wsHandler, log, transport.RouterOptions{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RequestTimeout:  config.TTLDuration(cfg.Server.RequestTimeout, 60*time.Second),
		// the generator's own client timeout answers first
		GenerateTimeout: config.TTLDuration(cfg.Generator.Timeout, 120*time.Second) + 10*time.Second,
	})

	// No write timeout: WebSocket attempts stay open for the whole time limit and
	// generation requests can take a while.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting quiz server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	case err := <-errCh:
		log.Error().Err(err).Msg("failed to start server")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
