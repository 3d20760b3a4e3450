package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"recipebox/catalog"
	"recipebox/config"
	"recipebox/handlers"
	"recipebox/metrics"
	"recipebox/store"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipe list, detail, create, edit and delete endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
		},
	}
	cmd.Flags().String("server.addr", ":8080", "address to listen on")
	cmd.Flags().Int("thumbnail.height", 500, "default height of resized thumbnails")
	return cmd
}

// logEvents logs every store mutation at debug level.
func logEvents(logger *slog.Logger) store.Listener {
	return func(ev store.Event) {
		logger.Debug("store changed", "op", string(ev.Op), "id", ev.ID, "count", len(ev.Recipes))
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	gw, closeGateway, err := openGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeGateway(); err != nil {
			logger.Warn("closing recipe source", "error", err)
		}
	}()

	st := store.New()
	m := metrics.New()
	defer m.Observe(st)()
	defer st.Subscribe(logEvents(logger))()

	cat := catalog.New(st, gw, catalog.WithLogger(logger), catalog.WithFetchObserver(m.FetchDone))
	defer cat.Close()
	if err := cat.Start(ctx); err != nil {
		return err
	}

	app := &handlers.App{
		Catalog:         cat,
		Logger:          logger,
		HTTPClient:      &http.Client{Timeout: cfg.MealDBTimeout},
		ThumbnailHeight: uint(cfg.ThumbnailHeight),
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.NewRouter(app, cfg.AllowedOrigins, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Addr, "source", cfg.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
