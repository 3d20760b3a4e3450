package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"recipebox/catalog"
	"recipebox/config"
	"recipebox/firestoredb"
	"recipebox/mealdb"
)

// Version is set at build time with -ldflags "-X recipebox/cmd.Version=...".
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recipebox",
		Short: "Browse and edit a recipe list fetched from TheMealDB",
		Long: `recipebox loads the recipe listing from TheMealDB (or a Firestore
collection holding the same shape) into memory and lets you browse, add,
edit and delete recipes. Edits live only as long as the process does.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "path to a YAML config file")
	root.PersistentFlags().String("log.level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log.format", "text", "log format: text or json")
	root.PersistentFlags().String("source.kind", config.SourceMealDB, "where to load recipes from: mealdb or firestore")
	root.PersistentFlags().String("mealdb.base_url", mealdb.DefaultBaseURL, "TheMealDB API base URL")

	root.AddCommand(newServeCmd(), newListCmd(), newShowCmd(), newVersionCmd())
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path, cmd.Flags())
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openGateway returns the configured recipe source and a function releasing it.
func openGateway(ctx context.Context, cfg *config.Config) (catalog.Gateway, func() error, error) {
	switch cfg.Source {
	case config.SourceFirestore:
		src, err := firestoredb.Open(ctx, cfg.FirestoreProject, cfg.FirestoreCollection, cfg.FirestoreCredentials)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case config.SourceMealDB:
		client := mealdb.NewClient(cfg.MealDBURL, &http.Client{Timeout: cfg.MealDBTimeout})
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "recipebox", Version)
		},
	}
}
