package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"recipebox/catalog"
	"recipebox/config"
	"recipebox/render"
	"recipebox/store"
)

const gridColumns = 2

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Fetch the recipe list once and print it as a grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := fetchOnce(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			return printGrid(cmd.OutOrStdout(), render.Grid(st.Snapshot()))
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one recipe with its ingredients and steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := fetchOnce(cmd.Context(), cfg, newLogger(cmd.ErrOrStderr(), cfg))
			if err != nil {
				return err
			}
			r, ok := st.Get(args[0])
			if !ok {
				return fmt.Errorf("no recipe with id %q", args[0])
			}
			printDetail(cmd.OutOrStdout(), render.Detail(r))
			return nil
		},
	}
}

func fetchOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	gw, closeGateway, err := openGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeGateway()

	st := store.New()
	cat := catalog.New(st, gw, catalog.WithLogger(logger))
	defer cat.Close()
	if err := cat.Refresh(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func printGrid(w io.Writer, cards []render.Card) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := 0; i < len(cards); i += gridColumns {
		cells := make([]string, 0, gridColumns)
		for _, c := range cards[i:min(i+gridColumns, len(cards))] {
			cells = append(cells, fmt.Sprintf("[%s] %s", c.ID, c.Title))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printDetail(w io.Writer, d render.DetailView) {
	fmt.Fprintln(w, d.Title)
	if d.ThumbnailURL != "" {
		fmt.Fprintln(w, d.ThumbnailURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ingredients")
	for _, ing := range d.Ingredients {
		fmt.Fprintln(w, "  "+ing)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Instructions")
	for _, step := range render.NumberedSteps(d.Recipe.Instructions) {
		fmt.Fprintln(w, "  "+step)
	}
}
