package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/traynote/internal/adapter/output"
	"github.com/jmylchreest/traynote/internal/core"
	"github.com/jmylchreest/traynote/internal/dbus"
)

var statusOpts struct {
	format   string
	template string
	showRef  bool
	index    bool
	backend  string
	since    time.Duration
	limit    int
	sort     string
	order    string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List outstanding notifications",
	Long: `List the notifications traynoted is currently showing, with the backend
that owns each one.

Formats: plain, json, yaml, ids, waybar.

The waybar format is designed to be used with Waybar's custom module:

  "custom/traynote": {
    "exec": "traynote status --format waybar",
    "interval": 5,
    "return-type": "json"
  }`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusOpts.format, "format", "f", string(output.FormatPlain),
		"Output format (plain, json, yaml, ids, waybar)")
	statusCmd.Flags().StringVar(&statusOpts.template, "template", "",
		"Go template for plain output (fields: .Index, .Status, .RelativeTime)")
	statusCmd.Flags().BoolVar(&statusOpts.showRef, "show-ref", false,
		"Include the request ref in plain output")
	statusCmd.Flags().BoolVar(&statusOpts.index, "index", false,
		"Prefix plain output with a 1-based index")
	statusCmd.Flags().StringVar(&statusOpts.backend, "backend", "",
		"Only list notifications owned by this backend (native, fallback)")
	statusCmd.Flags().DurationVar(&statusOpts.since, "since", 0,
		"Only list notifications shown within this duration")
	statusCmd.Flags().IntVarP(&statusOpts.limit, "limit", "n", 0,
		"Maximum number of notifications to list (0 = unlimited)")
	statusCmd.Flags().StringVar(&statusOpts.sort, "sort", "shown_at",
		"Sort field (shown_at, id, backend)")
	statusCmd.Flags().StringVar(&statusOpts.order, "order", "desc",
		"Sort order (asc, desc)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormatType(statusOpts.format)
	if err != nil {
		return err
	}

	field, err := core.ParseSortField(statusOpts.sort)
	if err != nil {
		return err
	}
	order, err := core.ParseSortOrder(statusOpts.order)
	if err != nil {
		return err
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = statusOpts.template
	opts.ShowRef = statusOpts.showRef
	opts.ShowIndex = statusOpts.index
	formatter := output.NewFormatter(format, opts)

	return withClient(func(ctx context.Context, c *dbus.Client) error {
		statuses, err := c.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to query traynoted: %w", err)
		}
		core.Sort(statuses, core.SortOptions{Field: field, Order: order})
		statuses = core.Filter(statuses, core.FilterOptions{
			Since:   statusOpts.since,
			Backend: statusOpts.backend,
			Limit:   statusOpts.limit,
		}, time.Now())
		return formatter.Format(os.Stdout, statuses)
	})
}
