package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/traynote/internal/dbus"
	"github.com/jmylchreest/traynote/internal/model"
)

var closeOpts struct {
	stdin bool // Read IDs from stdin
	all   bool // Close every outstanding notification
}

var closeCmd = &cobra.Command{
	Use:   "close [id...]",
	Short: "Close notifications",
	Long: `Close one or more notifications by id.

Closing an id that is not outstanding does nothing.

Examples:
  # Close a single notification
  traynote close 3

  # Close everything the daemon has outstanding
  traynote close --all

  # Close ids from a pipe
  traynote status --format ids | traynote close --stdin`,
	RunE: runClose,
}

func init() {
	rootCmd.AddCommand(closeCmd)

	closeCmd.Flags().BoolVar(&closeOpts.stdin, "stdin", false,
		"Read IDs from stdin (one per line)")
	closeCmd.Flags().BoolVar(&closeOpts.all, "all", false,
		"Close all outstanding notifications")
}

func runClose(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if closeOpts.stdin {
		stdinIDs, err := readIDs(os.Stdin)
		if err != nil {
			return err
		}
		ids = append(ids, stdinIDs...)
	}

	if len(ids) == 0 && !closeOpts.all {
		return fmt.Errorf("no ids given (use --all to close everything)")
	}

	return withClient(func(ctx context.Context, c *dbus.Client) error {
		if closeOpts.all {
			statuses, err := c.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				ids = append(ids, s.ID)
			}
		}

		for _, id := range ids {
			if err := c.Close(ctx, id); err != nil {
				return fmt.Errorf("failed to close %d: %w", id, err)
			}
			logger.Debug("closed notification", "id", id)
		}
		return nil
	})
}

// parseIDs parses decimal notification ids.
func parseIDs(args []string) ([]model.ID, error) {
	ids := make([]model.ID, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, model.ID(v))
	}
	return ids, nil
}

// readIDs reads one id per line from r, skipping blank lines.
func readIDs(r io.Reader) ([]model.ID, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return parseIDs(lines)
}
