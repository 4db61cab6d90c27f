package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/traynote/internal/dbus"
	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

type showOptions struct {
	id        uint32
	appName   string
	icon      string
	image     string
	actions   []string
	urgency   string
	category  string
	expire    int32
	resident  bool
	desktopID string
}

var showOpts showOptions

var showCmd = &cobra.Command{
	Use:   "show <summary> [body]",
	Short: "Show a notification",
	Long: `Show a notification under a caller-chosen id.

The id must not belong to a notification that is still outstanding; close it
first or pick another id. Notifications with actions are always shown as
popups, since tray balloons cannot carry buttons.

Examples:
  # Simple notification
  traynote show --id 1 "Build finished"

  # With a body, expiring after three seconds
  traynote show --id 2 --expire 3000 "Backup" "3 files copied"

  # With actions (always shown as a popup)
  traynote show --id 3 --action open=Open --action later=Later "Update ready"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Uint32Var(&showOpts.id, "id", 0,
		"Notification id (required)")
	showCmd.Flags().StringVar(&showOpts.appName, "app-name", "traynote",
		"Application name shown with the notification")
	showCmd.Flags().StringVar(&showOpts.icon, "icon", "",
		"Icon name or path")
	showCmd.Flags().StringVar(&showOpts.image, "image", "",
		"Image path (sets the image-path hint)")
	showCmd.Flags().StringArrayVar(&showOpts.actions, "action", nil,
		"Action as key=label or key (repeatable)")
	showCmd.Flags().StringVar(&showOpts.urgency, "urgency", "",
		"Urgency: low, normal or critical")
	showCmd.Flags().StringVar(&showOpts.category, "category", "",
		"Notification category hint")
	showCmd.Flags().Int32Var(&showOpts.expire, "expire", -1,
		"Expire timeout in milliseconds (-1 = server default, 0 = never)")
	showCmd.Flags().BoolVar(&showOpts.resident, "resident", false,
		"Keep the popup after an action is invoked")
	showCmd.Flags().StringVar(&showOpts.desktopID, "desktop-entry", "",
		"Desktop entry of the sending application")
	_ = showCmd.MarkFlagRequired("id")
}

func runShow(cmd *cobra.Command, args []string) error {
	showArgs, err := buildShowArgs(showOpts, args)
	if err != nil {
		return err
	}

	return withClient(func(ctx context.Context, c *dbus.Client) error {
		err := c.Show(ctx, showArgs)
		if errors.Is(err, notifier.ErrDuplicateID) {
			return fmt.Errorf("id %d is still outstanding; close it first: %w", showArgs.ID, err)
		}
		return err
	})
}

// buildShowArgs converts command line options into Show arguments.
func buildShowArgs(opts showOptions, args []string) (dbus.ShowArgs, error) {
	if len(args) == 0 || args[0] == "" {
		return dbus.ShowArgs{}, model.ErrEmptySummary
	}
	if model.ID(opts.id).Reserved() {
		return dbus.ShowArgs{}, fmt.Errorf("id %d is reserved for traynoted; use an id below %d", opts.id, model.ReservedIDBase)
	}
	if opts.expire < -1 {
		return dbus.ShowArgs{}, model.ErrInvalidTimeout
	}

	actions, err := parseActions(opts.actions)
	if err != nil {
		return dbus.ShowArgs{}, err
	}

	hints := make(map[string]godbus.Variant)
	if opts.urgency != "" {
		urgency, err := parseUrgency(opts.urgency)
		if err != nil {
			return dbus.ShowArgs{}, err
		}
		hints["urgency"] = godbus.MakeVariant(urgency)
	}
	if opts.category != "" {
		hints["category"] = godbus.MakeVariant(opts.category)
	}
	if opts.image != "" {
		hints["image-path"] = godbus.MakeVariant(opts.image)
	}
	if opts.desktopID != "" {
		hints["desktop-entry"] = godbus.MakeVariant(opts.desktopID)
	}
	if opts.resident {
		hints["resident"] = godbus.MakeVariant(true)
	}

	showArgs := dbus.ShowArgs{
		ID:            model.ID(opts.id),
		AppName:       opts.appName,
		AppIcon:       opts.icon,
		Summary:       args[0],
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: opts.expire,
	}
	if len(args) > 1 {
		showArgs.Body = args[1]
	}
	return showArgs, nil
}

// parseActions converts key=label pairs to the flat key, label list.
// A bare key is its own label.
func parseActions(pairs []string) ([]string, error) {
	actions := make([]string, 0, len(pairs)*2)
	for _, pair := range pairs {
		key, label, _ := strings.Cut(pair, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid action %q: expected key=label", pair)
		}
		if label == "" {
			label = key
		}
		actions = append(actions, key, label)
	}
	return actions, nil
}

// parseUrgency converts an urgency name or number to the urgency hint value.
func parseUrgency(s string) (byte, error) {
	switch strings.ToLower(s) {
	case "low", "0":
		return model.UrgencyLow, nil
	case "normal", "1":
		return model.UrgencyNormal, nil
	case "critical", "2":
		return model.UrgencyCritical, nil
	default:
		return 0, fmt.Errorf("invalid urgency %q: expected low, normal or critical", s)
	}
}
