package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/traynote/internal/dbus"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show daemon information and capabilities",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *dbus.Client) error {
		info, err := c.ServerInformation(ctx)
		if err != nil {
			return err
		}
		caps, err := c.Capabilities(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%s %s (%s)\n", info.Name, info.Version, info.Vendor)
		fmt.Printf("Capabilities: %s\n", strings.Join(caps, ", "))
		return nil
	})
}
