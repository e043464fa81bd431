package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/s2group/batterybomber/pkg/liveview"
)

func NewChartCommand() *cobra.Command {
	output := ""

	cmd := &cobra.Command{
		Use:       "chart [power|current]",
		Short:     "Save a live series chart as PNG",
		GroupID:   gBasic,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(liveview.SeriesPower), string(liveview.SeriesCurrent)},
		Long: `Save the daemon's power or current chart as a PNG file.

The chart shows the same window the live view shows: the last 120 samples once there are more than that.`,
		RunE: func(_ *cobra.Command, args []string) error {
			name := args[0]
			png, err := apiClient.GetChart(name)
			if err != nil {
				return err
			}

			if output == "" {
				output = name + ".png"
			}
			if err := os.WriteFile(output, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			logrus.Infof("%s chart saved to %s", name, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <series>.png)")

	return cmd
}
