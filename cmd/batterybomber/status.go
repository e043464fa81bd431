package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/s2group/batterybomber/pkg/config"
	"github.com/s2group/batterybomber/pkg/powerinfo"
	"github.com/s2group/batterybomber/pkg/types"
)

type statusData struct {
	Active      bool                  `json:"active"`
	Summary     *types.LiveSummary    `json:"summary"`
	BatteryInfo *powerinfo.Battery    `json:"battery,omitempty"`
	Config      *config.RawFileConfig `json:"configuration"`
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	active, err := apiClient.GetView()
	if err != nil {
		return nil, fmt.Errorf("failed to get live view status: %w", err)
	}

	summary, err := apiClient.GetSummary()
	if err != nil {
		return nil, fmt.Errorf("failed to get live summary: %w", err)
	}

	// Not every machine has a battery the library can read.
	bat, err := apiClient.GetBatteryInfo()
	if err != nil {
		logrus.WithError(err).Debug("battery info unavailable")
		bat = nil
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		Active:      active,
		Summary:     summary,
		BatteryInfo: bat,
		Config:      conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the live view status of the daemon",
		Long:    `Get the live view state, the last summary, battery info, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(data, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal status: %w", err)
				}
				cmd.Println(string(b))
				return nil
			}

			printStatus(cmd, data, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, data *statusData, now time.Time) {
	cmd.Println(bold("Live view:"))
	cmd.Println("  Open: " + bool2Text(data.Active))
	if data.Summary.Text == "" {
		cmd.Println("  No samples yet.")
	} else {
		for _, line := range strings.Split(data.Summary.Text, "\n") {
			cmd.Println("  " + bold("%s", line))
		}
		updated := time.Unix(data.Summary.UpdatedAt, 0)
		cmd.Printf("  Updated: %s ago\n", now.Sub(updated).Truncate(time.Second))
	}
	if data.Active {
		cmd.Printf("  Samples taken: %s\n", bold("%.0f", data.Summary.T))
	}

	cmd.Println()

	if bat := data.BatteryInfo; bat != nil {
		cmd.Println(bold("Battery status:"))

		state := bat.State
		switch bat.State {
		case "Charging":
			state = color.GreenString("charging")
		case "Discharging":
			state = color.RedString("discharging")
		case "Full":
			state = "full"
		}
		cmd.Printf("  State: %s\n", bold("%s", state))
		cmd.Printf("  Current charge: %s\n", bold("%.0f%%", bat.Percent()))
		cmd.Printf("  Health: %s\n", bold("%.0f%%", bat.Health()))

		// Show charge rate in Watts with sign (+ charging, - discharging).
		watts := bat.ChargeRate / 1e3
		var rateStr string
		switch {
		case watts > 0:
			rateStr = color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", watts)
		case watts < 0:
			rateStr = color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", watts)
		default:
			rateStr = bold("%+.1f W", watts)
		}
		cmd.Printf("  Charge rate: %s\n", rateStr)
		cmd.Printf("  Voltage: %s\n", bold("%.2f V", bat.Voltage))

		cmd.Println()
	}

	conf := config.NewFileFromConfig(data.Config, "")
	cmd.Println(bold("Configuration:"))
	cmd.Printf("  Telemetry source: %s\n", bold("%s", conf.TelemetrySource()))
	cmd.Printf("  Notification source: %s\n", bold("%s", conf.NotificationSource()))
	cmd.Printf("  Open live view on start: %s\n", bool2Text(conf.OpenOnStart()))
	cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(conf.AllowNonRootAccess()))
	cmd.Printf("  Chart size: %s\n", bold("%dx%d", conf.ChartWidth(), conf.ChartHeight()))
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
