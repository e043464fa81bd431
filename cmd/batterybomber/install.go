package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/s2group/batterybomber/pkg/config"
	daemonutils "github.com/s2group/batterybomber/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	allowNonRootAccess := false
	openOnStart := true
	chartWidth, chartHeight := 0, 0

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install batterybomber daemon (system-wide)",
		GroupID: gInstallation,
		Long: `Install batterybomber daemon as a systemd service (system-wide).

This makes the daemon run in the background and automatically start on boot. You must run this command as root.

By default, only root user is allowed to access the daemon. If you want to allow non-root users, i.e., you, to open the live view or read charts, you can use the --allow-non-root-access flag, so you don't have to use sudo every time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}

			conf.SetAllowNonRootAccess(allowNonRootAccess)
			conf.SetOpenOnStart(openOnStart)
			if chartWidth > 0 && chartHeight > 0 {
				conf.SetChartSize(chartWidth, chartHeight)
			} else if chartWidth != 0 || chartHeight != 0 {
				return fmt.Errorf("--chart-width and --chart-height must both be positive")
			}
			if allowNonRootAccess {
				logrus.Info("non-root users are allowed to access the daemon.")
			} else {
				logrus.Info("only root user is allowed to access the daemon.")
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			err = daemonutils.Install(configPath)
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("systemd will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run `batterybomber install' again.\n", exePath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&allowNonRootAccess, "allow-non-root-access", false, "Allow non-root users to access the daemon.")
	cmd.Flags().BoolVar(&openOnStart, "open-on-start", true, "Open the live view when the daemon starts.")
	cmd.Flags().IntVar(&chartWidth, "chart-width", 0, "Width of the PNG charts served by the daemon.")
	cmd.Flags().IntVar(&chartHeight, "chart-height", 0, "Height of the PNG charts served by the daemon.")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall batterybomber daemon (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall batterybomber daemon from systemd (system-wide).

This stops the daemon and removes its unit. The config file is kept.

You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			cmd.Println("successfully uninstalled batterybomber")
			return nil
		},
	}
}
