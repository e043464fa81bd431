package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/s2group/batterybomber/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)

			daemonVersion, err := apiClient.GetVersion()
			if err != nil {
				logrus.WithError(err).Debug("cannot get daemon version")
				return
			}
			if daemonVersion != version.Version {
				logrus.WithFields(logrus.Fields{
					"clientVersion": version.Version,
					"daemonVersion": daemonVersion,
				}).Warn("Version mismatch between client and daemon. Reinstall the daemon with this binary.")
			}
		},
	}
}

func NewViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view",
		Short:   "Open or close the daemon's live view",
		GroupID: gBasic,
		Long: `Open or close the daemon's live view.

While the view is open the daemon samples the battery once per second. Closing it stops sampling but keeps the last summary.`,
	}

	set := func(open bool) func(*cobra.Command, []string) error {
		return func(_ *cobra.Command, _ []string) error {
			ret, err := apiClient.SetView(open)
			if err != nil {
				return fmt.Errorf("failed to set live view: %v", err)
			}
			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "open",
			Short: "Open the live view",
			RunE:  set(true),
		},
		&cobra.Command{
			Use:   "close",
			Short: "Close the live view",
			RunE:  set(false),
		},
	)

	return cmd
}
