package config

import "github.com/sirupsen/logrus"

// Telemetry sources.
const (
	TelemetrySysfs   = "sysfs"
	TelemetryBattery = "battery"
)

// Notification sources.
const (
	NotificationSysfs  = "sysfs"
	NotificationUPower = "upower"
)

type Config interface {
	TelemetrySource() string
	NotificationSource() string
	PowerSupplyPath() string
	BatteryName() string
	BatteryIndex() int
	BroadcastIntervalSeconds() int
	AllowNonRootAccess() bool
	OpenOnStart() bool
	ChartWidth() int
	ChartHeight() int

	SetAllowNonRootAccess(bool)
	SetOpenOnStart(bool)
	SetChartSize(width, height int)

	// Validate checks that the configured values can be used.
	Validate() error
	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	LogrusFields() logrus.Fields
}
