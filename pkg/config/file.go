package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/utils/ptr"
)

const DefaultPath = "/etc/batterybomber.json"

var (
	defaultFileConfig = &RawFileConfig{
		TelemetrySource:    ptr.To(TelemetrySysfs),
		NotificationSource: ptr.To(NotificationSysfs),
		PowerSupplyPath:    ptr.To("/sys/class/power_supply"),
		// Empty means the first battery found.
		BatteryName:              ptr.To(""),
		BatteryIndex:             ptr.To(0),
		BroadcastIntervalSeconds: ptr.To(5),
		AllowNonRootAccess:       ptr.To(false),
		OpenOnStart:              ptr.To(true),
		ChartWidth:               ptr.To(800),
		ChartHeight:              ptr.To(300),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	TelemetrySource          *string `json:"telemetrySource,omitempty"`
	NotificationSource       *string `json:"notificationSource,omitempty"`
	PowerSupplyPath          *string `json:"powerSupplyPath,omitempty"`
	BatteryName              *string `json:"batteryName,omitempty"`
	BatteryIndex             *int    `json:"batteryIndex,omitempty"`
	BroadcastIntervalSeconds *int    `json:"broadcastIntervalSeconds,omitempty"`
	AllowNonRootAccess       *bool   `json:"allowNonRootAccess,omitempty"`
	OpenOnStart              *bool   `json:"openOnStart,omitempty"`
	ChartWidth               *int    `json:"chartWidth,omitempty"`
	ChartHeight              *int    `json:"chartHeight,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		TelemetrySource:          ptr.To(c.TelemetrySource()),
		NotificationSource:       ptr.To(c.NotificationSource()),
		PowerSupplyPath:          ptr.To(c.PowerSupplyPath()),
		BatteryName:              ptr.To(c.BatteryName()),
		BatteryIndex:             ptr.To(c.BatteryIndex()),
		BroadcastIntervalSeconds: ptr.To(c.BroadcastIntervalSeconds()),
		AllowNonRootAccess:       ptr.To(c.AllowNonRootAccess()),
		OpenOnStart:              ptr.To(c.OpenOnStart()),
		ChartWidth:               ptr.To(c.ChartWidth()),
		ChartHeight:              ptr.To(c.ChartHeight()),
	}

	return rawConfig, nil
}

// get returns the field picked by field, falling back to its default.
func get[T any](f *File, field func(c *RawFileConfig) *T) T {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if v := field(f.c); v != nil {
		return *v
	}
	return *field(defaultFileConfig)
}

func (f *File) TelemetrySource() string {
	return get(f, func(c *RawFileConfig) *string { return c.TelemetrySource })
}

func (f *File) NotificationSource() string {
	return get(f, func(c *RawFileConfig) *string { return c.NotificationSource })
}

func (f *File) PowerSupplyPath() string {
	return get(f, func(c *RawFileConfig) *string { return c.PowerSupplyPath })
}

func (f *File) BatteryName() string {
	return get(f, func(c *RawFileConfig) *string { return c.BatteryName })
}

func (f *File) BatteryIndex() int {
	return get(f, func(c *RawFileConfig) *int { return c.BatteryIndex })
}

func (f *File) BroadcastIntervalSeconds() int {
	return get(f, func(c *RawFileConfig) *int { return c.BroadcastIntervalSeconds })
}

func (f *File) AllowNonRootAccess() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.AllowNonRootAccess })
}

func (f *File) OpenOnStart() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.OpenOnStart })
}

func (f *File) ChartWidth() int {
	return get(f, func(c *RawFileConfig) *int { return c.ChartWidth })
}

func (f *File) ChartHeight() int {
	return get(f, func(c *RawFileConfig) *int { return c.ChartHeight })
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.AllowNonRootAccess = &b
}

func (f *File) SetOpenOnStart(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.OpenOnStart = &b
}

func (f *File) SetChartSize(width, height int) {
	if f.c == nil {
		panic("config is nil")
	}

	if width <= 0 || height <= 0 {
		panic("chart size must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.c.ChartWidth = &width
	f.c.ChartHeight = &height
}

func (f *File) Validate() error {
	switch s := f.TelemetrySource(); s {
	case TelemetrySysfs, TelemetryBattery:
	default:
		return pkgerrors.Errorf("unknown telemetry source %q, expected %q or %q", s, TelemetrySysfs, TelemetryBattery)
	}

	switch s := f.NotificationSource(); s {
	case NotificationSysfs, NotificationUPower:
	default:
		return pkgerrors.Errorf("unknown notification source %q, expected %q or %q", s, NotificationSysfs, NotificationUPower)
	}

	if f.BroadcastIntervalSeconds() <= 0 {
		return pkgerrors.New("broadcastIntervalSeconds must be positive")
	}
	if f.BatteryIndex() < 0 {
		return pkgerrors.New("batteryIndex must not be negative")
	}
	if f.ChartWidth() <= 0 || f.ChartHeight() <= 0 {
		return pkgerrors.New("chart size must be positive")
	}

	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file means all defaults. f.c must stay non-nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// json.Decoder cannot tell an empty file from a broken one.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	return logrus.Fields{
		"telemetrySource":          f.TelemetrySource(),
		"notificationSource":       f.NotificationSource(),
		"powerSupplyPath":          f.PowerSupplyPath(),
		"batteryName":              f.BatteryName(),
		"batteryIndex":             f.BatteryIndex(),
		"broadcastIntervalSeconds": f.BroadcastIntervalSeconds(),
		"allowNonRootAccess":       f.AllowNonRootAccess(),
		"openOnStart":              f.OpenOnStart(),
		"chartWidth":               f.ChartWidth(),
		"chartHeight":              f.ChartHeight(),
	}
}
