// Package conf loads and holds shelfwatch runtime settings.
package conf

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SuppressionSettings carries per-type window overrides. Keys are alert
// type names (empty_shelf, temperature, equipment_failure); absent keys
// fall back to the built-in defaults.
type SuppressionSettings struct {
	Windows map[string]Duration `mapstructure:"windows"`
}

// BusinessHoursSettings defines the local-time windows used to modulate
// suppression aggressiveness. Hours are 0-23.
type BusinessHoursSettings struct {
	WeekdayStart int `mapstructure:"weekdaystart"`
	WeekdayEnd   int `mapstructure:"weekdayend"`
	WeekendStart int `mapstructure:"weekendstart"`
	WeekendEnd   int `mapstructure:"weekendend"`
}

// DispatchSettings configures the notification dispatcher.
type DispatchSettings struct {
	Interval   Duration `mapstructure:"interval"`
	URLs       []string `mapstructure:"urls"`       // shoutrrr service URLs
	WebhookURL string   `mapstructure:"webhookurl"` // optional plain JSON webhook
}

// SensorSettings configures the reading-processing loop.
type SensorSettings struct {
	PollInterval Duration `mapstructure:"pollinterval"`
	Simulate     bool     `mapstructure:"simulate"`
}

// StoreSettings configures alert persistence.
type StoreSettings struct {
	MaxAlerts int    `mapstructure:"maxalerts"`
	DBPath    string `mapstructure:"dbpath"` // empty means in-memory only
}

// Settings is the root configuration for shelfwatch.
type Settings struct {
	LogLevel      string                `mapstructure:"loglevel"`
	Listen        string                `mapstructure:"listen"`
	Store         StoreSettings         `mapstructure:"store"`
	Dispatch      DispatchSettings      `mapstructure:"dispatch"`
	Suppression   SuppressionSettings   `mapstructure:"suppression"`
	BusinessHours BusinessHoursSettings `mapstructure:"businesshours"`
	Sensor        SensorSettings        `mapstructure:"sensor"`
}

// setDefaults registers default values on the given viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("listen", ":8090")
	v.SetDefault("store.maxalerts", 1000)
	v.SetDefault("store.dbpath", "")
	v.SetDefault("dispatch.interval", "2s")
	v.SetDefault("dispatch.urls", []string{})
	v.SetDefault("businesshours.weekdaystart", 6)
	v.SetDefault("businesshours.weekdayend", 22)
	v.SetDefault("businesshours.weekendstart", 7)
	v.SetDefault("businesshours.weekendend", 21)
	v.SetDefault("sensor.pollinterval", "30s")
	v.SetDefault("sensor.simulate", false)
}

// Load reads settings from the given YAML config file, falling back to
// defaults when the path is empty or the file is absent. Environment
// variables with the SHELFWATCH_ prefix override file values.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("shelfwatch")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate sanity-checks loaded settings.
func (s *Settings) Validate() error {
	if s.Store.MaxAlerts <= 0 {
		return fmt.Errorf("store.maxalerts must be positive, got %d", s.Store.MaxAlerts)
	}
	if s.Dispatch.Interval.Std() <= 0 {
		return fmt.Errorf("dispatch.interval must be positive, got %s", s.Dispatch.Interval.Std())
	}
	if s.Sensor.PollInterval.Std() < time.Second {
		return fmt.Errorf("sensor.pollinterval must be at least 1s, got %s", s.Sensor.PollInterval.Std())
	}
	for _, h := range []int{
		s.BusinessHours.WeekdayStart, s.BusinessHours.WeekdayEnd,
		s.BusinessHours.WeekendStart, s.BusinessHours.WeekendEnd,
	} {
		if h < 0 || h > 24 {
			return fmt.Errorf("business hours must be within 0-24, got %d", h)
		}
	}
	return nil
}
