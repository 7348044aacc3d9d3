package config

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"codeberg.org/mutker/serialstat/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval         = time.Second
	DefaultBaud             = 9600
	DefaultBackoff          = 5 * time.Second
	DefaultAttemptLimit     = 5
	DefaultDiscoveryDelay   = 5 * time.Second
	DefaultDiscoveryRetries = 3
	DefaultDwell            = 5
	DefaultLowBattery       = 10
	DefaultLogLevel         = "info"
	DefaultCoreSensors      = `(?i)(^|[^a-z])core([^a-z]|$)`

	configName = "serialstat"
	envPrefix  = "SERIALSTAT"
)

// DefaultVendorIDs are USB vendors of common display controller boards:
// Arduino, Arduino (Genuino), WCH CH340, FTDI and Silicon Labs CP210x.
var DefaultVendorIDs = []string{"2341", "2A03", "1A86", "0403", "10C4"}

type Glyphs struct {
	Charging    string `mapstructure:"glyph_charging"`
	Discharging string `mapstructure:"glyph_discharging"`
	Mains       string `mapstructure:"glyph_mains"`
	Degree      string `mapstructure:"glyph_degree"`
	Playing     string `mapstructure:"glyph_playing"`
	Paused      string `mapstructure:"glyph_paused"`
}

type Config struct {
	Device           string         `mapstructure:"-"`
	Interval         time.Duration  `mapstructure:"interval"`
	Baud             int            `mapstructure:"baud"`
	Backoff          time.Duration  `mapstructure:"backoff"`
	AttemptLimit     int            `mapstructure:"attempt_limit"`
	DiscoveryDelay   time.Duration  `mapstructure:"discovery_delay"`
	DiscoveryRetries int            `mapstructure:"discovery_retries"`
	Dwell            int            `mapstructure:"dwell"`
	DwellOverrides   map[string]int `mapstructure:"dwell_overrides"`
	Screens          []string       `mapstructure:"screens"`
	VendorIDs        []string       `mapstructure:"vendor_ids"`
	LowBattery       float64        `mapstructure:"low_battery"`
	CoreSensors      string         `mapstructure:"core_sensor_pattern"`
	LogLevel         string         `mapstructure:"log_level"`
	MetricsListen    string         `mapstructure:"metrics_listen"`
	DeviceDB         string         `mapstructure:"device_db"`

	Glyphs `mapstructure:",squash"`
}

// DwellFor returns the dwell length in ticks for the named screen
func (c *Config) DwellFor(screen string) int {
	if d, ok := c.DwellOverrides[screen]; ok && d > 0 {
		return d
	}

	return c.Dwell
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("baud", DefaultBaud)
	v.SetDefault("backoff", DefaultBackoff)
	v.SetDefault("attempt_limit", DefaultAttemptLimit)
	v.SetDefault("discovery_delay", DefaultDiscoveryDelay)
	v.SetDefault("discovery_retries", DefaultDiscoveryRetries)
	v.SetDefault("dwell", DefaultDwell)
	v.SetDefault("dwell_overrides", map[string]int{})
	v.SetDefault("screens", KnownScreens)
	v.SetDefault("vendor_ids", DefaultVendorIDs)
	v.SetDefault("low_battery", DefaultLowBattery)
	v.SetDefault("core_sensor_pattern", DefaultCoreSensors)
	v.SetDefault("glyph_charging", "`")
	v.SetDefault("glyph_discharging", "&")
	v.SetDefault("glyph_mains", "~")
	v.SetDefault("glyph_degree", "^C")
	v.SetDefault("glyph_playing", ">")
	v.SetDefault("glyph_paused", "=")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("metrics_listen", "")
	v.SetDefault("device_db", "")
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.String("config", "", "Path to the configuration file")
	fs.Duration("interval", DefaultInterval, "Interval between frames")
	fs.Int("baud", DefaultBaud, "Serial baud rate")
	fs.Duration("backoff", DefaultBackoff, "Delay between reconnect attempts")
	fs.Int("attempt-limit", DefaultAttemptLimit, "Reconnect attempts before rediscovery (discovered devices only)")
	fs.Int("dwell", DefaultDwell, "Ticks each screen stays active")
	fs.StringSlice("screens", KnownScreens, "Screen rotation order")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("metrics-listen", "", "Address for the Prometheus /metrics endpoint")
	fs.String("device-db", "", "Path of the remembered device database")

	return fs
}

// Load reads configuration from defaults, config file, environment and
// command line, in increasing order of precedence. The first positional
// argument is the explicit device identifier.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: envPrefix, args: os.Args[1:]}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	if err := readConfigFile(v, o, fs); err != nil {
		return nil, err
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if fs.NArg() > 0 {
		config.Device = strings.TrimSpace(fs.Arg(0))
	}

	config.VendorIDs = normalizeVendorIDs(config.VendorIDs)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	errFactory := errors.New()

	// Only flags the operator actually set take precedence over the file
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return errFactory.Wrap(errors.ErrBindFlags, bindErr)
	}

	return nil
}

func readConfigFile(v *viper.Viper, o *options, fs *pflag.FlagSet) error {
	errFactory := errors.New()

	path := o.configPath
	if flagPath, _ := fs.GetString("config"); flagPath != "" {
		path = flagPath
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
		v.AddConfigPath(filepath.Join("/etc", configName))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}

func normalizeVendorIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x"))
		if id != "" {
			out = append(out, id)
		}
	}

	return out
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if c.Baud <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "baud must be positive")
	}
	if c.Backoff <= 0 || c.DiscoveryDelay <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "backoff and discovery_delay must be positive")
	}
	if c.AttemptLimit <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "attempt_limit must be positive")
	}
	if c.Dwell <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "dwell must be positive")
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if _, err := regexp.Compile(c.CoreSensors); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return c.normalizeScreens()
}

// normalizeScreens rejects unknown names and moves the system screen,
// which is the fallback for every other screen, to the front.
func (c *Config) normalizeScreens() error {
	errFactory := errors.New()

	seen := make(map[string]bool, len(c.Screens))
	screens := []string{ScreenSystem}
	for _, name := range c.Screens {
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(KnownScreens, name) {
			return errFactory.WithData(errors.ErrInvalidConfig, "unknown screen: "+name)
		}
		if seen[name] || name == ScreenSystem {
			seen[name] = true
			continue
		}
		seen[name] = true
		screens = append(screens, name)
	}
	c.Screens = screens

	return nil
}
