package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"png2jpg/core/converter"
)

// Config holds everything the converter and its surfaces read at runtime.
// Command-line flags override these values per run.
type Config struct {
	// Conversion defaults applied when a flag is not given
	Conversion ConversionConfig `mapstructure:"conversion"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging"`

	// UI settings
	UI UIConfig `mapstructure:"ui"`
}

// ConversionConfig carries the default conversion parameters.
type ConversionConfig struct {
	// JPEG quality (1-100)
	Quality int `mapstructure:"quality"`

	// Background color for transparent sources, "R,G,B"
	Background string `mapstructure:"background"`

	// Process subdirectories by default
	Recursive bool `mapstructure:"recursive"`
}

// LoggingConfig mirrors the logger options.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Write a JSON log file in addition to console output
	EnableFile bool `mapstructure:"enable_file"`

	// Directory for log files
	LogDir string `mapstructure:"log_dir"`
}

// UIConfig controls the interactive shell.
type UIConfig struct {
	// Disable colored output
	DisableColor bool `mapstructure:"disable_color"`
}

// NewConfig loads configuration from cfgFile (or $HOME/.png2jpg.yaml when
// empty), applies defaults, validates, and watches the file for changes.
// A missing config file is not an error; defaults apply.
func NewConfig(cfgFile string, logger *zap.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".png2jpg")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PNG2JPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config is fine; anything else (explicit file
		// missing, malformed yaml) fails fast.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		logger.Debug("config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Hot reload: log changes so a long interactive session can see that the
	// file on disk no longer matches the loaded values.
	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("config file changed, restart to apply",
				zap.String("path", e.Name),
				zap.String("op", e.Op.String()))
		})
		v.WatchConfig()
	}

	return cfg, nil
}

// Validate range-checks the configured defaults the same way run parameters
// are checked, so a bad config file fails at startup rather than mid-run.
func (c *Config) Validate() error {
	if c.Conversion.Quality < 1 || c.Conversion.Quality > 100 {
		return &converter.ValidationError{
			Field:   "conversion.quality",
			Value:   c.Conversion.Quality,
			Message: "must be between 1 and 100",
		}
	}
	if _, err := converter.ParseBackground(c.Conversion.Background); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &converter.ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of debug, info, warn, error",
		}
	}
	return nil
}

// LogDirectory returns the directory log files are written to, creating it
// if needed.
func (c *Config) LogDirectory() string {
	dir := c.Logging.LogDir
	if dir == "" {
		dir = defaultLogDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return filepath.Clean(".")
	}
	return dir
}
