package config

import "github.com/spf13/viper"

const (
	// DefaultQuality matches the CLI default.
	DefaultQuality = 85

	// DefaultBackground is opaque white.
	DefaultBackground = "255,255,255"

	defaultLogDir = "./output/logs"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("conversion.quality", DefaultQuality)
	v.SetDefault("conversion.background", DefaultBackground)
	v.SetDefault("conversion.recursive", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_file", true)
	v.SetDefault("logging.log_dir", defaultLogDir)

	v.SetDefault("ui.disable_color", false)
}
