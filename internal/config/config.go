package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "tracksync.cfg.json"

// PlaybackConfig holds playback clock settings.
type PlaybackConfig struct {
	Speed        float64       `json:"speed" mapstructure:"speed"`
	TickInterval time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
}

// ColorConfig holds marker coloring and legend settings.
type ColorConfig struct {
	Mode        string  `json:"mode" mapstructure:"mode"`
	Continuous  bool    `json:"continuous" mapstructure:"continuous"`
	SpeedUnits  string  `json:"speedUnits" mapstructure:"speedUnits"`
	LegendMin   float64 `json:"legendMin" mapstructure:"legendMin"`
	LegendMax   float64 `json:"legendMax" mapstructure:"legendMax"`
	LegendSteps int     `json:"legendSteps" mapstructure:"legendSteps"`
}

// ExportConfig holds playback export settings.
type ExportConfig struct {
	OutputDir      string        `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool          `json:"compressOutput" mapstructure:"compressOutput"`
	FrameInterval  time.Duration `json:"frameInterval" mapstructure:"frameInterval"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("playback.speed", 1.0)
	viper.SetDefault("playback.tickInterval", "16ms")

	viper.SetDefault("color.mode", "speed")
	viper.SetDefault("color.continuous", true)
	viper.SetDefault("color.speedUnits", "mph")
	viper.SetDefault("color.legendMin", 0)
	viper.SetDefault("color.legendMax", 100)
	viper.SetDefault("color.legendSteps", 5)

	viper.SetDefault("export.outputDir", "./exports")
	viper.SetDefault("export.compressOutput", true)
	viper.SetDefault("export.frameInterval", "1s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tracksync")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load sets default values and reads the JSON config file from configDir.
// Defaults stay in place when the file cannot be read.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetPlaybackConfig returns the playback section.
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		Speed:        viper.GetFloat64("playback.speed"),
		TickInterval: viper.GetDuration("playback.tickInterval"),
	}
}

// GetColorConfig returns the color section.
func GetColorConfig() ColorConfig {
	return ColorConfig{
		Mode:        viper.GetString("color.mode"),
		Continuous:  viper.GetBool("color.continuous"),
		SpeedUnits:  viper.GetString("color.speedUnits"),
		LegendMin:   viper.GetFloat64("color.legendMin"),
		LegendMax:   viper.GetFloat64("color.legendMax"),
		LegendSteps: viper.GetInt("color.legendSteps"),
	}
}

// GetExportConfig returns the export section.
func GetExportConfig() ExportConfig {
	return ExportConfig{
		OutputDir:      viper.GetString("export.outputDir"),
		CompressOutput: viper.GetBool("export.compressOutput"),
		FrameInterval:  viper.GetDuration("export.frameInterval"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
