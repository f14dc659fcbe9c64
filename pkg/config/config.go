// Package config provides configuration loading and validation for sorttrace.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/sorttrace/pkg/generate"
	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
)

// Sentinel validation errors.
var (
	ErrInvalidSpeed     = errors.New("player speed out of range")
	ErrInvalidPort      = errors.New("invalid server port")
	ErrInvalidCacheSize = errors.New("trace cache size must not be negative")
	ErrInvalidArraySize = errors.New("generator size out of range")
	ErrInvalidRange     = errors.New("generator min must not exceed max")
	ErrUnknownPattern   = errors.New("unknown generator pattern")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidFormat    = errors.New("invalid output format")
)

const maxPort = 65535

// Config holds all configuration for sorttrace.
type Config struct {
	Trace     TraceConfig     `mapstructure:"trace"`
	Player    PlayerConfig    `mapstructure:"player"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// TraceConfig holds trace generation settings.
type TraceConfig struct {
	Algorithm string `mapstructure:"algorithm"`
	Format    string `mapstructure:"format"`
	// CacheSize is the number of documents kept by the trace cache.
	// Zero disables caching.
	CacheSize int `mapstructure:"cache_size"`
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	Speed float64 `mapstructure:"speed"`
}

// GeneratorConfig holds the defaults for generated input arrays.
type GeneratorConfig struct {
	Pattern string `mapstructure:"pattern"`
	Size    int    `mapstructure:"size"`
	Min     int    `mapstructure:"min"`
	Max     int    `mapstructure:"max"`
	Swaps   int    `mapstructure:"swaps"`
	Seed    uint64 `mapstructure:"seed"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	Port           int           `mapstructure:"port"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches the default locations; a missing file there is not
// an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(ConfigName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/sorttrace")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

func setDefaults(viperCfg *viper.Viper) {
	// Trace defaults.
	viperCfg.SetDefault("trace.algorithm", DefaultAlgorithm)
	viperCfg.SetDefault("trace.format", DefaultFormat)
	viperCfg.SetDefault("trace.cache_size", DefaultCacheSize)

	// Player defaults.
	viperCfg.SetDefault("player.speed", player.DefaultSpeed)

	// Generator defaults.
	viperCfg.SetDefault("generator.pattern", string(generate.PatternRandom))
	viperCfg.SetDefault("generator.size", generate.DefaultSize)
	viperCfg.SetDefault("generator.min", generate.DefaultMin)
	viperCfg.SetDefault("generator.max", generate.DefaultMax)
	viperCfg.SetDefault("generator.swaps", generate.DefaultSwaps)
	viperCfg.SetDefault("generator.seed", DefaultSeed)

	// Server defaults.
	viperCfg.SetDefault("server.host", DefaultHost)
	viperCfg.SetDefault("server.port", DefaultPort)
	viperCfg.SetDefault("server.read_timeout", "30s")
	viperCfg.SetDefault("server.write_timeout", "30s")
	viperCfg.SetDefault("server.idle_timeout", "120s")
	viperCfg.SetDefault("server.allowed_origins", []string{})
	viperCfg.SetDefault("server.send_buffer", DefaultSendBuffer)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.json", false)
	viperCfg.SetDefault("logging.file", "")

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if c.Player.Speed < player.MinSpeed || c.Player.Speed > player.MaxSpeed {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrInvalidSpeed, c.Player.Speed, player.MinSpeed, player.MaxSpeed)
	}

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Trace.CacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Trace.CacheSize)
	}

	if !slices.Contains(Formats, c.Trace.Format) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidFormat, c.Trace.Format, strings.Join(Formats, ", "))
	}

	if c.Generator.Size <= 0 || c.Generator.Size > generate.MaxSize {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidArraySize, c.Generator.Size, generate.MaxSize)
	}

	if c.Generator.Min > c.Generator.Max {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, c.Generator.Min, c.Generator.Max)
	}

	_, patternErr := generate.ParsePattern(c.Generator.Pattern)
	if patternErr != nil {
		return fmt.Errorf("%w: %q", ErrUnknownPattern, c.Generator.Pattern)
	}

	_, levelErr := observability.ParseLevel(c.Logging.Level)
	if levelErr != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}

// Observability converts the logging and telemetry sections into an
// observability configuration for the given mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.Mode = mode
	obsCfg.ServiceVersion = version
	obsCfg.Environment = c.Telemetry.Environment
	obsCfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = c.Telemetry.SampleRatio
	obsCfg.LogJSON = c.Logging.JSON
	obsCfg.LogFile = c.Logging.File

	level, err := observability.ParseLevel(c.Logging.Level)
	if err == nil {
		obsCfg.LogLevel = level
	}

	return obsCfg
}

// GeneratorOptions converts the generator section into generate.Options.
func (c *Config) GeneratorOptions() generate.Options {
	pattern, err := generate.ParsePattern(c.Generator.Pattern)
	if err != nil {
		pattern = generate.PatternRandom
	}

	return generate.Options{
		Pattern: pattern,
		Size:    c.Generator.Size,
		Min:     c.Generator.Min,
		Max:     c.Generator.Max,
		Swaps:   c.Generator.Swaps,
		Seed:    c.Generator.Seed,
	}
}
