package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/crimestat/internal/validate"
)

// Config holds the full application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" mapstructure:"input"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Rules    RulesConfig    `yaml:"rules" mapstructure:"rules"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// InputConfig describes the incident dataset.
type InputConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	Delimiter  string `yaml:"delimiter" mapstructure:"delimiter"`
	Charset    string `yaml:"charset" mapstructure:"charset"`
	LazyQuotes bool   `yaml:"lazy_quotes" mapstructure:"lazy_quotes"`
	Sheet      string `yaml:"sheet" mapstructure:"sheet"`
}

// DelimiterRune returns the configured delimiter, defaulting to ','.
func (c InputConfig) DelimiterRune() rune {
	if c.Delimiter == "" {
		return ','
	}
	if c.Delimiter == `\t` || c.Delimiter == "tab" {
		return '\t'
	}
	return []rune(c.Delimiter)[0]
}

// AnalysisConfig controls filtering and report sizes.
type AnalysisConfig struct {
	ThresholdYear     int          `yaml:"threshold_year" mapstructure:"threshold_year"`
	TopCrimes         int          `yaml:"top_crimes" mapstructure:"top_crimes"`
	TopCategories     int          `yaml:"top_categories" mapstructure:"top_categories"`
	TopMunicipalities int          `yaml:"top_municipalities" mapstructure:"top_municipalities"`
	TopPerTag         int          `yaml:"top_per_tag" mapstructure:"top_per_tag"`
	ProgressEvery     int          `yaml:"progress_every" mapstructure:"progress_every"`
	Bounds            BoundsConfig `yaml:"bounds" mapstructure:"bounds"`
}

// BoundsConfig is the accepted coordinate box.
type BoundsConfig struct {
	MinLon float64 `yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon float64 `yaml:"max_lon" mapstructure:"max_lon"`
	MinLat float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat float64 `yaml:"max_lat" mapstructure:"max_lat"`
}

// Box converts the bounds to a validate.Box.
func (b BoundsConfig) Box() validate.Box {
	return validate.Box{MinLon: b.MinLon, MaxLon: b.MaxLon, MinLat: b.MinLat, MaxLat: b.MaxLat}
}

// RulesConfig points at an optional classification rule file.
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ExportConfig configures the detail export.
type ExportConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the map data server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRIMESTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.path", "")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.charset", "utf-8")
	v.SetDefault("input.lazy_quotes", true)
	v.SetDefault("input.sheet", "")
	v.SetDefault("analysis.threshold_year", 2019)
	v.SetDefault("analysis.top_crimes", 10)
	v.SetDefault("analysis.top_categories", 0)
	v.SetDefault("analysis.top_municipalities", 15)
	v.SetDefault("analysis.top_per_tag", 10)
	v.SetDefault("analysis.progress_every", 100000)
	v.SetDefault("analysis.bounds.min_lon", validate.DefaultBox.MinLon)
	v.SetDefault("analysis.bounds.max_lon", validate.DefaultBox.MaxLon)
	v.SetDefault("analysis.bounds.min_lat", validate.DefaultBox.MinLat)
	v.SetDefault("analysis.bounds.max_lat", validate.DefaultBox.MaxLat)
	v.SetDefault("rules.path", "")
	v.SetDefault("export.path", "delitos-cdmx.geojson")
	v.SetDefault("export.format", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is one of
// "analyze", "export" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze":
	case "export":
		if c.Export.Path == "" {
			errs = append(errs, "export.path is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Input.Path == "" {
		errs = append(errs, "input.path is required")
	}
	if d := []rune(c.Input.Delimiter); len(d) > 1 && c.Input.Delimiter != `\t` && c.Input.Delimiter != "tab" {
		errs = append(errs, "input.delimiter must be a single character")
	}

	a := c.Analysis
	if a.ThresholdYear < 0 || a.ThresholdYear > 9999 {
		errs = append(errs, "analysis.threshold_year must be between 0 and 9999")
	}
	if a.TopCrimes < 0 || a.TopCategories < 0 || a.TopMunicipalities < 0 || a.TopPerTag < 0 {
		errs = append(errs, "analysis top-N values must be >= 0")
	}
	if a.ProgressEvery < 0 {
		errs = append(errs, "analysis.progress_every must be >= 0")
	}
	if a.Bounds.MinLon >= a.Bounds.MaxLon || a.Bounds.MinLat >= a.Bounds.MaxLat {
		errs = append(errs, "analysis.bounds min values must be below max values")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
