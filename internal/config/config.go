package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Crosswalk CrosswalkConfig `yaml:"crosswalk" mapstructure:"crosswalk"`
	Footprint FootprintConfig `yaml:"footprint" mapstructure:"footprint"`
	Panel     PanelConfig     `yaml:"panel" mapstructure:"panel"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// PathsConfig controls where raw inputs and derived outputs live.
// ProjectRoot is overridden by the PROJECT_ROOT environment variable.
type PathsConfig struct {
	ProjectRoot string `yaml:"project_root" mapstructure:"project_root"`
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`
	RawDir      string `yaml:"raw_dir" mapstructure:"raw_dir"`
	DerivedDir  string `yaml:"derived_dir" mapstructure:"derived_dir"`
}

// CrosswalkConfig configures the county -> CZ -> CBSA crosswalk build.
type CrosswalkConfig struct {
	CBSASkipRows     int    `yaml:"cbsa_skip_rows" mapstructure:"cbsa_skip_rows"`
	PopulationColumn string `yaml:"population_column" mapstructure:"population_column"`
}

// FootprintConfig configures the streaming spell aggregation.
type FootprintConfig struct {
	ChunkRows      int     `yaml:"chunk_rows" mapstructure:"chunk_rows"`
	TestRows       int     `yaml:"test_rows" mapstructure:"test_rows"`
	CoreMinSpells  int     `yaml:"core_min_spells" mapstructure:"core_min_spells"`
	CoreMinShare   float64 `yaml:"core_min_share" mapstructure:"core_min_share"`
	BaselineYear   int     `yaml:"baseline_year" mapstructure:"baseline_year"`
	DispersionYear int     `yaml:"dispersion_year" mapstructure:"dispersion_year"`
}

// PanelConfig configures derived panel variables.
type PanelConfig struct {
	StartupMaxAge int     `yaml:"startup_max_age" mapstructure:"startup_max_age"`
	PostYear      int     `yaml:"post_year" mapstructure:"post_year"`
	PostHalf      int     `yaml:"post_half" mapstructure:"post_half"`
	WinsorLower   float64 `yaml:"winsor_lower" mapstructure:"winsor_lower"`
	WinsorUpper   float64 `yaml:"winsor_upper" mapstructure:"winsor_upper"`
}

// StoreConfig configures the SQLite table store. Relative paths resolve
// against the data directory.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PublishConfig configures the optional Postgres publisher.
type PublishConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("paths.project_root", "")
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.raw_dir", "raw")
	v.SetDefault("paths.derived_dir", "derived")
	v.SetDefault("crosswalk.cbsa_skip_rows", 2)
	v.SetDefault("crosswalk.population_column", "population")
	v.SetDefault("footprint.chunk_rows", 1_000_000)
	v.SetDefault("footprint.test_rows", 0)
	v.SetDefault("footprint.core_min_spells", 3)
	v.SetDefault("footprint.core_min_share", 0.10)
	v.SetDefault("footprint.baseline_year", 2019)
	v.SetDefault("footprint.dispersion_year", 2019)
	v.SetDefault("panel.startup_max_age", 10)
	v.SetDefault("panel.post_year", 2020)
	v.SetDefault("panel.post_half", 1)
	v.SetDefault("panel.winsor_lower", 0.01)
	v.SetDefault("panel.winsor_upper", 0.99)
	v.SetDefault("store.path", "derived/tables.db")
	v.SetDefault("publish.database_url", "")
	v.SetDefault("publish.schema", "research")
	v.SetDefault("metrics.textfile", "")

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

	// PROJECT_ROOT is shared with the analysis scripts, so it is read unprefixed.
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		cfg.Paths.ProjectRoot = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges that would otherwise surface as confusing
// results deep inside a build.
func (c *Config) Validate() error {
	if c.Footprint.ChunkRows <= 0 {
		return eris.Errorf("config: footprint.chunk_rows must be positive, got %d", c.Footprint.ChunkRows)
	}
	if c.Footprint.TestRows < 0 {
		return eris.Errorf("config: footprint.test_rows must be >= 0, got %d", c.Footprint.TestRows)
	}
	if c.Footprint.CoreMinShare < 0 || c.Footprint.CoreMinShare > 1 {
		return eris.Errorf("config: footprint.core_min_share must be in [0,1], got %g", c.Footprint.CoreMinShare)
	}
	if c.Panel.PostHalf != 1 && c.Panel.PostHalf != 2 {
		return eris.Errorf("config: panel.post_half must be 1 or 2, got %d", c.Panel.PostHalf)
	}
	if c.Panel.WinsorLower < 0 || c.Panel.WinsorUpper > 1 || c.Panel.WinsorLower >= c.Panel.WinsorUpper {
		return eris.Errorf("config: invalid winsor bounds [%g, %g]", c.Panel.WinsorLower, c.Panel.WinsorUpper)
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
