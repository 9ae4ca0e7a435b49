package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kmrl-ops/induction-cli/internal/eval"
	"github.com/kmrl-ops/induction-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger" mapstructure:"ledger"`
	Planner PlannerConfig `yaml:"planner" mapstructure:"planner"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// LedgerConfig configures the history ledger backend.
type LedgerConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PlannerConfig holds the active planning defaults: the simulation knobs
// used for live plan generation plus the evaluator thresholds. Nothing in
// the engine is hard-coded; the what-if panel perturbs these per run.
type PlannerConfig struct {
	Defaults    model.SimulationConfig `yaml:"defaults" mapstructure:"defaults"`
	Tuning      eval.Tuning            `yaml:"tuning" mapstructure:"tuning"`
	Parallelism int                    `yaml:"parallelism" mapstructure:"parallelism"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
	// SimulateRPS rate-limits the simulate endpoint; simulations are
	// CPU-bound and the dashboard should not stack them up.
	SimulateRPS   float64  `yaml:"simulate_rps" mapstructure:"simulate_rps"`
	SimulateBurst int      `yaml:"simulate_burst" mapstructure:"simulate_burst"`
	CORSOrigins   []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KMRL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.database_url", "induction.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.simulate_rps", 2.0)
	v.SetDefault("server.simulate_burst", 4)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("planner.parallelism", 8)
	v.SetDefault("planner.defaults.service_slots", 0)
	v.SetDefault("planner.defaults.maintenance_capacity", 4)
	v.SetDefault("planner.defaults.cleaning_slots", 6)
	v.SetDefault("planner.defaults.emergency_reserve", 2)
	v.SetDefault("planner.defaults.branding_priority", true)
	v.SetDefault("planner.defaults.weather", string(model.WeatherNormal))
	v.SetDefault("planner.defaults.passenger_demand", string(model.DemandNormal))
	v.SetDefault("planner.defaults.maintenance_urgency", 50)
	v.SetDefault("planner.tuning.fitness_renewal_window_days", 30)
	v.SetDefault("planner.tuning.mileage_deviation_threshold", 0.15)
	v.SetDefault("planner.tuning.cleaning_fresh_window_hours", 48)
	v.SetDefault("planner.tuning.branding_expiry_window_days", 45)

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

	if err := cfg.Planner.Defaults.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: planner defaults")
	}

	return &cfg, nil
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
