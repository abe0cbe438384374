package app

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// EnvPrefix prefixes every environment variable the config reads,
// e.g. CURATOR_TARGET_SIZE.
const EnvPrefix = "CURATOR"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Selection defaults
	TargetSize   int
	MinPerSource int
	Seed         uint64

	// Reconciliation defaults
	IDField      string
	SourcePrefix string

	// Run store
	DBPath string

	// Search API
	SearchBaseURL string
	SearchRate    float64
	AuthScheme    string
	APIKey        string

	// Logging configuration. LogLevel is the explicit --log-level;
	// EnvLogLevel comes from LOG_LEVEL and yields to -v/-q.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by the root command)
// 2. Environment variables (CURATOR_*)
// 3. .env files
// 4. Config file (configFile, or ~/.curator.yaml / ./.curator.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config file", configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".curator")

		// A missing config file is fine; a broken one is not
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, errors.NewConfigError("config file", v.ConfigFileUsed(), err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		TargetSize:   v.GetInt("target_size"),
		MinPerSource: v.GetInt("min_per_source"),
		Seed:         v.GetUint64("seed"),

		IDField:      v.GetString("id_field"),
		SourcePrefix: v.GetString("source_prefix"),

		DBPath: v.GetString("db_path"),

		SearchBaseURL: v.GetString("search_base_url"),
		SearchRate:    v.GetFloat64("search_rate"),
		AuthScheme:    v.GetString("auth_scheme"),
		APIKey:        v.GetString("api_key"),

		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers the built-in defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("target_size", constants.DefaultTargetSize)
	v.SetDefault("min_per_source", constants.DefaultMinPerSource)
	v.SetDefault("seed", constants.DefaultSeed)
	v.SetDefault("id_field", constants.DefaultIDField)
	v.SetDefault("source_prefix", constants.DefaultSourcePrefix)
	v.SetDefault("search_base_url", constants.DefaultSearchBaseURL)
	v.SetDefault("search_rate", constants.DefaultSearchRate)
}

// Validate checks values that would make every command fail.
func (c *Config) Validate() error {
	switch {
	case c.TargetSize <= 0:
		return errors.NewConfigError("target_size", "must be positive", nil)
	case c.MinPerSource < 0:
		return errors.NewConfigError("min_per_source", "cannot be negative", nil)
	case c.SearchRate < 0:
		return errors.NewConfigError("search_rate", "cannot be negative", nil)
	case c.IDField == "":
		return errors.NewConfigError("id_field", "cannot be empty", nil)
	}
	return nil
}

// Settings returns the command defaults carried by the config.
func (c *Config) Settings() appcontext.Settings {
	return appcontext.Settings{
		TargetSize:    c.TargetSize,
		MinPerSource:  c.MinPerSource,
		Seed:          c.Seed,
		IDField:       c.IDField,
		SourcePrefix:  c.SourcePrefix,
		DBPath:        c.DBPath,
		SearchBaseURL: c.SearchBaseURL,
		SearchRate:    c.SearchRate,
		AuthScheme:    c.AuthScheme,
		APIKey:        c.APIKey,
		NoColor:       c.NoColor,
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are never overridden, so the
// first file to set a key wins: .env.local before .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
