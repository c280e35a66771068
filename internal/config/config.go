// Package config provides configuration management for the threadsync
// service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Setup initializes viper: .env, config file discovery, environment
// overrides, and defaults. Call once, before Load. The config file is
// optional; environment variables and defaults cover a fileless start.
func Setup(cfgFile string) error {
	// .env first so its values are visible when viper reads the env.
	// godotenv never overwrites variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case cfgFile == "" && errors.As(err, &notFound):
			// No config file is fine: defaults plus environment apply.
		case cfgFile != "":
			return fmt.Errorf("failed to read config file %q: %w", cfgFile, err)
		default:
			fmt.Fprintf(os.Stderr, "Warning: config file not read: %v\n", err)
		}
	}

	return bindEnvVars()
}

// Load unmarshals the current viper state into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers defaults for every key so AutomaticEnv overrides
// reach Unmarshal even without a config file.
func setDefaults() {
	viper.SetDefault("server.address", DefaultServerAddress)
	viper.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viper.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viper.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)
	viper.SetDefault("server.debug", false)

	viper.SetDefault("database.host", DefaultDBHost)
	viper.SetDefault("database.port", DefaultDBPort)
	viper.SetDefault("database.user", DefaultDBUser)
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", DefaultDBName)
	viper.SetDefault("database.sslmode", DefaultDBSSLMode)
	viper.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	viper.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	viper.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)

	viper.SetDefault("fetcher.user_agent", DefaultUserAgent)
	viper.SetDefault("fetcher.request_timeout", DefaultRequestTimeout)
	viper.SetDefault("fetcher.request_delay", DefaultRequestDelay)
	viper.SetDefault("fetcher.parallelism", DefaultParallelism)
	viper.SetDefault("fetcher.max_pages", DefaultMaxPages)
	viper.SetDefault("fetcher.cookie", "")

	viper.SetDefault("sync.max_concurrent", DefaultMaxConcurrentSyncs)
	viper.SetDefault("sync.fetch_timeout", DefaultFetchTimeout)

	viper.SetDefault("schedule.timezone", DefaultTimezone)
	viper.SetDefault("schedule.seed_file", "")

	viper.SetDefault("search.enabled", false)
	viper.SetDefault("search.addresses", []string{})
	viper.SetDefault("search.index_name", DefaultSearchIndex)
	viper.SetDefault("search.timeout", DefaultSearchTimeout)

	viper.SetDefault("logging.level", DefaultLogLevel)
	viper.SetDefault("logging.encoding", DefaultLogEncoding)
	viper.SetDefault("logging.development", false)
	viper.SetDefault("logging.output_paths", []string{"stdout"})
}

// bindEnvVars maps conventional environment variable names onto config
// keys, on top of the generic AutomaticEnv mapping.
func bindEnvVars() error {
	bindings := map[string]string{
		"database.host":     "POSTGRES_HOST",
		"database.port":     "POSTGRES_PORT",
		"database.user":     "POSTGRES_USER",
		"database.password": "POSTGRES_PASSWORD",
		"database.name":     "POSTGRES_DB",
		"search.addresses":  "ELASTICSEARCH_ADDRESSES",
		"fetcher.cookie":    "FORUM_COOKIE",
		"logging.level":     "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}
