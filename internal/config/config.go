// Package config loads and validates the application configuration from
// (in increasing priority) built-in defaults, a JSON config file, command
// line flags and environment variables. The session cookie signing key has
// no default on purpose: starting without one is a configuration error.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/thoas/go-funk"
)

// Config holds every runtime setting of the authentication gateway.
type Config struct {
	RunAddr                 string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel                string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DBFileName              string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"filepath"`
	DatabaseDSN             string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout     time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	MigrationsDir           string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	AuthCookieName          string        `env:"AUTH_COOKIE_NAME" json:"auth_cookie_name"`
	SessionSigningSecretKey string        `env:"SESSION_SIGNING_SECRET_KEY" json:"session_signing_secret_key" validate:"required,base64url"`
	ConfigFilePath          string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBFileName:          "",
	DatabaseDSN:         "",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/authgate/migrations",
	AuthCookieName:      "authgate_session",
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := []string{"debug", "info", "warning", "error", "fatal"}

	return funk.ContainsString(allowedLogLevels, fieldLevel.Field().String())
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func (c *Config) applyJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, c)
}

func (c *Config) applyNonEmpty(overrides Config) {
	if overrides.RunAddr != "" {
		c.RunAddr = overrides.RunAddr
	}

	if overrides.LogLevel != "" {
		c.LogLevel = overrides.LogLevel
	}

	if overrides.DBFileName != "" {
		c.DBFileName = overrides.DBFileName
	}

	if overrides.DatabaseDSN != "" {
		c.DatabaseDSN = overrides.DatabaseDSN
	}

	if overrides.DBConnectionTimeout != 0 {
		c.DBConnectionTimeout = overrides.DBConnectionTimeout
	}

	if overrides.MigrationsDir != "" {
		c.MigrationsDir = overrides.MigrationsDir
	}

	if overrides.AuthCookieName != "" {
		c.AuthCookieName = overrides.AuthCookieName
	}

	if overrides.SessionSigningSecretKey != "" {
		c.SessionSigningSecretKey = overrides.SessionSigningSecretKey
	}
}

// InitOption customizes the behavior of New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing disables command line flag parsing.
// Useful in tests, where the test binary owns the flag set.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New assembles the configuration from defaults, the optional JSON config
// file, command line flags and environment variables, then validates it.
// A missing or undecodable session signing key makes New fail.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	valuesFromFlags := Config{}
	if !options.disableFlagsParsing {
		flag.StringVar(&valuesFromFlags.RunAddr, "a", "", "address and port to run server")
		flag.StringVar(&valuesFromFlags.LogLevel, "l", "", "logger level")
		flag.StringVar(&valuesFromFlags.DBFileName, "f", "", "JSON file name with the users database")
		flag.StringVar(&valuesFromFlags.DatabaseDSN, "d", "", "A string with the database connection details")
		flag.StringVar(&valuesFromFlags.MigrationsDir, "m", "", "directory with the goose migrations")
		flag.StringVar(&valuesFromFlags.SessionSigningSecretKey, "s", "", "base64url-encoded session cookie signing key")
		flag.StringVar(&valuesFromFlags.ConfigFilePath, "c", "", "path to a JSON config file")
		flag.Parse()
	}

	configFilePath := valuesFromFlags.ConfigFilePath
	if envPath := os.Getenv("CONFIG"); envPath != "" {
		configFilePath = envPath
	}
	if configFilePath != "" {
		if err := values.applyJSONFile(configFilePath); err != nil {
			return nil, err
		}
	}

	values.applyNonEmpty(valuesFromFlags)

	valuesFromEnv := Config{}
	err = env.Parse(&valuesFromEnv)
	if err != nil {
		return nil, err
	}
	values.applyNonEmpty(valuesFromEnv)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
