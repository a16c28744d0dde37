package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConnectionString is returned when MONGODB_URI is absent. The
// server must never reach the listening state without it.
var ErrMissingConnectionString = errors.New("MONGODB_URI is not defined in environment variables")

const (
	// DefaultPort is the HTTP port used when PORT is unset.
	DefaultPort = 5000
	// DefaultLogDir holds error.log and combined.log.
	DefaultLogDir = "logs"
	// DefaultLogMaxSizeMB caps each log file at 5242880 bytes before rotation.
	DefaultLogMaxSizeMB = 5
	// DefaultLogMaxBackups is the number of rotated files kept per log. It
	// must be at least 1: lumberjack reads 0 as "keep everything".
	DefaultLogMaxBackups = 5
	// DefaultJSONBodyLimit matches the 100kb limit of the JSON body parser.
	DefaultJSONBodyLimit = 100 * 1024

	// EnvironmentProduction is the NODE_ENV value that lowers log verbosity.
	EnvironmentProduction = "production"
)

// MongoDBConfig holds the document store connection settings.
type MongoDBConfig struct {
	URI string `mapstructure:"uri" validate:"mongouri"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Port 0 binds an ephemeral port.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// CORSConfig holds the cross-origin settings. An empty Origin allows any origin.
type CORSConfig struct {
	Origin string `mapstructure:"origin"`
}

// LogConfig holds the file sink settings.
type LogConfig struct {
	Dir        string `mapstructure:"dir" validate:"required"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=1"`
}

// MetricsConfig holds the Prometheus listener settings. Port 0 disables it.
type MetricsConfig struct {
	Port int `mapstructure:"port" validate:"min=0,max=65535"`
}

// Config holds all configuration for the RAG backend
type Config struct {
	MongoDB       MongoDBConfig `mapstructure:"mongodb"`
	Server        ServerConfig  `mapstructure:"server"`
	CORS          CORSConfig    `mapstructure:"cors"`
	Log           LogConfig     `mapstructure:"log"`
	Metrics       MetricsConfig `mapstructure:"metrics"`
	Environment   string        `mapstructure:"environment"`
	JSONBodyLimit int64         `mapstructure:"json_body_limit" validate:"min=1"`
}

// envNames maps validated fields to the environment variables that set them,
// so validation errors point operators at something they can change.
var envNames = map[string]string{
	"Config.MongoDB.URI":    "MONGODB_URI",
	"Config.Server.Port":    "PORT",
	"Config.Log.Dir":        "LOG_DIR",
	"Config.Log.MaxSizeMB":  "LOG_MAX_SIZE_MB",
	"Config.Log.MaxBackups": "LOG_MAX_BACKUPS",
	"Config.Metrics.Port":   "METRICS_PORT",
	"Config.JSONBodyLimit":  "JSON_BODY_LIMIT",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("mongouri", func(fl validator.FieldLevel) bool {
		uri := fl.Field().String()
		return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
	})
	return v
}

// setDefaults registers the default value of every setting
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("cors.origin", "")
	v.SetDefault("environment", "")
	v.SetDefault("log.dir", DefaultLogDir)
	v.SetDefault("log.max_size_mb", DefaultLogMaxSizeMB)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("metrics.port", 0)
	v.SetDefault("json_body_limit", DefaultJSONBodyLimit)
}

// loadFromEnv binds every setting to its environment variable
func loadFromEnv(v *viper.Viper) {
	v.AutomaticEnv()

	_ = v.BindEnv("mongodb.uri", "MONGODB_URI")
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("cors.origin", "CORS_ORIGIN")
	_ = v.BindEnv("environment", "NODE_ENV")
	_ = v.BindEnv("log.dir", "LOG_DIR")
	_ = v.BindEnv("log.max_size_mb", "LOG_MAX_SIZE_MB")
	_ = v.BindEnv("log.max_backups", "LOG_MAX_BACKUPS")
	_ = v.BindEnv("metrics.port", "METRICS_PORT")
	_ = v.BindEnv("json_body_limit", "JSON_BODY_LIMIT")
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables already set in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig reads the configuration from the process environment. It only
// fails when a value cannot be decoded; call Validate before using the result.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	loadFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.MongoDB.URI = strings.TrimSpace(config.MongoDB.URI)

	return &config, nil
}

// Validate checks the configuration. A missing connection string is reported
// as ErrMissingConnectionString.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return ErrMissingConnectionString
	}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return fmt.Errorf("config validation failed: %w", describeValidationErrors(fieldErrs))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// describeValidationErrors turns validator errors into operator-facing messages
func describeValidationErrors(fieldErrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name, ok := envNames[fe.Namespace()]
		if !ok {
			name = fe.Namespace()
		}

		switch fe.Tag() {
		case "mongouri":
			msgs = append(msgs, fmt.Sprintf("invalid %s: must start with mongodb:// or mongodb+srv://", name))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s cannot be empty", name))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("invalid %s: %v violates %s=%s", name, fe.Value(), fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s: failed %s", name, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// IsProduction reports whether NODE_ENV is production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// ListenAddr returns the address the HTTP listener binds to
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// MetricsAddr returns the address of the metrics listener, or "" when disabled
func (c *Config) MetricsAddr() string {
	if c.Metrics.Port == 0 {
		return ""
	}
	return fmt.Sprintf(":%d", c.Metrics.Port)
}
