package bootstrap

import (
	"fmt"

	"ragbackend/config"

	"go.uber.org/zap"
)

// InitConfig loads the .env file, if any, and decodes the configuration.
// It runs before the logger exists, so failures are reported on stderr.
// Validation is a separate step; see ValidateConfig.
func InitConfig(envFile string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		printFatal("Failed to load environment file",
			fmt.Sprintf("%v\n  Remediation: Fix the syntax of %s or pass --env-file with another path", err, envFile))
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		printFatal("Failed to load config",
			fmt.Sprintf("%v\n  Remediation: Check that numeric settings such as PORT hold integers", err))
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// ValidateConfig validates cfg and reports the outcome through the logger.
func ValidateConfig(cfg *config.Config, sugar *zap.SugaredLogger) error {
	if err := cfg.Validate(); err != nil {
		sugar.Errorw(err.Error(), "error", err)
		return err
	}

	sugar.Infow("Config loaded",
		"port", cfg.Server.Port,
		"environment", cfg.Environment,
		"mongodb_uri", config.RedactURI(cfg.MongoDB.URI),
		"cors_origin", cfg.CORS.Origin,
		"log_dir", cfg.Log.Dir,
		"metrics_port", cfg.Metrics.Port)

	return nil
}
