package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"ragbackend/config"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the server configuration",
	}
	configCmd.AddCommand(newConfigCheckCmd())
	return configCmd
}

func newConfigCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration without starting the server",
		Long: `Load the env file and environment exactly as the server would, validate
the result and print it. Credentials in MONGODB_URI are masked. Exits with
status 1 when the configuration is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfig(cmd.OutOrStdout())
		},
	}
}

// checkConfig prints the effective configuration and the validation outcome
func checkConfig(out io.Writer) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		errorColor.Fprintf(out, "✗ %v\n", err)
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		errorColor.Fprintf(out, "✗ %v\n", err)
		return err
	}

	printSection(out, "Configuration")
	renderConfig(out, cfg.Redacted())
	fmt.Fprintln(out)

	if err := cfg.Validate(); err != nil {
		errorColor.Fprintf(out, "✗ Configuration is invalid: %v\n", err)
		return fmt.Errorf("configuration check failed: %w", err)
	}

	successColor.Fprintln(out, "✓ Configuration is valid")
	return nil
}

func renderConfig(out io.Writer, cfg *config.Config) {
	metricsPort := "disabled"
	if cfg.Metrics.Port > 0 {
		metricsPort = strconv.Itoa(cfg.Metrics.Port)
	}
	corsOrigin := cfg.CORS.Origin
	if corsOrigin == "" {
		corsOrigin = "* (any origin)"
	}

	printField(out, "MONGODB_URI", cfg.MongoDB.URI)
	printField(out, "PORT", strconv.Itoa(cfg.Server.Port))
	printField(out, "CORS_ORIGIN", corsOrigin)
	printField(out, "NODE_ENV", cfg.Environment)
	printField(out, "LOG_DIR", cfg.Log.Dir)
	printField(out, "LOG_MAX_SIZE_MB", strconv.Itoa(cfg.Log.MaxSizeMB))
	printField(out, "LOG_MAX_BACKUPS", strconv.Itoa(cfg.Log.MaxBackups))
	printField(out, "METRICS_PORT", metricsPort)
	printField(out, "JSON_BODY_LIMIT", strconv.FormatInt(cfg.JSONBodyLimit, 10))
}

// printSection prints a section header
func printSection(out io.Writer, title string) {
	headerColor.Fprintf(out, "  %s\n", title)
	headerColor.Fprintln(out, "  "+strings.Repeat("─", len(title)))
}

// printField prints a key-value field
func printField(out io.Writer, key, value string) {
	if value == "" {
		value = "(not set)"
	}
	fmt.Fprintf(out, "  %-18s %s\n", key+":", value)
}
