// Package cmd provides the command-line interface of the RAG backend.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ragbackend/bootstrap"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

// Global flags
var (
	envFile string
	noColor bool
)

// NewRootCmd creates the rag-backend command. Without a subcommand it runs
// the HTTP server until interrupted.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rag-backend",
		Short: "Run the RAG backend HTTP server",
		Long: `Run the RAG backend HTTP server.

Configuration is read from the environment, after loading the file named by
--env-file. MONGODB_URI is required; PORT defaults to 5000.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

// runServer builds the application and serves until SIGINT or SIGTERM
func runServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(bootstrap.WithEnvFile(envFile))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() { _ = app.Logger.Sync() }()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	return nil
}
