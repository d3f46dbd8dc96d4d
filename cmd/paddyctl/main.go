// Command paddyctl runs the paddy disease pipeline from a terminal: it
// classifies local leaf images, looks up treatments and prints advice
// without going through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/pkg/config"
	apperrors "github.com/zatekoja/mypadicare/pkg/errors"
	"github.com/zatekoja/mypadicare/pkg/secrets"
)

var (
	// Global flags
	lang    string
	jsonOut bool
	verbose bool
)

// newApp builds the service graph from the environment. Tests replace it.
var newApp = func(ctx context.Context) (*bootstrap.App, error) {
	if _, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv()); err != nil {
		return nil, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return bootstrap.New(ctx, cfg, nil)
}

var rootCmd = &cobra.Command{
	Use:   "paddyctl",
	Short: "Paddy leaf disease detection from the command line",
	Long: `paddyctl classifies paddy leaf images and prints the result with
treatment guidance, using the same configuration as the API server.

Available subcommands:
  classify  - Classify a leaf image and print the full result
  treatment - Show the treatment record for a disease
  recommend - Print advisory text for a disease and confidence
  health    - Report classifier and dataset availability
  evaluate  - Score the classifier against a labelled image manifest`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
			Level(level).
			With().Timestamp().
			Logger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en", "display language (en, ms, ja)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(classifyCmd, treatmentCmd, recommendCmd, healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

// userMessage strips the error type and cause from application errors.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// withApp runs fn against a freshly built service graph.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
