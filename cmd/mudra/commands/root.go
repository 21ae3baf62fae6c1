// Package commands implements the mudra command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/version"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mudra",
	Short: "Sign language gesture inference",
	Long: `mudra - sign language gesture inference

Serves predictions over HTTP, recognizes signs from a webcam and manages
reference sign dictionaries.
Settings come from MUDRA_* environment variables; flags override them.`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file with MUDRA_* settings")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(dictCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger described by cfg on top of the logging defaults.
func newLogger() (*zap.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.LogFormat != "" {
		lc.Format = cfg.LogFormat
	}
	if cfg.LogLevel != "" {
		lc.Level = cfg.LogLevel
	}
	return logging.NewLogger(lc)
}
