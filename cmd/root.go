package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/formbuilder/internal/logging"
	"github.com/lehigh-university-libraries/formbuilder/internal/surveycmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string
	var logFormat string

	cmd := &cobra.Command{
		Use:   "formbuilder",
		Short: "Build image survey forms from a shared folder of images",
		Long: `Formbuilder turns a folder of images into a set of survey forms that ask
respondents one multiple choice question per image.

It records which image each question shows, both in a manifest stored next to
the images and in a local run report, so collected answers can be traced back
to their source images.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if !cmd.Flags().Changed("log-level") && os.Getenv("LOG_LEVEL") != "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			logger, err := logging.New(os.Stderr, logFormat, logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error; env LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	// Add subcommands
	cmd.AddCommand(surveycmd.NewBuildCmd())
	cmd.AddCommand(surveycmd.NewResolveCmd())
	cmd.AddCommand(surveycmd.NewCollectCmd())

	return cmd
}
