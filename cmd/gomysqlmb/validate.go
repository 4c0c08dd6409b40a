package main

import (
	"fmt"

	"github.com/fgeck/gomysqlmb/internal/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration assembled from file, environment and flags
without contacting the server, then print it with secrets redacted.`,
	RunE: validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if err := config.ValidateFor(cfg, "validate"); err != nil {
		logger.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Print(config.Describe(cfg))
	return nil
}
