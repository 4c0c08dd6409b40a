package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fgeck/gomysqlmb/internal/config"
	"github.com/fgeck/gomysqlmb/internal/console"
	"github.com/fgeck/gomysqlmb/internal/logging"
	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Global flags.
	configFile string
	envFile    string
	verbose    bool
	quiet      bool
	jsonOutput bool
	noMail     bool

	// State prepared before every subcommand.
	cfg       *models.MaintenanceConfig
	logger    = zerolog.Nop()
	printer   = console.Discard()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "gomysqlmb",
	Short: "MySQL maintenance buddy: backup, restore, optimize and clean up databases",
	Long: `gomysqlmb keeps MySQL databases backed up and tidy:
  - dump and compress databases into dated archives
  - restore databases from the archives of a given day
  - check and optimize all tables
  - expire archives older than the retention time
  - report results by mail, Telegram and Prometheus textfile metrics

Use as a one-shot command with an external scheduler (cron, systemd timer, etc.)
or run the built-in scheduler with "gomysqlmb schedule".`,
	PersistentPreRunE: prepare,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Version:           Version,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file")
	pf.StringVar(&envFile, "env-file", "", "load environment variables from a .env file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only, no progress)")
	pf.BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	pf.StringP("user", "u", "", "MySQL user (default \"backup\")")
	pf.StringP("password", "p", "", "MySQL password")
	pf.String("host", "", "MySQL host (default \"localhost\")")
	pf.Int("port", 0, "MySQL port")
	pf.StringSliceP("databases", "d", nil, "databases to process: all, user, system or a comma separated list")
	pf.IntP("retention-time", "r", 0, "days to keep archives (default 30, 0 disables cleanup after backup)")
	pf.IntP("time-offset", "t", 0, "day offset of the archives to restore (default -1)")
	pf.StringP("mail-to", "m", "", "mail the report to this address")
	pf.Bool("mail", false, "send the report by mail (default: on when --mail-to is set)")
	pf.BoolVar(&noMail, "no-mail", false, "never send the report by mail")
	pf.Bool("optimize", false, "optimize all databases after a successful backup")
	pf.StringP("list-type", "l", "", "what to list: mysql or backup (default \"mysql\")")
	pf.BoolP("force", "f", false, "really delete expired archives")
	pf.String("backup-path", "", "backup directory (default \"/var/backups/mysql\")")
	pf.String("mysql-path", "", "directory holding mysql, mysqldump and mysqlcheck")
	pf.String("date-format", "", "strftime date format of archive names (default \"%Y-%m-%d\")")
	pf.String("catalog", "", "database catalog backend: client or driver (default \"client\")")
	pf.Duration("tool-timeout", 0, "timeout per external tool invocation (0 disables)")
	pf.String("log-file", "", "log file (default \"/var/log/mysqlmb/mysqlmb.log\")")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	rootCmd.MarkFlagsMutuallyExclusive("mail", "no-mail")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// prepare loads the configuration and sets up logging for the subcommand.
func prepare(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
	}

	parser := config.NewParser()
	if err := parser.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	switch {
	case quiet:
		parser.Set("options.verbose", false)
	case verbose:
		parser.Set("options.verbose", true)
	}
	if noMail {
		parser.Set("options.mail", false)
	}

	loaded, err := parser.Load(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	opts := logging.Options{
		Verbose:    verbose,
		Quiet:      quiet,
		JSON:       jsonOutput,
		Console:    os.Stderr,
		File:       cfg.Paths.LogFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
	// Validation never touches the log file.
	if cmd.Name() == validateCmd.Name() {
		opts.File = ""
	}

	l, closer, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	logger = l
	logCloser = closer
	printer = console.Stdout(cfg.Options.Verbose && !jsonOutput)

	logger.Debug().
		Str("config", configFile).
		Str("command", cmd.Name()).
		Msg("configuration loaded")
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if logCloser != nil {
			if err := logCloser.Close(); err != nil {
				fmt.Fprintln(os.Stderr, "closing log file:", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
