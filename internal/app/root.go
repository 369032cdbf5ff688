package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sqve/avalanche/internal/commands"
	"github.com/sqve/avalanche/internal/completion"
	"github.com/sqve/avalanche/internal/config"
	"github.com/sqve/avalanche/internal/logger"
)

const Version = "v0.1.0"

// NewRootCommand creates and configures the avalanche root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "avalanche",
		Short:   "Keep local Git branches in step with their remotes",
		Version: Version,
		Long: `Avalanche keeps enrolled local branches synchronized with their remote
counterparts without touching the branch you are working on.

Enroll branches with toggle, then run the daemon or sync on demand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	setupRootCommand(rootCmd)
	return rootCmd
}

func setupRootCommand(rootCmd *cobra.Command) {
	// Commands print their own errors through main
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	setupFlags(rootCmd)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return InitializeConfig(rootCmd)
	}
	if err := registerCommands(rootCmd); err != nil {
		panic(err)
	}
}

func setupFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (shorthand for --log-level=debug)")
	rootCmd.PersistentFlags().Bool("plain", false, "Disable colors and symbols")
	rootCmd.PersistentFlags().String("project", "", "Project directory (default: current directory)")
}

func registerCommands(rootCmd *cobra.Command) error {
	registry, err := commands.Builtin()
	if err != nil {
		return err
	}
	if err := registry.AttachToRoot(rootCmd); err != nil {
		return err
	}
	completion.AddCommand(rootCmd)
	return nil
}

// InitializeConfig loads settings, binds flags and configures logging
func InitializeConfig(rootCmd *cobra.Command) error {
	if err := config.Initialize(); err != nil {
		return err
	}

	bindFlags(rootCmd)
	configureLogging(rootCmd)
	return nil
}

func bindFlags(rootCmd *cobra.Command) {
	bindings := map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"general.plain":  "plain",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
		}
	}
}

func configureLogging(rootCmd *cobra.Command) {
	if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug {
		viper.Set("logging.level", "debug")
	}

	logger.Configure(logger.Config{
		Level:  config.GetString("logging.level"),
		Format: config.GetString("logging.format"),
		Output: os.Stderr,
	})
}
