package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/chatlogger/internal/config"
	"github.com/edgard/chatlogger/internal/database"
)

// Version is set at build time.
var Version = "dev"

// exitCode carries a non-zero exit status out of a command that already
// logged its failure.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "chatlogger",
		Short: "Record group chat messages and bot replies into a relational database",
		Long: `chatlogger listens to group chats through Telegram and an HTTP ingest API,
filters them by group whitelist and blacklist, and appends every accepted
message and bot reply to the group_msg table.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := run(cmd.Context(), configPath); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config.yaml", "path to configuration file")

	rootCmd.AddCommand(newValidateConfigCmd(&configPath))
	return rootCmd
}

func newValidateConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate the configuration without starting the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), *configPath)
		},
	}
}

func validateConfig(out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	target, err := database.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	fmt.Fprintf(out, "configuration OK (database: %s", target.Dialect)
	if target.Path != "" {
		fmt.Fprintf(out, " at %s", target.Path)
	}
	fmt.Fprintln(out, ")")

	if err := cfg.ValidateHosts(); err != nil {
		fmt.Fprintf(out, "warning: %v\n", err)
	}
	return nil
}

func execute(ctx context.Context) int {
	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var code exitCode
	if errors.As(err, &code) {
		return int(code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
