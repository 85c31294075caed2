package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mahdiidarabi/keyscan/internal/config"
	klog "github.com/mahdiidarabi/keyscan/internal/log"
)

// NewRootCmd creates the root command for keyscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyscan",
		Short: "Resumable search of a bounded secp256k1 key range",
		Long: `keyscan enumerates candidate private keys inside a bounded range and
checks whether the derived address (or HASH160) matches a target.

Three enumeration strategies are available: uniform sampling at a fixed
percentage step, an exhaustive walk, and a guided depth-first search over the
implicit binary tree of integers, optionally restricted to the path prefixes
that were frequent among historically solved keys.

Progress is checkpointed so that an interrupted scan resumes where it stopped.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv()
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: ./keyscan.yaml or $XDG_CONFIG_HOME/keyscan/config.yaml)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewFilterCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDotEnv loads .env from the working directory when present so that
// ${VAR} references in the config file can be resolved.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig builds a Config from defaults and the config file. An explicit
// --config path that does not exist is an error; a missing default file is not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	found := config.FindConfigFile(path)
	switch {
	case found != "":
		if err := config.Load(found, cfg); err != nil {
			return nil, err
		}
	case path != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	}

	if getVerboseFlag(cmd) {
		cfg.Verbose = true
	}
	return cfg, nil
}

// setupLogger creates the masking logger used by every command.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.JSONLogs {
		return klog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return klog.NewSecureLogger(w, cfg.Verbose)
}
