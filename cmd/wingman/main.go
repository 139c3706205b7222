package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/DevRickLin/wingman/internal/conf"

	_ "time/tzdata"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// RootFlags override environment configuration for every command
type RootFlags struct {
	EnvFile   string
	DataDir   string
	LogLevel  string
	LogFormat string
}

// BindFlags registers the root flags
func (f *RootFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.EnvFile, "env-file", ".env", "Environment file to load before reading configuration")
	fs.StringVar(&f.DataDir, "data-dir", "", "Data directory (overrides WINGMAN_DATA_DIR)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides WINGMAN_LOG_LEVEL)")
	fs.StringVar(&f.LogFormat, "log-format", "", "Log format: console or json (overrides WINGMAN_LOG_FORMAT)")
}

// Load reads the env file and environment, then applies flag overrides
func (f *RootFlags) Load() (*conf.Config, error) {
	if f.EnvFile != "" {
		if err := godotenv.Load(f.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f.EnvFile, err)
		}
	}

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
		// Re-derive the client paths that default under the data directory
		if os.Getenv("CLIENT_INBOX_PATH") == "" {
			cfg.Client.InboxPath = ""
		}
		if os.Getenv("CLIENT_OUTBOX_PATH") == "" {
			cfg.Client.OutboxPath = ""
		}
		cfg.ApplyDefaults()
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		cfg.LogFormat = f.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	flags := &RootFlags{}
	cmd := &cobra.Command{
		Use:   "wingman",
		Short: "Dating-app reply assistant",
		Long: `wingman reads match conversations, drafts replies in a configurable
personality, and sends them automatically or after operator approval.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewServeCommand(flags),
		NewPassCommand(flags),
		NewOutreachCommand(flags),
		NewSwipeCommand(flags),
		NewPendingCommand(flags),
		NewApproveCommand(flags),
		NewDiscardCommand(flags),
		NewRejectCommand(flags),
		NewUnrejectCommand(flags),
		NewUsageCommand(flags),
		NewStatsCommand(flags),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
