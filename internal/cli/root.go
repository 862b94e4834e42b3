// Package cli implements the cdfctl command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cogdata/go-cdf-client/core"
	"github.com/cogdata/go-cdf-client/rest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by every command of one invocation.
type app struct {
	cfgFile string
	cfg     *Config
	logger  *zap.Logger
	rest    *rest.CogniteRest
}

// client builds the platform client on first use.
func (a *app) client(ctx context.Context) (*rest.CogniteRest, error) {
	if a.rest != nil {
		return a.rest, nil
	}
	config, err := a.cfg.ClientConfig(ctx, a.logger)
	if err != nil {
		return nil, err
	}
	if a.rest, err = rest.NewCogniteRest(config); err != nil {
		return nil, err
	}
	return a.rest, nil
}

func (a *app) render(w io.Writer, r core.Renderable) error {
	var out string
	switch a.cfg.Output {
	case "json":
		out = r.PrettyJson("  ")
	case "yaml":
		out = r.PrettyYaml()
	default:
		out = r.PrettyTable()
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// NewRootCmd creates the cdfctl root command.
func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "cdfctl",
		Short:   "Command line client for Cognite Data Fusion",
		Version: core.ClientVersion(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := LoadConfig(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file")
	flags.String("project", "", "Project name")
	flags.String("base-url", "", "Platform base URL")
	flags.String("api-key", "", "API key")
	flags.String("api-version", "", "API version (v1 or playground)")
	flags.String("client-id", "", "OAuth2 client id (client credentials flow)")
	flags.String("client-secret", "", "OAuth2 client secret")
	flags.String("token-url", "", "OAuth2 token URL")
	flags.StringSlice("scopes", nil, "OAuth2 scopes")
	flags.StringP("output", "o", "", "Output format (table|json|yaml)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newSequencesCommand(a))
	rootCmd.AddCommand(newEventsCommand(a))
	rootCmd.AddCommand(newTypesCommand(a))
	rootCmd.AddCommand(newFilesCommand(a))
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
