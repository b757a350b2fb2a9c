package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/rulekit/internal/domain/engine"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/config"
	"github.com/GriffinCanCode/rulekit/internal/infrastructure/logging"
)

var (
	version = "dev"
	commit  = "none"
)

// options are the persistent flags shared by every subcommand
type options struct {
	logLevel string
	dev      bool
	noScript bool
	compact  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "rulectl",
		Short: "Evaluate extraction rules against documents",
		Long: `rulectl runs rulekit rules against local files, URLs or stdin.

Run 'rulectl eval' for a single rule, 'rulectl source' for a rule set and
'rulectl batch' to apply a rule set to every matching file under a tree.
Engine settings come from the same environment variables as the server.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "development log format")
	root.PersistentFlags().BoolVar(&opts.noScript, "no-script", false, "disable script stages")
	root.PersistentFlags().BoolVar(&opts.compact, "compact", false, "print compact JSON")

	root.AddCommand(
		evalCmd(opts),
		sourceCmd(opts),
		batchCmd(opts),
		versionCmd(),
	)
	return root
}

// setup builds the logger and engine for one command run
func (o *options) setup() (*engine.Engine, *logging.Logger, error) {
	cfg := config.LoadOrDefault()
	if o.noScript {
		cfg.Script.Enabled = false
	}

	logger, err := logging.New(logging.Config{Level: o.logLevel, Development: o.dev})
	if err != nil {
		return nil, nil, err
	}
	e, err := engine.New(cfg, logger.Component("engine"), nil)
	if err != nil {
		return nil, nil, err
	}
	return e, logger, nil
}

func (o *options) print(w io.Writer, v any) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	if !o.compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// load reads a document from a path, URL or stdin ("-" or empty)
func load(cmd *cobra.Command, e *engine.Engine, target string) (string, string, error) {
	if target == "" || target == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "", nil
	}
	return e.Load(cmd.Context(), target)
}

func closeAll(e *engine.Engine, logger *logging.Logger) {
	if err := e.Close(); err != nil {
		logger.Warn("failed to close engine", zap.Error(err))
	}
	_ = logger.Sync()
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rulectl %s (%s)\n", version, strings.TrimSpace(commit))
		},
	}
}
