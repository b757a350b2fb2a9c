package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/rulekit/internal/domain/engine"
	"github.com/GriffinCanCode/rulekit/internal/domain/source"
)

func sourceCmd(opts *options) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "source <rules.yaml|toml|json> [file|url|-]",
		Short: "Apply a rule set to a document and print the records",
		Long: `Apply a rule set to a document. Without a document argument the rule
set's own url is fetched.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Load(args[0])
			if err != nil {
				return err
			}

			e, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer closeAll(e, logger)

			target := src.URL
			if len(args) > 1 {
				target = args[1]
			}
			if target == "" {
				return fmt.Errorf("source %s has no url, pass a document", src.Name)
			}
			text, fetched, err := load(cmd, e, target)
			if err != nil {
				return err
			}
			if base == "" {
				base = fetched
			}

			records, err := extract(cmd.Context(), e, src, text, base)
			if err != nil {
				return err
			}
			logger.Debug("records extracted", zap.String("source", src.Key()), zap.Int("count", len(records)))
			return opts.print(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().StringVarP(&base, "base", "b", "", "base URL for relative links")
	return cmd
}

// extract runs a rule set over one document with a fresh analyzer
func extract(ctx context.Context, e *engine.Engine, src *source.Source, text, base string) ([]source.Record, error) {
	a, err := e.NewAnalyzer()
	if err != nil {
		return nil, err
	}
	if err := a.SetContent(text, base); err != nil {
		return nil, err
	}
	records, err := a.Extract(ctx, src)
	if records == nil {
		records = []source.Record{}
	}
	return records, err
}
