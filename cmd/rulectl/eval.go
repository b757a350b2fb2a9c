package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/rulekit/internal/domain/analyzer"
	"github.com/GriffinCanCode/rulekit/internal/domain/source"
)

func evalCmd(opts *options) *cobra.Command {
	var (
		rule      string
		op        string
		base      string
		asURL     bool
		unescaped bool
		vars      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "eval [file|url|-]",
		Short: "Evaluate one rule against a document",
		Example: `  rulectl eval page.html --rule 'class.item@a@text' --op list
  rulectl eval https://example.com --rule 'tag.a.0@href' --url
  echo '{"a":1}' | rulectl eval --rule '$.a'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer closeAll(e, logger)

			var target string
			if len(args) > 0 {
				target = args[0]
			}
			text, fetched, err := load(cmd, e, target)
			if err != nil {
				return err
			}
			if base == "" {
				base = fetched
			}

			a, err := e.NewAnalyzer()
			if err != nil {
				return err
			}
			if err := a.SetContent(text, base); err != nil {
				return err
			}
			if len(vars) > 0 {
				a.SetSource(&source.Source{Name: "cli", Variables: vars})
			}

			var evalOpts []analyzer.EvalOption
			if asURL {
				evalOpts = append(evalOpts, analyzer.AsURL())
			}
			if unescaped {
				evalOpts = append(evalOpts, analyzer.Unescaped())
			}

			ctx := cmd.Context()
			switch op {
			case analyzer.OpString:
				s, err := a.GetString(ctx, rule, evalOpts...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			case analyzer.OpList:
				list, err := a.GetStringList(ctx, rule, evalOpts...)
				if err != nil {
					return err
				}
				for _, s := range list {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			case analyzer.OpElement:
				v, err := a.GetElement(ctx, rule)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), analyzer.Export(v))
			case analyzer.OpElements:
				v, err := a.GetElements(ctx, rule)
				if err != nil {
					return err
				}
				return opts.print(cmd.OutOrStdout(), analyzer.Export(v))
			}
			return fmt.Errorf("unknown op %q", op)
		},
	}

	cmd.Flags().StringVarP(&rule, "rule", "r", "", "rule to evaluate")
	cmd.Flags().StringVarP(&op, "op", "o", analyzer.OpString, "operation (string, list, element, elements)")
	cmd.Flags().StringVarP(&base, "base", "b", "", "base URL for relative links")
	cmd.Flags().BoolVar(&asURL, "url", false, "resolve the result as a URL")
	cmd.Flags().BoolVar(&unescaped, "unescaped", true, "do not HTML-escape string results")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "variables visible to @get and templates (key=value)")
	_ = cmd.MarkFlagRequired("rule")
	return cmd
}
