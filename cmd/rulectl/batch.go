package main

import (
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/rulekit/internal/domain/source"
	"github.com/GriffinCanCode/rulekit/internal/shared/document"
	"github.com/GriffinCanCode/rulekit/internal/shared/id"
)

// batchResult is one output line of a batch run
type batchResult struct {
	Run     string          `json:"run"`
	File    string          `json:"file"`
	Records []source.Record `json:"records,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func batchCmd(opts *options) *cobra.Command {
	var (
		pattern string
		base    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch <rules.yaml|toml|json> <dir>",
		Short: "Apply a rule set to every matching file under a directory",
		Long: `Apply a rule set to every file under dir whose relative path matches
the doublestar pattern. One JSON line is printed per file. A file that
fails is reported on its line and does not stop the run.`,
		Args: cobra.ExactArgs(2),
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

			files, err := document.Find(cmd.Context(), args[1], pattern)
			if err != nil {
				return err
			}

			run := id.NewRunID()
			log := logger.Component("batch").With(zap.String("run", run.String()))
			log.Info("batch started", zap.Int("files", len(files)), zap.String("pattern", pattern))

			// one analyzer per file, output lines serialized
			var (
				mu     sync.Mutex
				failed int
				line   = &options{compact: true}
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			for _, file := range files {
				file := file
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					res := batchResult{Run: run.String(), File: filepath.ToSlash(file)}

					text, err := document.ReadFile(file)
					if err == nil {
						res.Records, err = extract(ctx, e, src, text, base)
					}
					if err != nil {
						res.Error = err.Error()
						log.Warn("file failed", zap.String("file", file), zap.Error(err))
					}

					mu.Lock()
					defer mu.Unlock()
					if err != nil {
						failed++
					}
					return line.print(cmd.OutOrStdout(), res)
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			log.Info("batch finished", zap.Int("files", len(files)), zap.Int("failed", failed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "**/*.html", "doublestar pattern relative to dir")
	cmd.Flags().StringVarP(&base, "base", "b", "", "base URL for relative links")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "files processed concurrently")
	return cmd
}
