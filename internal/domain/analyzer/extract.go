package analyzer

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/rulekit/internal/domain/source"
	"go.uber.org/zap"
)

// Extract applies a rule set to the current document. The list rule picks
// the records (the whole document when empty) and every field rule is
// evaluated against each record. The source stays attached afterwards.
func (a *Analyzer) Extract(ctx context.Context, src *source.Source) ([]source.Record, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if a.content == nil {
		return nil, ErrNilContent
	}
	a.SetSource(src)

	items := []any{a.content}
	if src.List != "" {
		list, err := a.GetElements(ctx, src.List)
		if err != nil {
			return nil, fmt.Errorf("list rule: %w", err)
		}
		items = list
	}

	names := src.FieldNames()
	records := make([]source.Record, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		rec := make(source.Record, len(names))
		for _, name := range names {
			opts := []EvalOption{Unescaped()}
			if src.List != "" {
				opts = append(opts, WithContent(item))
			}
			if src.IsURLField(name) {
				opts = append(opts, AsURL())
			}
			v, err := a.GetString(ctx, src.Fields[name], opts...)
			if err != nil {
				return records, fmt.Errorf("field %q of item %d: %w", name, i, err)
			}
			rec[name] = v
		}
		records = append(records, rec)
	}

	a.logger.Debug("source extracted",
		zap.String("source", src.Key()),
		zap.Int("records", len(records)))
	return records, nil
}
