// Package pipeline drives a single analysis pass from an input file to an
// aggregate state and optional detail export.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/crimestat/internal/aggregate"
	"github.com/sells-group/crimestat/internal/classify"
	"github.com/sells-group/crimestat/internal/fetcher"
	"github.com/sells-group/crimestat/internal/validate"
)

// DefaultProgressEvery is the record interval between progress logs.
const DefaultProgressEvery = 100000

// Options configures a run.
type Options struct {
	InputPath     string
	Source        fetcher.SourceOptions
	Box           validate.Box
	ThresholdYear int
	ProgressEvery int // 0 disables progress logging

	// Sink receives retained detail records. When nil the records are kept
	// in State.Details.
	Sink aggregate.DetailSink
}

// Result is the outcome of a run.
type Result struct {
	RunID          string
	State          *aggregate.State
	SkippedRows    int64
	MissingColumns []string
	Duration       time.Duration
}

// Pipeline runs the validate, classify and aggregate stages over one input.
type Pipeline struct {
	classifier *classify.Classifier
	opts       Options
}

// New creates a Pipeline. A zero Box defaults to validate.DefaultBox.
func New(c *classify.Classifier, opts Options) *Pipeline {
	if opts.Box == (validate.Box{}) {
		opts.Box = validate.DefaultBox
	}
	return &Pipeline{classifier: c, opts: opts}
}

// Run reads every record of the input and returns the finalized state.
// Malformed rows are counted and skipped. A sink failure or context
// cancellation stops the run; the partial state is returned with the error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("input", p.opts.InputPath))

	src, err := fetcher.OpenSource(p.opts.InputPath, p.opts.Source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	result := &Result{
		RunID:          runID,
		MissingColumns: src.Missing(),
	}
	if len(result.MissingColumns) > 0 {
		log.Warn("pipeline: input lacks columns", zap.Strings("missing", result.MissingColumns))
	}
	log.Info("pipeline: starting run", zap.Int("threshold_year", p.opts.ThresholdYear))

	aggOpts := []aggregate.Option{
		aggregate.WithBox(p.opts.Box),
		aggregate.WithThresholdYear(p.opts.ThresholdYear),
	}
	if p.opts.Sink != nil {
		aggOpts = append(aggOpts, aggregate.WithSink(p.opts.Sink))
	}
	agg := aggregate.New(p.classifier, aggOpts...)

	progress := &rate.Sometimes{Every: p.opts.ProgressEvery}
	finish := func(runErr error) (*Result, error) {
		result.State = agg.Finalize()
		result.Duration = time.Since(start)
		log.Info("pipeline: run complete",
			zap.Int64("total", result.State.Total),
			zap.Int64("retained", result.State.Retained),
			zap.Int64("skipped_rows", result.SkippedRows),
			zap.Duration("duration", result.Duration),
			zap.Error(runErr),
		)
		return result, runErr
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(eris.Wrap(err, "pipeline: run cancelled"))
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if fetcher.IsRowError(err) {
				result.SkippedRows++
				log.Debug("pipeline: skipping malformed row", zap.Error(err))
				continue
			}
			return finish(eris.Wrap(err, "pipeline: read input"))
		}

		if err := agg.Ingest(rec); err != nil {
			return finish(eris.Wrapf(err, "pipeline: ingest row %d", src.Line()))
		}

		if p.opts.ProgressEvery > 0 {
			progress.Do(func() {
				s := agg.State()
				log.Info("pipeline: progress",
					zap.Int64("processed", s.Total),
					zap.Int64("retained", s.Retained),
				)
			})
		}
	}

	return finish(nil)
}
