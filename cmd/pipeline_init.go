package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crimestat/internal/aggregate"
	"github.com/sells-group/crimestat/internal/classify"
	"github.com/sells-group/crimestat/internal/fetcher"
	"github.com/sells-group/crimestat/internal/pipeline"
	"github.com/sells-group/crimestat/internal/report"
)

// inputFlags are shared by every command that reads the dataset.
type inputFlags struct {
	input         string
	thresholdYear int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "incident dataset (.csv, .csv.gz, .zip or .xlsx; default from config)")
	cmd.Flags().IntVar(&f.thresholdYear, "threshold-year", 0, "earliest year kept in the classified subset, 0 for all (default from config)")
}

// apply copies explicitly set flags over the loaded config.
func (f *inputFlags) apply(cmd *cobra.Command) {
	if f.input != "" {
		cfg.Input.Path = f.input
	}
	if cmd.Flags().Changed("threshold-year") {
		cfg.Analysis.ThresholdYear = f.thresholdYear
	}
}

// loadClassifier builds the classifier from the configured rule file, or
// the built-in rules when none is set.
func loadClassifier() (*classify.Classifier, error) {
	path := cfg.Rules.Path
	if rulesPath != "" {
		path = rulesPath
	}
	if path == "" {
		return classify.Default(), nil
	}

	set, err := classify.LoadRules(path)
	if err != nil {
		return nil, err
	}
	c, err := classify.New(set)
	if err != nil {
		return nil, eris.Wrapf(err, "rules %s", path)
	}
	zap.L().Info("loaded classification rules", zap.String("path", path), zap.Int("rules", len(set.Rules)))
	return c, nil
}

// newPipeline builds a pipeline over the configured input.
func newPipeline(c *classify.Classifier, sink aggregate.DetailSink) *pipeline.Pipeline {
	in := cfg.Input
	return pipeline.New(c, pipeline.Options{
		InputPath: in.Path,
		Source: fetcher.SourceOptions{
			CSV: fetcher.CSVOptions{
				Delimiter:  in.DelimiterRune(),
				Charset:    in.Charset,
				LazyQuotes: in.LazyQuotes,
			},
			XLSX: fetcher.XLSXOptions{SheetName: in.Sheet},
		},
		Box:           cfg.Analysis.Bounds.Box(),
		ThresholdYear: cfg.Analysis.ThresholdYear,
		ProgressEvery: cfg.Analysis.ProgressEvery,
		Sink:          sink,
	})
}

// reportOptions maps the analysis config onto report limits.
func reportOptions() report.Options {
	a := cfg.Analysis
	opts := report.DefaultOptions()
	opts.ThresholdYear = a.ThresholdYear
	opts.TopCrimes = a.TopCrimes
	opts.TopCategories = a.TopCategories
	opts.TopMunicipalities = a.TopMunicipalities
	opts.TopPerTag = a.TopPerTag
	return opts
}
