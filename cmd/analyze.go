package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crimestat/internal/export"
	"github.com/sells-group/crimestat/internal/report"
)

var (
	analyzeInput  inputFlags
	analyzeReport string
	analyzeXLSX   string
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print frequency statistics and the classified-subset breakdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzeInput.apply(cmd)
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		c, err := loadClassifier()
		if err != nil {
			return err
		}

		res, err := newPipeline(c, export.Discard).Run(cmd.Context())
		if err != nil {
			return err
		}

		opts := reportOptions()

		out := cmd.OutOrStdout()
		if analyzeReport != "" {
			f, err := os.Create(analyzeReport)
			if err != nil {
				return eris.Wrapf(err, "analyze: create report %s", analyzeReport)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if analyzeJSON {
			if err := writeSummaryJSON(out, report.BuildSummary(res.State, c, opts)); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(out, report.FormatText(res.State, c, opts)); err != nil {
				return eris.Wrap(err, "analyze: write report")
			}
		}

		if analyzeXLSX != "" {
			f, err := os.Create(analyzeXLSX)
			if err != nil {
				return eris.Wrapf(err, "analyze: create workbook %s", analyzeXLSX)
			}
			if err := report.WriteXLSX(res.State, c, opts, f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrap(err, "analyze: close workbook")
			}
			zap.L().Info("workbook written", zap.String("path", analyzeXLSX))
		}

		if res.SkippedRows > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d malformed rows\n", res.SkippedRows)
		}
		return nil
	},
}

func writeSummaryJSON(w io.Writer, sum report.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return eris.Wrap(err, "analyze: encode summary")
	}
	return nil
}

func init() {
	analyzeInput.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeReport, "report", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "also write the report tables as an XLSX workbook")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
