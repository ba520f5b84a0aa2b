package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crimestat/internal/export"
)

var (
	exportInput  inputFlags
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the classified subset as GeoJSON, shapefile or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		exportInput.apply(cmd)
		if exportOutput != "" {
			cfg.Export.Path = exportOutput
		}
		if exportFormat != "" {
			cfg.Export.Format = exportFormat
		}
		if err := cfg.Validate("export"); err != nil {
			return err
		}

		c, err := loadClassifier()
		if err != nil {
			return err
		}

		out, err := export.Create(cfg.Export.Path, cfg.Export.Format)
		if err != nil {
			return err
		}

		res, err := newPipeline(c, out).Run(cmd.Context())
		if err != nil {
			out.Abort()
			return err
		}
		if err := out.Close(); err != nil {
			return eris.Wrap(err, "export: finish output")
		}

		zap.L().Info("export complete",
			zap.String("run_id", res.RunID),
			zap.String("path", out.Path()),
			zap.Int64("features", res.State.Retained),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", res.State.Retained, out.Path())
		return nil
	},
}

func init() {
	exportInput.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "geojson, shapefile or csv (default from the output extension)")
	rootCmd.AddCommand(exportCmd)
}
