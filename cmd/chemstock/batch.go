package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chemstock/internal/core"
	"chemstock/internal/report"
)

func newBatchCommand(app *application) *cobra.Command {
	var (
		inputDir    string
		outputDir   string
		formatName  string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert every inventory document in a directory",
		Long: "batch converts every *.json document in --input-dir concurrently.\n" +
			"A single malformed document fails the whole batch.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, ok := report.ParseFormat(formatName)
			if !ok {
				return fmt.Errorf("unsupported format %q", formatName)
			}
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
			}
			matches, err := filepath.Glob(filepath.Join(inputDir, "*.json"))
			if err != nil {
				return fmt.Errorf("scan %s: %w", inputDir, err)
			}
			if len(matches) == 0 {
				return fmt.Errorf("no *.json documents in %s", inputDir)
			}
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return fmt.Errorf("create output directory %s: %w", outputDir, err)
			}
			svc := core.NewService(core.WithLogger(app.logger))

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.SetLimit(concurrency)
			for _, match := range matches {
				eg.Go(func() error {
					raw, err := os.ReadFile(match)
					if err != nil {
						return fmt.Errorf("read %s: %w", match, err)
					}
					rep, err := svc.Convert(ctx, raw)
					if err != nil {
						return fmt.Errorf("convert %s: %w", match, err)
					}
					out := filepath.Join(outputDir, reportFileName(match, format))
					if err := writeReport(out, format, rep); err != nil {
						return err
					}
					app.logger.Info("report written", "input", match, "output", out, "rows", len(rep.Rows))
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}
			app.logger.Info("batch complete", "documents", len(matches), "output_dir", outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputDir, "input-dir", ".", "directory holding *.json inventory documents")
	cmd.Flags().StringVar(&outputDir, "output-dir", "reports", "directory for the generated reports")
	cmd.Flags().StringVar(&formatName, "format", "csv", "report format (csv, json, html)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "number of documents converted in parallel")
	return cmd
}

// reportFileName maps inputs like inventory.json to inventory.csv.
func reportFileName(input string, format report.Format) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "." + format.Extension()
}
