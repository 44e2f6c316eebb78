package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chemstock/internal/core"
	"chemstock/internal/report"
	"chemstock/internal/source"
)

func newConvertCommand(app *application) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		formatName string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one inventory document file into a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, ok := report.ParseFormat(formatName)
			if !ok {
				return fmt.Errorf("unsupported format %q", formatName)
			}
			src := source.FileSource{Path: inputPath}
			raw, err := src.Fetch(cmd.Context())
			if err != nil {
				return err
			}
			svc := core.NewService(core.WithLogger(app.logger))
			rep, err := svc.Convert(cmd.Context(), raw)
			if err != nil {
				return err
			}
			if err := writeReport(outputPath, format, rep); err != nil {
				return err
			}
			app.logger.Info("report written",
				"input", src.Describe(),
				"output", outputPath,
				"format", string(format),
				"rows", len(rep.Rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "path of the JSON:API document to convert")
	cmd.Flags().StringVar(&outputPath, "output", "report.csv", "path of the report file to write")
	cmd.Flags().StringVar(&formatName, "format", "csv", "report format (csv, json, html)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// writeReport encodes into a temporary file and renames it into place so a
// failed encode never leaves a truncated report behind.
func writeReport(path string, format report.Format, rep report.Report) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if err := report.Encode(tmp, format, rep.Rows); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
