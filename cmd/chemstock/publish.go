package main

import (
	"github.com/spf13/cobra"

	"chemstock/internal/core"
	"chemstock/internal/integrations/sheets"
	"chemstock/internal/source"
)

func newPublishCommand(app *application) *cobra.Command {
	var inputPath string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Convert a document and publish the rows to Google Sheets",
		Long: "publish converts an inventory document and writes the resulting rows\n" +
			"to the configured sheet range. Credentials and the target sheet come\n" +
			"from the CHEMSTOCK_SHEETS_* environment variables.",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			publisher, err := sheets.NewServiceFromEnv(cmd.Context(), sheets.WithLogger(app.logger))
			if err != nil {
				return err
			}
			if err := publisher.Publish(cmd.Context(), rep); err != nil {
				return err
			}
			app.logger.Info("report published", "input", src.Describe(), "rows", len(rep.Rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "path of the JSON:API document to publish")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
