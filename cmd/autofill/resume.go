package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-autofill/internal/coordinator"
	"github.com/jonathan/resume-autofill/internal/mapping"
)

var refreshCacheCmd = &cobra.Command{
	Use:   "refresh-cache",
	Short: "Fetch the resume from the service and replace the cached copy",
	Args:  cobra.NoArgs,
	RunE:  withApp(runRefreshCache),
}

var resumeMapped bool

var getResumeDataCmd = &cobra.Command{
	Use:   "get-resume-data",
	Short: "Print the resume, from the cache when it is under 30 minutes old",
	Args:  cobra.NoArgs,
	RunE:  withApp(runGetResumeData),
}

var pdfOutFile string

var getResumePDFCmd = &cobra.Command{
	Use:   "get-resume-pdf",
	Short: "Download the most recent resume PDF",
	Args:  cobra.NoArgs,
	RunE:  withApp(runGetResumePDF),
}

func init() {
	getResumeDataCmd.Flags().BoolVar(&resumeMapped, "mapped", false, "Print the form field values derived from the resume")

	getResumePDFCmd.Flags().StringVarP(&pdfOutFile, "out", "o", "", "Path to write the PDF to (defaults to the service filename)")

	rootCmd.AddCommand(refreshCacheCmd)
	rootCmd.AddCommand(getResumeDataCmd)
	rootCmd.AddCommand(getResumePDFCmd)
}

func runRefreshCache(ctx context.Context, a *app, _ []string) error {
	return a.run(ctx, coordinator.RefreshCache, nil, func(res coordinator.Result) error {
		var data coordinator.ResumeData
		if err := res.Decode(&data); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Resume data refreshed (%d bytes)\n", len(data.ResumeData))
		return nil
	})
}

func runGetResumeData(ctx context.Context, a *app, _ []string) error {
	return a.run(ctx, coordinator.GetResumeData, nil, func(res coordinator.Result) error {
		var data coordinator.ResumeData
		if err := res.Decode(&data); err != nil {
			return err
		}
		if resumeMapped {
			a.printer.PrintMappedFields(mapping.Normalize(data.ResumeData))
			return nil
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data.ResumeData, "", "  "); err != nil {
			return fmt.Errorf("failed to format resume data: %w", err)
		}
		_, _ = fmt.Fprintln(a.out, pretty.String())
		a.logger.Debug("resume data", "from_cache", data.FromCache)
		return nil
	})
}

func runGetResumePDF(ctx context.Context, a *app, _ []string) error {
	return a.run(ctx, coordinator.GetResumePDF, nil, func(res coordinator.Result) error {
		var pdf coordinator.PDFData
		if err := res.Decode(&pdf); err != nil {
			return err
		}
		path := pdfOutFile
		if path == "" {
			path = pdf.Filename
		}
		if err := os.WriteFile(path, pdf.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, _ = fmt.Fprintf(a.out, "Saved %s (%d bytes) to %s\n", pdf.Filename, len(pdf.Data), path)
		return nil
	})
}
