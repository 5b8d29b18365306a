// Package runner drives the analyzer over a fixed target list, strictly one
// page at a time, and emits the aggregate report when the list is done.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/trackscan/trackscan/models"
)

// PageAnalyzer is the part of the analyzer the batch runner drives.
type PageAnalyzer interface {
	Analyze(ctx context.Context, url string) (*models.AnalysisRecord, error)
	Report() *models.AggregateReport
}

// Run analyzes every target in list order, awaiting each session's teardown
// before starting the next, then prints the aggregate report as
// pretty-printed JSON.
//
// Per-page failures are captured inside Analyze and land on the record, so
// they do not stop the run. An error from Analyze itself means the analyzer
// can no longer work; the run aborts and the error surfaces to the caller.
func Run(ctx context.Context, pa PageAnalyzer, targets []string, out io.Writer) error {
	for _, url := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "Analyzing %s for tracking implementations...\n", url)
		if _, err := pa.Analyze(ctx, url); err != nil {
			return fmt.Errorf("analyzing %s: %w", url, err)
		}
	}

	report := pa.Report()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding aggregate report: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
