// internal/launch/report.go
package launch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteSwapReport dumps the fan-out results to a CSV file next to the run's
// checkpoint, one row per wallet in submission order. The report is for the
// operator's bookkeeping; the checkpoint stays the source of truth for
// resume.
func WriteSwapReport(path string, results []SwapResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create swap report: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"wallet", "signatures", "error"}); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, res := range results {
		sigs := make([]string, 0, len(res.Signatures))
		for _, sig := range res.Signatures {
			sigs = append(sigs, sig.String())
		}
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		if err := w.Write([]string{res.Wallet, strings.Join(sigs, " "), errText}); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// SwapReportPath places the report alongside the run's checkpoint file.
func (s *CheckpointStore) SwapReportPath(runID string) string {
	return filepath.Join(s.dir, runID+"-swaps.csv")
}
