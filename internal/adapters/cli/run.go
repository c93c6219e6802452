package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// NewRunCommand creates the one-shot orchestrator invocation command.
func NewRunCommand() *cobra.Command {
	var dateStr string
	var shiftStr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion pipeline once for a given date and shift",
		Long: `Run fetches route lists, requests and monitoring data for one
(date, shift) unit, computes KPIs per vehicle and persists the result.

Example:
  dtctl run --date=30.07.2026 --shift=shift1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, ok := pipeline.ParseExternalTime(dateStr)
			if !ok {
				return fmt.Errorf("invalid --date %q, expected DD.MM.YYYY", dateStr)
			}
			shiftType := pipeline.ShiftType(shiftStr)
			if shiftType != pipeline.Shift1 && shiftType != pipeline.Shift2 {
				return fmt.Errorf("invalid --shift %q, expected shift1 or shift2", shiftStr)
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			return a.runOnce(date, shiftType)
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Report date, DD.MM.YYYY (required)")
	cmd.Flags().StringVar(&shiftStr, "shift", "", "Shift: shift1 or shift2 (required)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("shift")

	return cmd
}
