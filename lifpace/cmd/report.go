package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/lifpace/datarecording"
	"github.com/sarchlab/lifpace/tracing"
)

var reportCmd = &cobra.Command{
	Use:   "report [file.sqlite3]",
	Short: "Summarize a recorded run.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("events")

		r, err := datarecording.NewReader(args[0])
		if err != nil {
			log.Fatalf("Error opening %s: %v", args[0], err)
		}
		defer r.Close()

		if err := report(cmd.Context(), r, os.Stdout, limit); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Int("events", 20, "Number of spikes and paces to list")
}

var reportCounts = []struct {
	label string
	where string
}{
	{"ticks", ""},
	{"spikes", "Spike = 1"},
	{"sensed", "Sensed = 1"},
	{"ignored", "Ignored = 1"},
	{"paced", "Pace = 1"},
	{"captured", "Captured = 1"},
	{"in refractory", "Refractory = 1"},
}

func report(
	ctx context.Context,
	r datarecording.DataReader,
	w io.Writer,
	limit int,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	r.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})
	r.MapTable(tracing.TraceTable, tracing.TraceEntry{})

	infos, _, err := r.Query(ctx, datarecording.ExecInfoTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, row := range infos {
		info := row.(*datarecording.ExecInfo)
		fmt.Fprintf(w, "%s: %s\n", info.Property, info.Value)
	}

	for _, c := range reportCounts {
		_, n, err := r.Query(ctx, tracing.TraceTable,
			datarecording.QueryParams{Where: c.where, Limit: 1})
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s: %d\n", c.label, n)
	}

	if limit <= 0 {
		return nil
	}

	events, _, err := r.Query(ctx, tracing.TraceTable,
		datarecording.QueryParams{
			Where:   "Spike = 1 OR Pace = 1",
			OrderBy: "Tick",
			Limit:   limit,
		})
	if err != nil {
		return err
	}

	for _, row := range events {
		e := row.(*tracing.TraceEntry)
		fmt.Fprintf(w, "%s tick %d: %s\n", e.Location, e.Tick, eventLabel(e))
	}

	return nil
}

func eventLabel(e *tracing.TraceEntry) string {
	switch {
	case e.Pace && e.Captured:
		return "pace, captured"
	case e.Pace:
		return "pace, not captured"
	case e.Sensed:
		return fmt.Sprintf("spike sensed, theta %d", e.Theta)
	case e.Ignored:
		return fmt.Sprintf("spike ignored, theta %d", e.Theta)
	default:
		return fmt.Sprintf("spike, theta %d", e.Theta)
	}
}
