package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/wlanexp/datarecording"
	"github.com/sarchlab/wlanexp/measurement"
	"github.com/sarchlab/wlanexp/report"
)

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <recording.sqlite3>",
		Short: "Print the runs stored in a recording.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := datarecording.NewReader(args[0])
			if err != nil {
				return err
			}
			defer reader.Close()

			reader.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})
			reader.MapTable(report.RunSummaryTable, report.RunSummaryEntry{})
			reader.MapTable(report.FlowsTable, report.FlowEntry{})

			return showRecording(cmd.Context(), reader, cmd.OutOrStdout())
		},
	}
}

func showRecording(
	ctx context.Context,
	reader datarecording.DataReader,
	w io.Writer,
) error {
	stored, err := reader.StoredTables(ctx)
	if err != nil {
		return err
	}

	has := map[string]bool{}
	for _, t := range stored {
		has[t] = true
	}

	if has[datarecording.ExecInfoTable] {
		infos, _, err := reader.Query(ctx, datarecording.ExecInfoTable,
			datarecording.QueryParams{})
		if err != nil {
			return err
		}

		for _, i := range infos {
			info := i.(*datarecording.ExecInfo)
			fmt.Fprintf(w, "%s: %s\n", info.Property, info.Value)
		}
	}

	if !has[report.RunSummaryTable] {
		return fmt.Errorf("recording has no %s table", report.RunSummaryTable)
	}

	runs, _, err := reader.Query(ctx, report.RunSummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return err
	}

	for _, r := range runs {
		run := r.(*report.RunSummaryEntry)

		fmt.Fprintf(w, "\nRun %s: %s, %s, %s, %d bytes, %s s\n",
			run.RunID, run.TCPVariant, run.WifiManager, run.DataRate,
			run.PayloadSize, measurement.FormatFloat(run.SimulationTime))

		if has[report.FlowsTable] {
			err = showFlows(ctx, reader, w, run.RunID)
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "\nAverage throughput: %s Mbit/s\n",
			measurement.FormatFloat(run.AverageThroughputMbps))
	}

	return nil
}

func showFlows(
	ctx context.Context,
	reader datarecording.DataReader,
	w io.Writer,
	runID string,
) error {
	flows, _, err := reader.Query(ctx, report.FlowsTable,
		datarecording.QueryParams{
			Where:   "RunID = ?",
			Args:    []any{runID},
			OrderBy: "FlowID",
		})
	if err != nil {
		return err
	}

	for _, e := range flows {
		f := e.(*report.FlowEntry)

		fmt.Fprintf(w, "Flow%d(%s->%s)\n", f.FlowID, f.Src, f.Dst)
		fmt.Fprintf(w, " Tx Bytes: %d\n", f.TxBytes)
		fmt.Fprintf(w, " Rx Bytes: %d\n", f.RxBytes)
		fmt.Fprintf(w, "  Tx Packets: %d\n", f.TxPackets)
		fmt.Fprintf(w, "  Rx Packets: %d\n", f.RxPackets)
		fmt.Fprintf(w, "  lostPackets: %d\n", f.LostPackets)
	}

	return nil
}
