package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/wlanexp/flowmon"
)

func newFlowsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flows <capture.pcap>",
		Short: "Print the flows found in a capture file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := flowmon.SummarizeCaptureFile(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Flow\tSource\tDestination\tPackets\tBytes")

			for _, f := range summary.Flows {
				fmt.Fprintf(w, "%d\t%s:%d\t%s:%d\t%d\t%d\n",
					f.ID,
					f.Tuple.Src, f.Tuple.SrcPort,
					f.Tuple.Dst, f.Tuple.DstPort,
					f.Packets, f.Bytes)
			}

			err = w.Flush()
			if err != nil {
				return err
			}

			if summary.Skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(),
					"%d frames were not IPv4 TCP or UDP\n", summary.Skipped)
			}

			return nil
		},
	}
}
