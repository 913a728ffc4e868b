package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpbt/market/strategies"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List registered strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCANDIDATES\tEXAMPLE")
			for _, name := range strategies.Names() {
				s, err := strategies.Get(name)
				if err != nil {
					return err
				}
				cands := s.Candidates()
				example := ""
				if len(cands) > 0 {
					example = cands[0].String()
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", name, len(cands), example)
			}
			return tw.Flush()
		},
	}
}
