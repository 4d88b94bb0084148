package commands

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/compute"
	"github.com/gogpu/compute/demo"
)

// sort: time slices.Sort against the bitonic network.
func sortCmd() *cobra.Command {
	var (
		lengthIndex int
		trace       string
	)
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Sort random values on the CPU and with the bitonic network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("length-index") {
				cfg.Sort.LengthIndex = lengthIndex
			}
			if cmd.Flags().Changed("trace") {
				cfg.Sort.Trace = trace
			}
			n, err := compute.LengthForIndex(cfg.Sort.LengthIndex)
			if err != nil {
				return err
			}
			rep, err := demo.NewSort(cmd.OutOrStdout()).Run(cmd.Context(), demo.SortConfig{
				Length:  n,
				Seed:    cfg.Seed,
				Trace:   cfg.Sort.Trace,
				Options: computeOptions(),
			})
			if err != nil {
				return err
			}
			return checkValid("sort", rep)
		},
	}
	cmd.Flags().IntVarP(&lengthIndex, "length-index", "n", compute.DefaultLengthIndex,
		"length index: the input has 1<<(index+10) elements (see lengths)")
	cmd.Flags().StringVar(&trace, "trace", "", "write the sorting network trace PNG to this path")
	return cmd
}
