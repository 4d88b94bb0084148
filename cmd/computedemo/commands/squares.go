package commands

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/compute/demo"
)

// squares: square small random values elementwise.
func squaresCmd() *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "squares",
		Short: "Square random values on the CPU and with the compute path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("length") {
				cfg.Squares.Length = length
			}
			rep, err := demo.NewSquares(cmd.OutOrStdout()).Run(cmd.Context(), demo.SquaresConfig{
				Length:  cfg.Squares.Length,
				Seed:    cfg.Seed,
				Options: computeOptions(),
			})
			if err != nil {
				return err
			}
			return checkValid("squares", rep)
		},
	}
	cmd.Flags().IntVar(&length, "length", demo.DefaultSquaresLength, "number of elements")
	return cmd
}
