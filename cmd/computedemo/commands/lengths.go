package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gogpu/compute"
)

// lengths: list the sort lengths selectable with --length-index.
func lengthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lengths",
		Short: "List the selectable sort lengths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			if err := table.Append([]string{"index", "length", "workgroups", "default"}); err != nil {
				return fmt.Errorf("append header row: %w", err)
			}
			for i, n := range compute.Lengths() {
				def := ""
				if i == compute.DefaultLengthIndex {
					def = "*"
				}
				groups := max(n/compute.MaxThreadNum, 1)
				row := []string{strconv.Itoa(i), strconv.Itoa(n), strconv.Itoa(groups), def}
				if err := table.Append(row); err != nil {
					return fmt.Errorf("append row: %w", err)
				}
			}
			return table.Render()
		},
	}
}
