// Command computedemo runs the bitonic sort, squares and blur compute demos.
package main

import (
	"os"

	"github.com/gogpu/compute/cmd/computedemo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
