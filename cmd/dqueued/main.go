// Command dqueued hosts a display queue: serving it against a
// simulated downstream display, driving it with a synthetic producer,
// or just printing what display modes are available.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "dqueued",
		Short: "Run and exercise a display queue",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newModesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
