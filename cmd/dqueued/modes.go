package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visiona/dqueue/internal/displaydrv"
)

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "Print the simulated display's supported modes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModes()
		},
	}
}

func runModes() error {
	table := displaydrv.NewModeTable(
		displaydrv.Mode{Width: 1920, Height: 1080, RefreshHz: 60},
		displaydrv.Mode{Width: 3840, Height: 2160, RefreshHz: 30},
		displaydrv.Mode{Width: 1280, Height: 720, RefreshHz: 120},
	)

	active := table.ActiveHandle()
	for handle, mode := range table.Modes() {
		marker := ""
		if handle == active {
			marker = " (active)"
		}
		fmt.Printf("handle=0x%08x %dx%d@%dHz%s\n", handle, mode.Width, mode.Height, mode.RefreshHz, marker)
	}
	return nil
}
