package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"framesight/internal/config"
	"framesight/internal/gui"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the desktop interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		return gui.RunGUI(log.Logger, cfg)
	},
}
