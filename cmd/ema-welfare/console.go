package main

import (
	"github.com/koscakluka/ema-welfare/core/console"
	"github.com/spf13/cobra"
)

func consoleCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Watch and talk to a running assistant from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return console.Run(cmd.Context(), url)
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8001/ws", "session websocket url")
	return cmd
}
