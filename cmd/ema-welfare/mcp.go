package main

import (
	"fmt"

	"github.com/koscakluka/ema-welfare/core/config"
	"github.com/koscakluka/ema-welfare/core/executor"
	"github.com/koscakluka/ema-welfare/core/tools/eligibility"
	"github.com/koscakluka/ema-welfare/core/tools/knowledge"
	"github.com/koscakluka/ema-welfare/core/tools/toolserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mcp",
		Short:        "Serve the eligibility and scheme search tools over MCP stdio",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.New[config.Server]("EMA", envFile)
			if err != nil {
				return err
			}

			catalog, err := knowledge.LoadCatalog(cmd.Context(), conf.CatalogDB)
			if err != nil {
				return err
			}
			engine, err := eligibility.NewEngine(catalog, eligibility.DefaultRules())
			if err != nil {
				return err
			}

			server := toolserver.New(executor.New(engine, catalog), version)
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("mcp server stopped: %w", err)
			}
			return nil
		},
	}
}
