package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/koscakluka/ema-welfare/core/config"
	"github.com/koscakluka/ema-welfare/core/tools/knowledge"
	"github.com/spf13/cobra"
)

func schemesCmd() *cobra.Command {
	var (
		dbPath string
		plain  bool
		width  int
	)
	cmd := &cobra.Command{
		Use:          "schemes",
		Short:        "Print the welfare scheme catalog",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				conf, err := config.New[config.Server]("EMA", envFile)
				if err != nil {
					return err
				}
				dbPath = conf.CatalogDB
			}

			catalog, err := knowledge.LoadCatalog(cmd.Context(), dbPath)
			if err != nil {
				return err
			}

			md := catalogMarkdown(catalog)
			if plain {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}

			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
			if err != nil {
				return fmt.Errorf("failed to create markdown renderer: %w", err)
			}
			out, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("failed to render catalog: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite catalog database (overrides EMA_CATALOG_DB)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print markdown without rendering")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width")
	return cmd
}

func catalogMarkdown(catalog *knowledge.Catalog) string {
	var b strings.Builder
	b.WriteString("# సంక్షేమ పథకాలు\n\n")
	for _, scheme := range catalog.Schemes() {
		fmt.Fprintf(&b, "## %s (`%s`)\n\n", scheme.Name, scheme.ID)
		fmt.Fprintf(&b, "%s\n\n", scheme.Description)
		fmt.Fprintf(&b, "**ప్రయోజనాలు:** %s\n\n", scheme.Benefits)
		fmt.Fprintf(&b, "**అర్హత:** %s\n\n", scheme.EligibilityRules)
		if len(scheme.Docs) > 0 {
			b.WriteString("**పత్రాలు:**\n\n")
			for _, doc := range scheme.Docs {
				fmt.Fprintf(&b, "- %s\n", doc)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
