package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tool catalog",
	}
	toolsCmd.AddCommand(newToolsListCmd())
	return toolsCmd
}

func newToolsListCmd() *cobra.Command {
	var asJSON bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools the server would expose",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			catalog := registry.List()
			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(catalog)
			}

			for _, tool := range catalog {
				fmt.Printf("%s\n    %s\n", tool.Name, tool.Description)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return listCmd
}
