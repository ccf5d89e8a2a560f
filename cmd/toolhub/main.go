// Command toolhub runs the tool hub MCP server: a JSON-RPC 2.0 dialect
// over newline-delimited stdio exposing shell and filesystem tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llmtoolhub/toolhub-mcp-go/config"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "toolhub",
		Short:         "MCP tool server over stdio",
		Long:          "toolhub exposes shell and filesystem tools to MCP clients over newline-delimited JSON-RPC on stdio.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadConfig resolves the config path, seeds a default file on first
// run, and loads it.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		resolved, err := config.ResolveConfigPath()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	}
	if err := config.EnsureDefaultConfig(path); err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
			return nil
		},
	}
}
