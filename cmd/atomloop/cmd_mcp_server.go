package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atomloop/atomloop/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run atomloop as an MCP (Model Context Protocol) server.

Exposes study_queue, grade_review, diagnose_review, struggle_report, and
session_stats as tools, plus today's queue as an auto-loaded resource.
Intended to be launched by an MCP client, not interactively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			if err := requireInit(root); err != nil {
				return err
			}

			server, err := mcp.NewServer(&mcp.ServerConfig{
				Name:    "atomloop",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return fmt.Errorf("starting MCP server: %w", err)
			}

			return server.Run(context.Background())
		},
	}
}
