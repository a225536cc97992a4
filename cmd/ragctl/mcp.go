package main

import (
	"github.com/akolanti/DocChat/internal/mcpServer"
	"github.com/spf13/cobra"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the document tools over stdio for MCP clients",
		Long: `Exposes search_documents and ask_documents to an MCP client that spawns
this process, e.g.

  {
    "mcpServers": {
      "docchat": {"command": "/path/to/ragctl", "args": ["mcp"]}
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			return mcpServer.NewServer(app.Rag, c.settings.CollectionName, c.settings.TopK).RunStdio(cmd.Context())
		},
	}
}
