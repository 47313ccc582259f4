package main

import (
	"fmt"
	"os"

	"github.com/harystyleseze/privexbot-kb/internal/cli"
	"github.com/harystyleseze/privexbot-kb/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "privexkb",
		Short: "PrivexKB CLI - Document chunking for knowledge bases",
		Long: `PrivexKB CLI provides commands to register documents, run chunking passes,
and manage chunks and metadata fields.

Environment variables:
  PRIVEXKB_WORKSPACE_ID   Workspace ID to scope all requests to (required)
  PRIVEXKB_API_URL        API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("workspace", "", "Workspace ID (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.ChunkCmd())
	rootCmd.AddCommand(client.ChunksCmd())
	rootCmd.AddCommand(client.EditChunkCmd())
	rootCmd.AddCommand(client.ImportCmd())
	rootCmd.AddCommand(client.MetadataCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
