package main

import (
	"fmt"
	"os"

	"github.com/harystyleseze/privexbot-kb/internal/cli"
	"github.com/harystyleseze/privexbot-kb/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "privexkbd",
		Short: "PrivexKB daemon",
		Long:  "PrivexKB daemon for running the document chunking API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.ChunkCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
