package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Document represents a document from the API.
type Document struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	Name        string       `json:"name"`
	Source      string       `json:"source,omitempty"`
	Status      string       `json:"status"`
	Generation  int64        `json:"generation"`
	Config      *ChunkConfig `json:"config,omitempty"`
	UploadedAt  string       `json:"uploaded_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <document_id>",
		Short:   "Get a document by ID",
		Long:    "Retrieves a document by its ID and displays its status and chunking configuration.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(documentID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/documents/%s", documentID))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Name: %s\n", doc.Name)
		fmt.Printf("Status: %s\n", doc.Status)
		fmt.Printf("Generation: %d\n", doc.Generation)
		if doc.Source != "" {
			fmt.Printf("Source: %s\n", doc.Source)
		}
		if doc.Config != nil {
			fmt.Printf("Strategy: %s (max %d chars)\n", doc.Config.Strategy, doc.Config.MaxCharacters)
		}
		fmt.Printf("Uploaded: %s\n", doc.UploadedAt)
		fmt.Printf("Updated: %s\n", doc.UpdatedAt)
		fmt.Printf("ID: %s\n", doc.ID)
	}

	return nil
}
