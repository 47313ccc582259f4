package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Chunk represents a chunk from the API.
type Chunk struct {
	ID            string                 `json:"id"`
	DocumentID    string                 `json:"document_id"`
	Generation    int64                  `json:"generation"`
	SequenceIndex int                    `json:"sequence_index"`
	Text          string                 `json:"text"`
	CharCount     int                    `json:"char_count"`
	Prefix        string                 `json:"prefix,omitempty"`
	PageNumbers   []int                  `json:"page_numbers,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	IsTable       bool                   `json:"is_table"`
	HardCut       bool                   `json:"hard_cut"`
	Edited        bool                   `json:"edited"`
	UpdatedAt     string                 `json:"updated_at"`
}

// ListChunksResponse represents the list chunks API response.
type ListChunksResponse struct {
	Items      []Chunk `json:"items"`
	Generation int64   `json:"generation"`
	Cursor     string  `json:"cursor,omitempty"`
	HasMore    bool    `json:"has_more"`
}

// ChunksCmd creates the chunks command.
func ChunksCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "chunks <document_id>",
		Short: "List a document's chunks",
		Long:  "Lists the chunks of the document's current generation in sequence order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runChunks(args[0], limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runChunks(documentID string, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	path := fmt.Sprintf("/documents/%s/chunks", documentID)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	var listResp ListChunksResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No chunks found.")
		return nil
	}

	fmt.Printf("Generation %d, %d chunks:\n\n", listResp.Generation, len(listResp.Items))
	for i, chunk := range listResp.Items {
		preview := chunk.Text
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		fmt.Printf("%d. [%d chars] %s\n", chunk.SequenceIndex, chunk.CharCount, preview)
		if chunk.IsTable {
			fmt.Printf("   Table chunk\n")
		}
		if chunk.Edited {
			fmt.Printf("   Manually edited\n")
		}
		fmt.Printf("   ID: %s\n", chunk.ID)
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\n%s\n", strings.Repeat("-", 40))
		fmt.Printf("More results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}

// EditChunkCmd creates the edit-chunk command.
func EditChunkCmd() *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "edit-chunk <chunk_id>",
		Short: "Edit a chunk's text",
		Long:  "Replaces a chunk's text. The chunk is marked edited and its stale embedding is cleared.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runEditChunk(args[0], text, outputJSON)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Replacement text (required)")
	cmd.MarkFlagRequired("text")

	return cmd
}

func runEditChunk(chunkID, text string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Patch(fmt.Sprintf("/chunks/%s", chunkID), map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to edit chunk: %w", err)
	}

	var chunk Chunk
	if err := json.Unmarshal(resp.Data, &chunk); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chunk, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Updated chunk: %s\n", chunk.ID)
		fmt.Printf("Chars: %d\n", chunk.CharCount)
	}

	return nil
}

// ImportCmd creates the import command.
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <document_id> <chunks.csv>",
		Short: "Import chunks from a CSV file",
		Long:  "Appends chunks from a CSV file to the document's current generation.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runImport(args[0], args[1], outputJSON)
		},
	}

	return cmd
}

func runImport(documentID, file string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	resp, err := api.PostRaw(fmt.Sprintf("/documents/%s/chunks/import", documentID), f, "text/csv")
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(resp.Data, &chunks); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(chunks, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Imported %d chunks into document %s\n", len(chunks), documentID)
	}

	return nil
}
