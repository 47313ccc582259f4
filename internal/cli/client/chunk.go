package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ChunkRequest represents the chunk/re-chunk API request.
type ChunkRequest struct {
	Config              *ChunkConfig `json:"config,omitempty"`
	PreserveManualEdits bool         `json:"preserve_manual_edits,omitempty"`
	GenerateEmbeddings  bool         `json:"generate_embeddings,omitempty"`
}

// ChunkRunResponse represents the result of a synchronous chunking run.
type ChunkRunResponse struct {
	Document Document        `json:"document"`
	Chunks   []Chunk         `json:"chunks"`
	Warnings json.RawMessage `json:"warnings,omitempty"`
}

// RechunkJobResponse represents a queued background re-chunk job.
type RechunkJobResponse struct {
	ID               string `json:"id"`
	DocumentID       string `json:"document_id"`
	TargetGeneration int64  `json:"target_generation"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

// ChunkCmd creates the chunk command.
func ChunkCmd() *cobra.Command {
	var (
		strategy      string
		maxChars      int
		overlap       int
		preserveEdits bool
		embeddings    bool
		async         bool
	)

	cmd := &cobra.Command{
		Use:   "chunk <document_id>",
		Short: "Chunk a document",
		Long: `Runs a chunking pass over a document's stored element stream and publishes
the new chunk generation. With --async the run is queued and processed by the
background worker instead.

Examples:
  # Chunk with the document's stored config
  privexkb chunk <document_id>

  # Override the strategy for this and later runs
  privexkb chunk <document_id> --strategy heading --max-chars 800

  # Re-chunk in the background, keeping manual edits
  privexkb chunk <document_id> --async --preserve-edits`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			req := ChunkRequest{
				Config:              chunkConfigFromFlags(strategy, maxChars, overlap),
				PreserveManualEdits: preserveEdits,
				GenerateEmbeddings:  embeddings,
			}
			if async {
				return runRechunk(args[0], req, outputJSON)
			}
			return runChunk(args[0], req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Chunking strategy (size, heading, page, similarity)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Hard chunk size cap in characters")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Overlap characters threaded between chunks")
	cmd.Flags().BoolVar(&preserveEdits, "preserve-edits", false, "Carry manually edited chunks into the new generation")
	cmd.Flags().BoolVar(&embeddings, "embeddings", false, "Embed every chunk before publishing")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the run for the background worker")

	return cmd
}

func runChunk(documentID string, req ChunkRequest, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/documents/%s/chunk", documentID), req)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	var run ChunkRunResponse
	if err := json.Unmarshal(resp.Data, &run); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Chunked document: %s\n", run.Document.ID)
		fmt.Printf("Generation: %d\n", run.Document.Generation)
		fmt.Printf("Chunks: %d\n", len(run.Chunks))
		if len(run.Warnings) > 0 && string(run.Warnings) != "null" {
			fmt.Printf("Warnings: %s\n", string(run.Warnings))
		}
	}

	return nil
}

func runRechunk(documentID string, req ChunkRequest, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/documents/%s/rechunk", documentID), req)
	if err != nil {
		return fmt.Errorf("failed to queue re-chunk: %w", err)
	}

	var job RechunkJobResponse
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Queued re-chunk job: %s\n", job.ID)
		fmt.Printf("Target generation: %d\n", job.TargetGeneration)
		fmt.Printf("Status: %s\n", job.Status)
	}

	return nil
}
