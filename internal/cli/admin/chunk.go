package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harystyleseze/privexbot-kb/internal/chunker"
	"github.com/harystyleseze/privexbot-kb/internal/domain"
	"github.com/spf13/cobra"
)

// ChunkCmd returns the chunk command. It runs the chunking pipeline offline
// over a JSON element-stream file, so strategy output can be inspected without
// a server, database, or object store.
func ChunkCmd() *cobra.Command {
	var (
		strategy     string
		maxChars     int
		newAfter     int
		combineUnder int
		overlap      int
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "chunk <elements.json>",
		Short: "Run the chunking pipeline on an element-stream file",
		Long: `Runs the chunking pipeline over a JSON file holding a parsed element stream
(an array of elements as accepted by POST /documents) and prints the resulting
chunks. Nothing is persisted.

The similarity strategy needs an embedding client and is not available
offline; use size, heading, or page.

Examples:
  # Chunk a parsed document with the default size strategy
  privexkbd chunk handbook-elements.json

  # Inspect how the heading strategy splits the same stream
  privexkbd chunk handbook-elements.json --strategy heading --max-chars 800

  # Full chunk records as JSON
  privexkbd chunk handbook-elements.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := domain.DefaultChunkConfig()
			if strategy != "" {
				cfg.Strategy = domain.ChunkStrategy(strategy)
			}
			if maxChars > 0 {
				cfg.MaxCharacters = maxChars
			}
			cfg.NewAfterCharacters = newAfter
			cfg.CombineUnderCharacters = combineUnder
			cfg.OverlapCharacters = overlap

			return runOfflineChunk(cmd.OutOrStdout(), args[0], cfg, outputJSON)
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Chunking strategy (size, heading, page)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Hard chunk size cap in characters")
	cmd.Flags().IntVar(&newAfter, "new-after-chars", 0, "Soft limit: start a new chunk after this many characters")
	cmd.Flags().IntVar(&combineUnder, "combine-under-chars", 0, "Merge neighboring sections smaller than this")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Overlap characters threaded between chunks")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print full chunk records as JSON")

	return cmd
}

func runOfflineChunk(w io.Writer, path string, cfg domain.ChunkConfig, outputJSON bool) error {
	if cfg.Strategy == domain.StrategySimilarity {
		return fmt.Errorf("similarity strategy needs an embedding client and is not available offline")
	}
	if err := domain.ValidateChunkConfig(cfg); err != nil {
		return err
	}

	elements, err := loadElementStream(path)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := domain.NewDocument("offline", "offline", name, "file", "", time.Now().UTC())

	result, err := chunker.NewPipeline(nil, nil).Run(context.Background(), chunker.RunInput{
		Document:   *doc,
		Elements:   elements,
		Config:     cfg,
		Generation: 1,
		Now:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(result.Chunks, "", "  ")
		fmt.Fprintln(w, string(out))
		return nil
	}

	fmt.Fprintf(w, "Elements: %d\n", len(elements))
	fmt.Fprintf(w, "Chunks: %d\n", len(result.Chunks))
	for i := range result.Chunks {
		c := &result.Chunks[i]
		fmt.Fprintf(w, "--- chunk %d (%d chars, pages %v)\n", c.SequenceIndex, c.CharCount, c.PageNumbers)
		if c.Prefix != "" {
			fmt.Fprintf(w, "[prefix] %s\n", c.Prefix)
		}
		fmt.Fprintln(w, c.Text)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: chunk %d: %s\n", warn.SequenceIndex, warn.Message)
	}

	return nil
}

// loadElementStream reads and validates a JSON array of parsed elements.
func loadElementStream(path string) ([]domain.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read element file: %w", err)
	}

	var elements []domain.Element
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("element file is not a JSON element array: %w", err)
	}

	for i, el := range elements {
		if err := domain.ValidateElement(el); err != nil {
			return nil, fmt.Errorf("invalid element %d: %w", i, err)
		}
	}

	return elements, nil
}
