package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// RegisterDocumentRequest represents the register document API request.
type RegisterDocumentRequest struct {
	Name     string          `json:"name"`
	Source   string          `json:"source,omitempty"`
	Elements json.RawMessage `json:"elements"`
	Config   *ChunkConfig    `json:"config,omitempty"`
}

// ChunkConfig mirrors the API's chunking configuration.
type ChunkConfig struct {
	Strategy                string  `json:"strategy"`
	MaxCharacters           int     `json:"max_characters"`
	NewAfterCharacters      int     `json:"new_after_characters,omitempty"`
	CombineUnderCharacters  int     `json:"combine_under_characters,omitempty"`
	OverlapCharacters       int     `json:"overlap_characters,omitempty"`
	OverlapAll              bool    `json:"overlap_all,omitempty"`
	MultipageSections       bool    `json:"multipage_sections,omitempty"`
	SimilarityThreshold     float64 `json:"similarity_threshold,omitempty"`
	IncludeOriginalElements bool    `json:"include_original_elements,omitempty"`
	ContextualPrefixEnabled bool    `json:"contextual_prefix_enabled,omitempty"`
	MinCharacters           int     `json:"min_characters,omitempty"`
	RepeatTableHeaders      bool    `json:"repeat_table_headers,omitempty"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		name     string
		source   string
		strategy string
		maxChars int
		overlap  int
	)

	cmd := &cobra.Command{
		Use:   "add [elements.json]",
		Short: "Register a document from a parsed element stream",
		Long: `Registers a document from a JSON file (or stdin) holding its parsed element stream.

Examples:
  # Register from an elements file
  privexkb add handbook.json --name "Employee Handbook"

  # Register from stdin with a chunking config
  cat elements.json | privexkb add --name "FAQ" --strategy heading --max-chars 800`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runAdd(file, name, source, strategy, maxChars, overlap, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Document name (defaults to the file name)")
	cmd.Flags().StringVar(&source, "source", "", "Origin of the document (upload, url, integration)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Chunking strategy (size, heading, page, similarity)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Hard chunk size cap in characters")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Overlap characters threaded between chunks")

	return cmd
}

func runAdd(file, name, source, strategy string, maxChars, overlap int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}
	if !json.Valid(input) {
		return fmt.Errorf("input is not valid JSON (expected an array of elements)")
	}

	if name == "" {
		if file == "" {
			return fmt.Errorf("--name is required when reading from stdin")
		}
		base := filepath.Base(file)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	req := RegisterDocumentRequest{
		Name:     name,
		Source:   source,
		Elements: json.RawMessage(input),
		Config:   chunkConfigFromFlags(strategy, maxChars, overlap),
	}

	resp, err := api.Post("/documents", req)
	if err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Registered document: %s\n", doc.ID)
		fmt.Printf("Name: %s\n", doc.Name)
		fmt.Printf("Status: %s\n", doc.Status)
	}

	return nil
}

// chunkConfigFromFlags builds a config override from flags, or nil when no
// flag was set so the server keeps its defaults.
func chunkConfigFromFlags(strategy string, maxChars, overlap int) *ChunkConfig {
	if strategy == "" && maxChars == 0 && overlap == 0 {
		return nil
	}
	cfg := &ChunkConfig{
		Strategy:          strategy,
		MaxCharacters:     maxChars,
		OverlapCharacters: overlap,
	}
	if cfg.Strategy == "" {
		cfg.Strategy = "size"
	}
	if cfg.MaxCharacters == 0 {
		cfg.MaxCharacters = 1200
	}
	return cfg
}
