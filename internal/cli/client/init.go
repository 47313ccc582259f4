package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func InitCmd() *cobra.Command {
	var workspaceID string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Bind the CLI to a workspace",
		Long:  "Saves the workspace ID and API URL to the global config and verifies the server is reachable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(workspaceID, apiURL, outputJSON)
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace ID to scope all requests to")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

func runInit(workspaceID, apiURL string, outputJSON bool) error {
	_ = godotenv.Load()
	if workspaceID == "" {
		workspaceID = os.Getenv(envWorkspaceID)
	}
	if workspaceID == "" {
		fmt.Print("Enter workspace ID: ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read workspace ID: %w", err)
		}
		workspaceID = strings.TrimSpace(input)
		if workspaceID == "" {
			return fmt.Errorf("workspace ID is required")
		}
	}

	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	api, err := NewAPIClientWithConfig(workspaceID, apiURL)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", apiURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{WorkspaceID: workspaceID, APIURL: apiURL}); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()

	if outputJSON {
		result := map[string]interface{}{
			"success":      true,
			"workspace_id": workspaceID,
			"api_url":      apiURL,
			"config":       configPath,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Bound to workspace %s\n", workspaceID)
		fmt.Printf("Config saved to %s\n", configPath)
	}

	return nil
}
