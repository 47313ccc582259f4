package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// MetadataField represents a metadata field from the API.
type MetadataField struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	ValueType string      `json:"value_type"`
	Scope     string      `json:"scope"`
	AppliesTo []string    `json:"applies_to,omitempty"`
	Value     interface{} `json:"value,omitempty"`
	UpdatedAt string      `json:"updated_at"`
}

// MetadataCmd creates the metadata command group.
func MetadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Manage metadata fields",
		Long:  "Lists, creates, and updates the metadata fields stamped onto chunks.",
	}

	cmd.AddCommand(metadataListCmd())
	cmd.AddCommand(metadataCreateCmd())
	cmd.AddCommand(metadataUpdateCmd())

	return cmd
}

func metadataListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List metadata fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetadataList(outputJSON)
		},
	}
}

func runMetadataList(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/metadata-fields")
	if err != nil {
		return fmt.Errorf("failed to list metadata fields: %w", err)
	}

	var fields []MetadataField
	if err := json.Unmarshal(resp.Data, &fields); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(fields, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(fields) == 0 {
		fmt.Println("No metadata fields found.")
		return nil
	}

	for _, field := range fields {
		fmt.Printf("%s (%s, %s)\n", field.Name, field.ValueType, field.Scope)
		if field.Value != nil {
			fmt.Printf("   Value: %v\n", field.Value)
		}
		if len(field.AppliesTo) > 0 {
			fmt.Printf("   Applies to: %s\n", strings.Join(field.AppliesTo, ", "))
		}
		fmt.Printf("   ID: %s\n", field.ID)
	}

	return nil
}

func metadataCreateCmd() *cobra.Command {
	var (
		valueType string
		value     string
		appliesTo []string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a custom metadata field",
		Long:  "Creates a custom metadata field. Names are lowercase alphanumeric with underscores.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetadataCreate(args[0], valueType, value, appliesTo, outputJSON)
		},
	}

	cmd.Flags().StringVar(&valueType, "type", "string", "Value type (string, number, time)")
	cmd.Flags().StringVar(&value, "value", "", "Field value (parsed as JSON, falls back to string)")
	cmd.Flags().StringSliceVar(&appliesTo, "applies-to", nil, "Restrict to document names or sources")

	return cmd
}

func runMetadataCreate(name, valueType, value string, appliesTo []string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"name":       name,
		"value_type": valueType,
	}
	if value != "" {
		req["value"] = parseFlagValue(value)
	}
	if len(appliesTo) > 0 {
		req["applies_to"] = appliesTo
	}

	resp, err := api.Post("/metadata-fields", req)
	if err != nil {
		return fmt.Errorf("failed to create metadata field: %w", err)
	}

	var field MetadataField
	if err := json.Unmarshal(resp.Data, &field); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(field, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created metadata field: %s\n", field.Name)
		fmt.Printf("ID: %s\n", field.ID)
	}

	return nil
}

func metadataUpdateCmd() *cobra.Command {
	var (
		value     string
		appliesTo []string
	)

	cmd := &cobra.Command{
		Use:   "update <field_id>",
		Short: "Update a custom metadata field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runMetadataUpdate(args[0], value, appliesTo, outputJSON)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "New field value (parsed as JSON, falls back to string)")
	cmd.Flags().StringSliceVar(&appliesTo, "applies-to", nil, "Restrict to document names or sources")

	return cmd
}

func runMetadataUpdate(fieldID, value string, appliesTo []string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := map[string]interface{}{}
	if value != "" {
		req["value"] = parseFlagValue(value)
	}
	if len(appliesTo) > 0 {
		req["applies_to"] = appliesTo
	}

	resp, err := api.Patch(fmt.Sprintf("/metadata-fields/%s", fieldID), req)
	if err != nil {
		return fmt.Errorf("failed to update metadata field: %w", err)
	}

	var field MetadataField
	if err := json.Unmarshal(resp.Data, &field); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(field, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Updated metadata field: %s\n", field.Name)
		if field.Value != nil {
			fmt.Printf("Value: %v\n", field.Value)
		}
	}

	return nil
}

// parseFlagValue keeps numbers and booleans typed when the flag value is
// valid JSON, otherwise treats it as a plain string.
func parseFlagValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
