package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowsage/workflow-registry/pkg/versioning"
)

var (
	versionFile        string
	versionDescription string
	versionChangelog   string
	versionCreatedBy   string
	versionTags        []string
	includeArchived    bool
	historyLimit       int
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage workflow versions",
}

var versionsListCmd = &cobra.Command{
	Use:   "list <workflowId>",
	Short: "List versions for a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		path := fmt.Sprintf("/workflows/%s/versions?limit=%d", args[0], historyLimit)
		if includeArchived {
			path += "&includeArchived=true"
		}

		var resp struct {
			Versions []versioning.Version `json:"versions"`
		}
		if err := client.getJSON(path, &resp); err != nil {
			return fmt.Errorf("failed to list versions: %w", err)
		}

		if outputFmt == "json" {
			return printOutput(resp)
		}

		headers := []string{"Version", "ID", "Status", "Risk", "Created By", "Created At"}
		rows := make([][]string, 0, len(resp.Versions))
		for _, v := range resp.Versions {
			rows = append(rows, []string{
				v.VersionNumber,
				v.ID,
				string(v.Status),
				string(v.Metadata.Performance.RiskLevel),
				v.CreatedBy,
				v.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		printTable(headers, rows)
		return nil
	},
}

var versionsCreateCmd = &cobra.Command{
	Use:   "create <workflowId>",
	Short: "Create a new version from a definition file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(versionFile)
		if err != nil {
			return fmt.Errorf("failed to read definition file: %w", err)
		}
		var def versioning.Definition
		if err := json.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("failed to parse definition file: %w", err)
		}

		client := newClient()
		req := versioning.CreateVersionRequest{
			Definition:  def,
			Description: versionDescription,
			Changelog:   versionChangelog,
			Tags:        versionTags,
			CreatedBy:   versionCreatedBy,
		}

		var version versioning.Version
		if err := client.postJSON(fmt.Sprintf("/workflows/%s/versions", args[0]), req, &version); err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}

		if outputFmt == "json" {
			return printOutput(version)
		}
		fmt.Printf("Created version %s (%s) with complexity score %d\n",
			version.VersionNumber, version.ID, version.Metadata.Performance.ComplexityScore)
		for _, w := range version.Metadata.Validation.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		return nil
	},
}

func init() {
	versionsListCmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived versions")
	versionsListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of versions to list")

	versionsCreateCmd.Flags().StringVarP(&versionFile, "file", "f", "", "Path to a JSON definition file (required)")
	versionsCreateCmd.Flags().StringVar(&versionDescription, "description", "", "Version description")
	versionsCreateCmd.Flags().StringVar(&versionChangelog, "changelog", "", "Changelog entry")
	versionsCreateCmd.Flags().StringVar(&versionCreatedBy, "created-by", "", "Actor creating the version")
	versionsCreateCmd.Flags().StringSliceVar(&versionTags, "tag", nil, "Tags to attach (repeatable)")
	_ = versionsCreateCmd.MarkFlagRequired("file")

	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsCreateCmd)
}
