package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsage/workflow-registry/pkg/versioning"
)

var compareCmd = &cobra.Command{
	Use:   "compare <workflowId> <fromVersionId> <toVersionId>",
	Short: "Compare two versions of a workflow",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var cmp versioning.VersionComparison
		path := fmt.Sprintf("/workflows/%s/versions/compare?from=%s&to=%s", args[0], args[1], args[2])
		if err := client.getJSON(path, &cmp); err != nil {
			return fmt.Errorf("failed to compare versions: %w", err)
		}

		if outputFmt == "json" {
			return printOutput(cmp)
		}

		fmt.Printf("%s -> %s  risk: %s\n", cmp.FromVersionNumber, cmp.ToVersionNumber, cmp.Risk.Level)
		fmt.Printf("  nodes: +%d -%d ~%d  edges: +%d -%d\n",
			len(cmp.Diff.Nodes.Added), len(cmp.Diff.Nodes.Removed), len(cmp.Diff.Nodes.Modified),
			len(cmp.Diff.Edges.Added), len(cmp.Diff.Edges.Removed))
		for _, c := range cmp.Risk.Concerns {
			fmt.Printf("  concern: %s\n", c)
		}
		for _, r := range cmp.Risk.Recommendations {
			fmt.Printf("  recommendation: %s\n", r)
		}
		return nil
	},
}

var deploymentsLimit int

var deploymentsCmd = &cobra.Command{
	Use:   "deployments <workflowId>",
	Short: "Show deployment history for a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		var resp struct {
			Deployments []versioning.DeploymentRecord `json:"deployments"`
		}
		path := fmt.Sprintf("/workflows/%s/deployments?limit=%d", args[0], deploymentsLimit)
		if err := client.getJSON(path, &resp); err != nil {
			return fmt.Errorf("failed to list deployments: %w", err)
		}

		if outputFmt == "json" {
			return printOutput(resp)
		}

		headers := []string{"ID", "Status", "To Version", "Deployed By", "Started At", "Error"}
		rows := make([][]string, 0, len(resp.Deployments))
		for _, d := range resp.Deployments {
			rows = append(rows, []string{
				d.ID,
				string(d.Status),
				d.ToVersionID,
				d.DeployedBy,
				d.StartedAt.Format("2006-01-02 15:04:05"),
				d.Error,
			})
		}
		printTable(headers, rows)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check registry server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()

		// The healthcheck endpoint lives at the server root, not under the
		// API prefix.
		var resp map[string]string
		if err := client.getRootJSON("/healthcheck", &resp); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Printf("Server status: %s\n", resp["status"])
		return nil
	},
}

func init() {
	deploymentsCmd.Flags().IntVar(&deploymentsLimit, "limit", 20, "Maximum number of deployments to list")
}
