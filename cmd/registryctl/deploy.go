package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowsage/workflow-registry/pkg/versioning"
)

var (
	deployBy       string
	deployNotes    string
	deployDryRun   bool
	deploySkipVal  bool
	rollbackBy     string
	rollbackReason string
	rollbackForce  bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy <workflowId> <versionId>",
	Short: "Deploy a version to production",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		req := versioning.DeployRequest{
			DeployedBy:      deployBy,
			DeploymentNotes: deployNotes,
			SkipValidation:  deploySkipVal,
			DryRun:          deployDryRun,
		}

		var result versioning.DeploymentResult
		path := fmt.Sprintf("/workflows/%s/versions/%s/deploy", args[0], args[1])
		if err := client.postJSON(path, req, &result); err != nil {
			return fmt.Errorf("deploy failed: %w", err)
		}

		if outputFmt == "json" {
			return printOutput(result)
		}

		if result.DryRun {
			fmt.Printf("Dry run: would deploy %s (replacing %s), %d in-flight executions\n",
				result.ToVersionNumber, orNone(result.FromVersionNumber), result.AffectedExecutions)
			if result.RollbackPlan != nil {
				fmt.Printf("Rollback plan (estimated %s):\n", result.RollbackPlan.EstimatedDuration)
				for i, step := range result.RollbackPlan.Steps {
					fmt.Printf("  %d. %s\n", i+1, step)
				}
			}
			return nil
		}

		fmt.Printf("Deployed %s to production (deployment %s), %d in-flight executions\n",
			result.ToVersionNumber, result.DeploymentID, result.AffectedExecutions)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <workflowId> <versionId>",
	Short: "Roll a workflow back to a previous version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		req := versioning.RollbackRequest{
			RolledBackBy:  rollbackBy,
			Reason:        rollbackReason,
			ForceRollback: rollbackForce,
		}

		var result versioning.DeploymentResult
		path := fmt.Sprintf("/workflows/%s/versions/%s/rollback", args[0], args[1])
		if err := client.postJSON(path, req, &result); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}

		if outputFmt == "json" {
			return printOutput(result)
		}
		fmt.Printf("Rolled back to %s (deployment %s)\n", result.ToVersionNumber, result.DeploymentID)
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func init() {
	deployCmd.Flags().StringVar(&deployBy, "by", "", "Actor performing the deploy")
	deployCmd.Flags().StringVar(&deployNotes, "notes", "", "Deployment notes")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Report the outcome without mutating any state")
	deployCmd.Flags().BoolVar(&deploySkipVal, "skip-validation", false, "Skip the pre-deploy risk check")

	rollbackCmd.Flags().StringVar(&rollbackBy, "by", "", "Actor performing the rollback")
	rollbackCmd.Flags().StringVar(&rollbackReason, "reason", "", "Reason for the rollback (required)")
	rollbackCmd.Flags().BoolVar(&rollbackForce, "force", false, "Override the rollback safety check")
	_ = rollbackCmd.MarkFlagRequired("reason")
}
