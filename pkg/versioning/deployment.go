package versioning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeployVersion makes a version the one actively served for a workflow.
// Preconditions are checked in order before any mutation; a DeploymentRecord
// is created before the mutation and finalized after. Deploys for the same
// workflow are serialized so exactly one production version survives any
// interleaving of successful calls.
func (s *Service) DeployVersion(ctx context.Context, workflowID, versionID string, opts DeployOptions) (*DeploymentResult, error) {
	mu := s.locks.lock(workflowID)
	defer mu.Unlock()
	return s.deployLocked(ctx, workflowID, versionID, opts)
}

// deployLocked runs the deploy state machine. The caller must hold the
// workflow's lock; RollbackToVersion enters here directly with its own gate.
func (s *Service) deployLocked(ctx context.Context, workflowID, versionID string, opts DeployOptions) (*DeploymentResult, error) {
	candidate, err := s.versions.GetByID(workflowID, versionID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, &VersionNotFoundError{WorkflowID: workflowID, VersionID: versionID}
	}

	current, err := s.versions.GetProductionByWorkflow(workflowID)
	if err != nil {
		return nil, err
	}

	if !opts.SkipValidation {
		var reasons []string
		validation := ValidateDefinition(Definition(candidate.Definition))
		reasons = append(reasons, validation.Errors...)
		if current != nil {
			// Removing nodes or edges that production currently serves is
			// a high-severity change; it only goes out when the caller
			// explicitly skips validation.
			if cmp := s.compare(current, candidate); cmp.Risk.Level.AtLeast(RiskHigh) {
				reasons = append(reasons, fmt.Sprintf("comparison risk is %s: %v", cmp.Risk.Level, cmp.Risk.Concerns))
			}
		}
		if len(reasons) > 0 {
			return nil, &DeploymentValidationFailedError{
				WorkflowID: workflowID,
				VersionID:  versionID,
				Reasons:    reasons,
			}
		}
	}

	// The in-flight count is informational only; availability wins over
	// strict consistency here, so a failing engine query is logged for
	// operators rather than blocking the deploy.
	affected, err := s.engine.CountRunningExecutions(ctx, workflowID)
	if err != nil {
		s.logger.Warn("could not count in-flight executions",
			"workflowId", workflowID, "error", err)
		affected = 0
	}
	if affected > 0 {
		s.logger.Info("deploying with in-flight executions",
			"workflowId", workflowID, "count", affected)
	}

	result := &DeploymentResult{
		WorkflowID:         workflowID,
		ToVersionID:        candidate.ID,
		ToVersionNumber:    candidate.VersionNumber,
		AffectedExecutions: affected,
		StartedAt:          time.Now(),
	}
	if current != nil {
		result.FromVersionID = current.ID
		result.FromVersionNumber = current.VersionNumber
	}

	if opts.DryRun {
		result.Success = true
		result.DryRun = true
		result.RollbackPlan = buildRollbackPlan(workflowID, current, candidate, affected)
		return result, nil
	}

	record := &DeploymentRecord{
		ID:                 uuid.New().String(),
		WorkflowID:         workflowID,
		FromVersionID:      result.FromVersionID,
		ToVersionID:        candidate.ID,
		Status:             DeploymentDeploying,
		DeployedBy:         opts.DeployedBy,
		DeploymentNotes:    opts.DeploymentNotes,
		AffectedExecutions: affected,
		StartedAt:          result.StartedAt,
	}
	if err := s.deployments.Create(record); err != nil {
		return nil, err
	}
	result.DeploymentID = record.ID

	_ = s.audit.Append(&AuditEventRecord{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		EventType:    EventDeploymentStarted,
		Actor:        opts.DeployedBy,
		VersionID:    candidate.ID,
		DeploymentID: record.ID,
		Reason:       opts.DeploymentNotes,
	})

	if err := s.mutate(ctx, workflowID, current, candidate); err != nil {
		if ferr := s.deployments.Finalize(record.ID, DeploymentFailed, err.Error()); ferr != nil {
			s.logger.Error("could not finalize failed deployment record",
				"deploymentId", record.ID, "error", ferr)
		}
		_ = s.audit.Append(&AuditEventRecord{
			ID:           uuid.New().String(),
			WorkflowID:   workflowID,
			EventType:    EventDeploymentFailed,
			Actor:        opts.DeployedBy,
			VersionID:    candidate.ID,
			DeploymentID: record.ID,
			Outcome:      "failed",
			Reason:       err.Error(),
		})
		s.logger.Error("deployment failed",
			"workflowId", workflowID, "deploymentId", record.ID, "error", err)
		return nil, &DeploymentExecutionError{DeploymentID: record.ID, Err: err}
	}

	if err := s.deployments.Finalize(record.ID, DeploymentCompleted, ""); err != nil {
		return nil, &DeploymentExecutionError{DeploymentID: record.ID, Err: err}
	}

	_ = s.audit.Append(&AuditEventRecord{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		EventType:    EventDeploymentComplete,
		Actor:        opts.DeployedBy,
		VersionID:    candidate.ID,
		DeploymentID: record.ID,
		Outcome:      "success",
		Detail: JSONAny{
			"fromVersionId":      result.FromVersionID,
			"affectedExecutions": affected,
		},
	})

	s.logger.Info("deployment completed",
		"workflowId", workflowID,
		"deploymentId", record.ID,
		"versionNumber", candidate.VersionNumber,
		"affectedExecutions", affected)

	now := time.Now()
	result.Success = true
	result.CompletedAt = &now
	return result, nil
}

// mutate performs the deploy mutation: swap the served definition on the
// execution engine, then flip the version statuses in one transaction. A
// failure leaves the prior production version's status untouched.
func (s *Service) mutate(ctx context.Context, workflowID string, current, candidate *WorkflowVersionRecord) error {
	if err := s.engine.SetActiveDefinition(ctx, workflowID, Definition(candidate.Definition)); err != nil {
		return fmt.Errorf("set active definition: %w", err)
	}
	priorID := ""
	if current != nil {
		priorID = current.ID
	}
	return s.versions.PromoteToProduction(workflowID, candidate.ID, priorID)
}

// buildRollbackPlan generates the ordered recovery steps a dry run reports.
func buildRollbackPlan(workflowID string, current, candidate *WorkflowVersionRecord, inflight int) *RollbackPlan {
	plan := &RollbackPlan{
		EstimatedDuration: 2*time.Minute + time.Duration(inflight)*30*time.Second,
	}
	plan.Steps = append(plan.Steps,
		fmt.Sprintf("pause new executions of workflow %s", workflowID))
	if current != nil {
		plan.Steps = append(plan.Steps,
			fmt.Sprintf("redeploy version %s (current production)", current.VersionNumber),
			"confirm the execution engine serves the restored definition")
	} else {
		plan.Steps = append(plan.Steps,
			"no prior production version exists; disable the workflow instead of redeploying")
	}
	if inflight > 0 {
		plan.Steps = append(plan.Steps,
			fmt.Sprintf("monitor %d in-flight executions started under version %s", inflight, candidate.VersionNumber))
	}
	plan.Steps = append(plan.Steps,
		"review the deployment record and audit trail")
	return plan
}
