package versioning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RollbackToVersion redeploys a previously archived version. It reuses the
// full deploy state machine; only the pre-flight safety gate differs. On
// success a RollbackRecord is persisted alongside the DeploymentRecord.
func (s *Service) RollbackToVersion(ctx context.Context, workflowID, targetVersionID string, opts RollbackOptions) (*DeploymentResult, error) {
	mu := s.locks.lock(workflowID)
	defer mu.Unlock()

	target, err := s.versions.GetByID(workflowID, targetVersionID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &VersionNotFoundError{WorkflowID: workflowID, VersionID: targetVersionID}
	}

	current, err := s.versions.GetProductionByWorkflow(workflowID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &NoProductionVersionError{WorkflowID: workflowID}
	}
	if target.ID == current.ID {
		return nil, &AlreadyProductionError{WorkflowID: workflowID, VersionID: targetVersionID}
	}

	if !opts.ForceRollback {
		if risks := s.rollbackRisks(target, current); len(risks) > 0 {
			return nil, &RollbackUnsafeError{
				WorkflowID: workflowID,
				VersionID:  targetVersionID,
				Risks:      risks,
			}
		}
	}

	result, err := s.deployLocked(ctx, workflowID, targetVersionID, DeployOptions{
		DeployedBy:      opts.RolledBackBy,
		DeploymentNotes: "Rollback: " + opts.Reason,
		SkipValidation:  opts.ForceRollback,
	})
	if err != nil {
		return nil, err
	}

	rollback := &RollbackRecord{
		ID:            uuid.New().String(),
		WorkflowID:    workflowID,
		DeploymentID:  result.DeploymentID,
		FromVersionID: current.ID,
		ToVersionID:   target.ID,
		Reason:        opts.Reason,
		RolledBackBy:  opts.RolledBackBy,
	}
	if err := s.rollbacks.Create(rollback); err != nil {
		return nil, err
	}

	_ = s.audit.Append(&AuditEventRecord{
		ID:           uuid.New().String(),
		WorkflowID:   workflowID,
		EventType:    EventRollbackComplete,
		Actor:        opts.RolledBackBy,
		VersionID:    target.ID,
		DeploymentID: result.DeploymentID,
		Outcome:      "success",
		Reason:       opts.Reason,
		Detail: JSONAny{
			"fromVersionId": current.ID,
			"forced":        opts.ForceRollback,
		},
	})

	s.logger.Info("rollback completed",
		"workflowId", workflowID,
		"fromVersion", current.VersionNumber,
		"toVersion", target.VersionNumber,
		"reason", opts.Reason)

	return result, nil
}

// rollbackRisks runs the rollback safety check: a stale target, or a target
// whose restoration would remove nodes or edges the current production
// version added. A target that passes here also passes the deploy gate,
// so an unforced rollback never fails late with a validation error.
func (s *Service) rollbackRisks(target, current *WorkflowVersionRecord) []string {
	var risks []string

	if age := time.Since(target.CreatedAt); age > s.cfg.StaleRollbackWindow {
		risks = append(risks, fmt.Sprintf("target version %s is %d days old",
			target.VersionNumber, int(age.Hours()/24)))
	}

	cmp := s.compare(target, current)
	if n := len(cmp.Diff.Nodes.Added); n > 0 {
		risks = append(risks, fmt.Sprintf("rolling back removes %d nodes added since version %s",
			n, target.VersionNumber))
	}
	if n := len(cmp.Diff.Edges.Added); n > 0 {
		risks = append(risks, fmt.Sprintf("rolling back removes %d edges added since version %s",
			n, target.VersionNumber))
	}

	return risks
}
