package versioning

import "context"

// ExecutionEngine is the external workflow runtime collaborator. The
// orchestrator reports in-flight execution counts for operator visibility
// and pushes the active definition on deploy; already-running executions
// are never interrupted.
type ExecutionEngine interface {
	// CountRunningExecutions returns the number of in-flight executions
	// for a workflow.
	CountRunningExecutions(ctx context.Context, workflowID string) (int, error)

	// SetActiveDefinition replaces the definition served to subsequently
	// started executions of a workflow.
	SetActiveDefinition(ctx context.Context, workflowID string, def Definition) error
}

// NoopEngine is an ExecutionEngine that reports zero executions and accepts
// every definition. Useful for local runs and as a safe default when no
// engine endpoint is configured.
type NoopEngine struct{}

// CountRunningExecutions always returns zero.
func (NoopEngine) CountRunningExecutions(ctx context.Context, workflowID string) (int, error) {
	return 0, nil
}

// SetActiveDefinition accepts any definition.
func (NoopEngine) SetActiveDefinition(ctx context.Context, workflowID string, def Definition) error {
	return nil
}
