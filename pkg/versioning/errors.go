package versioning

import (
	"errors"
	"fmt"
	"strings"
)

// Machine-readable error codes carried by the typed errors below.
const (
	CodeVersionNotFound      = "VERSION_NOT_FOUND"
	CodeNoProductionVersion  = "NO_PRODUCTION_VERSION"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeDeployValidation     = "DEPLOYMENT_VALIDATION_FAILED"
	CodeAlreadyProduction    = "ALREADY_PRODUCTION"
	CodeRollbackUnsafe       = "ROLLBACK_UNSAFE"
	CodeDeploymentExecution  = "DEPLOYMENT_EXECUTION_FAILED"
)

// VersionNotFoundError indicates the requested version does not exist or
// does not belong to the given workflow.
type VersionNotFoundError struct {
	WorkflowID string
	VersionID  string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %s not found for workflow %s", e.VersionID, e.WorkflowID)
}

// Code returns the machine-readable error code.
func (e *VersionNotFoundError) Code() string { return CodeVersionNotFound }

// NoProductionVersionError indicates a workflow has no production version
// to roll back from.
type NoProductionVersionError struct {
	WorkflowID string
}

func (e *NoProductionVersionError) Error() string {
	return fmt.Sprintf("workflow %s has no production version", e.WorkflowID)
}

// Code returns the machine-readable error code.
func (e *NoProductionVersionError) Code() string { return CodeNoProductionVersion }

// ValidationFailedError indicates a definition failed structural validation.
type ValidationFailedError struct {
	Result ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return "definition validation failed: " + strings.Join(e.Result.Errors, "; ")
}

// Code returns the machine-readable error code.
func (e *ValidationFailedError) Code() string { return CodeValidationFailed }

// DeploymentValidationFailedError aggregates every reason the pre-deploy
// check refused a candidate. Raised before any mutation.
type DeploymentValidationFailedError struct {
	WorkflowID string
	VersionID  string
	Reasons    []string
}

func (e *DeploymentValidationFailedError) Error() string {
	return fmt.Sprintf("deployment of %s to workflow %s blocked: %s",
		e.VersionID, e.WorkflowID, strings.Join(e.Reasons, "; "))
}

// Code returns the machine-readable error code.
func (e *DeploymentValidationFailedError) Code() string { return CodeDeployValidation }

// AlreadyProductionError indicates the rollback target is already the
// production version. No-op deploys are rejected, not silently succeeded.
type AlreadyProductionError struct {
	WorkflowID string
	VersionID  string
}

func (e *AlreadyProductionError) Error() string {
	return fmt.Sprintf("version %s is already in production for workflow %s", e.VersionID, e.WorkflowID)
}

// Code returns the machine-readable error code.
func (e *AlreadyProductionError) Code() string { return CodeAlreadyProduction }

// RollbackUnsafeError lists the specific risks the rollback safety check
// flagged. Overridable with ForceRollback.
type RollbackUnsafeError struct {
	WorkflowID string
	VersionID  string
	Risks      []string
}

func (e *RollbackUnsafeError) Error() string {
	return fmt.Sprintf("rollback to %s for workflow %s is unsafe: %s",
		e.VersionID, e.WorkflowID, strings.Join(e.Risks, "; "))
}

// Code returns the machine-readable error code.
func (e *RollbackUnsafeError) Code() string { return CodeRollbackUnsafe }

// DeploymentExecutionError wraps a failure during the deploy mutation step.
// It is always paired with a persisted failed DeploymentRecord.
type DeploymentExecutionError struct {
	DeploymentID string
	Err          error
}

func (e *DeploymentExecutionError) Error() string {
	return fmt.Sprintf("deployment %s failed: %v", e.DeploymentID, e.Err)
}

func (e *DeploymentExecutionError) Unwrap() error { return e.Err }

// Code returns the machine-readable error code.
func (e *DeploymentExecutionError) Code() string { return CodeDeploymentExecution }

// IsVersionNotFound reports whether err is a VersionNotFoundError.
func IsVersionNotFound(err error) bool {
	var e *VersionNotFoundError
	return errors.As(err, &e)
}

// IsRollbackUnsafe reports whether err is a RollbackUnsafeError.
func IsRollbackUnsafe(err error) bool {
	var e *RollbackUnsafeError
	return errors.As(err, &e)
}

// IsAlreadyProduction reports whether err is an AlreadyProductionError.
func IsAlreadyProduction(err error) bool {
	var e *AlreadyProductionError
	return errors.As(err, &e)
}

// ErrorCode returns the machine-readable code for any error in the
// versioning taxonomy, or "" for other errors.
func ErrorCode(err error) string {
	type coded interface{ Code() string }
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}
