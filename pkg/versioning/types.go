package versioning

import "time"

// VersionStatus represents a version's lifecycle state.
type VersionStatus string

const (
	StatusDraft      VersionStatus = "draft"
	StatusStaging    VersionStatus = "staging"
	StatusProduction VersionStatus = "production"
	StatusArchived   VersionStatus = "archived"
)

// DeploymentStatus represents the state of a deployment attempt.
type DeploymentStatus string

const (
	DeploymentDeploying DeploymentStatus = "deploying"
	DeploymentCompleted DeploymentStatus = "completed"
	DeploymentFailed    DeploymentStatus = "failed"
)

// RiskLevel represents the severity of a proposed change.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// AtLeast reports whether l is at least as severe as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[l] >= riskRank[other]
}

// maxRisk returns the more severe of two risk levels.
func maxRisk(a, b RiskLevel) RiskLevel {
	if riskRank[b] > riskRank[a] {
		return b
	}
	return a
}

// Node is a single element of a workflow graph.
type Node struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Label       string         `json:"label,omitempty"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Edge connects two nodes in a workflow graph by their ids.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Definition is the versioned payload: the full node/edge graph
// executed by the workflow engine.
type Definition struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ValidationResult is the outcome of a structural definition check.
// Errors block deployment; warnings do not.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// PerformanceEstimate is computed at version creation time from the
// shape of the definition.
type PerformanceEstimate struct {
	ComplexityScore int       `json:"complexityScore"`
	EstimatedCost   float64   `json:"estimatedCost"`
	RiskLevel       RiskLevel `json:"riskLevel"`
}

// VersionMetadata carries caller-supplied and computed metadata for a version.
type VersionMetadata struct {
	Changelog   string              `json:"changelog,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Performance PerformanceEstimate `json:"performance"`
	Validation  ValidationResult    `json:"validation"`
}

// Version is an immutable snapshot of a workflow definition plus its
// lifecycle status and computed metadata. Edits always produce a new Version.
type Version struct {
	ID              string          `json:"id"`
	WorkflowID      string          `json:"workflowId"`
	VersionNumber   string          `json:"versionNumber"`
	Definition      Definition      `json:"definition"`
	Description     string          `json:"description,omitempty"`
	Status          VersionStatus   `json:"status"`
	Metadata        VersionMetadata `json:"metadata"`
	ParentVersionID string          `json:"parentVersionId,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NodeFieldChange records a single field-level difference on a node.
// Property differences use a "properties.<key>" field name.
type NodeFieldChange struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// NodeModification lists the field changes for a node present in both
// definitions. A node with zero field changes is not reported.
type NodeModification struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Fields []NodeFieldChange `json:"fields"`
}

// NodeDiff groups node-level differences between two definitions.
type NodeDiff struct {
	Added    []Node             `json:"added"`
	Removed  []Node             `json:"removed"`
	Modified []NodeModification `json:"modified"`
}

// EdgeDiff groups edge-level differences between two definitions.
// Edge identity is the ordered (source, target) pair; duplicates collapse.
type EdgeDiff struct {
	Added   []Edge `json:"added"`
	Removed []Edge `json:"removed"`
}

// DefinitionDiff is the structural difference between two definitions.
type DefinitionDiff struct {
	Nodes NodeDiff `json:"nodes"`
	Edges EdgeDiff `json:"edges"`
}

// RiskAssessment rates a proposed change by diff shape.
type RiskAssessment struct {
	Level           RiskLevel `json:"level"`
	Concerns        []string  `json:"concerns,omitempty"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

// VersionComparison is a derived, non-persisted projection comparing two
// versions of the same workflow.
type VersionComparison struct {
	WorkflowID        string         `json:"workflowId"`
	FromVersionID     string         `json:"fromVersionId"`
	ToVersionID       string         `json:"toVersionId"`
	FromVersionNumber string         `json:"fromVersionNumber"`
	ToVersionNumber   string         `json:"toVersionNumber"`
	Diff              DefinitionDiff `json:"diff"`
	MetadataChanges   []string       `json:"metadataChanges,omitempty"`
	Risk              RiskAssessment `json:"risk"`
}

// RollbackPlan is an ordered list of human-readable steps a dry run
// reports for undoing the proposed deploy.
type RollbackPlan struct {
	Steps             []string      `json:"steps"`
	EstimatedDuration time.Duration `json:"estimatedDuration"`
}

// DeploymentResult is returned by deploy and rollback operations.
type DeploymentResult struct {
	Success            bool          `json:"success"`
	DryRun             bool          `json:"dryRun,omitempty"`
	DeploymentID       string        `json:"deploymentId,omitempty"`
	WorkflowID         string        `json:"workflowId"`
	FromVersionID      string        `json:"fromVersionId,omitempty"`
	FromVersionNumber  string        `json:"fromVersionNumber,omitempty"`
	ToVersionID        string        `json:"toVersionId"`
	ToVersionNumber    string        `json:"toVersionNumber"`
	AffectedExecutions int           `json:"affectedExecutions"`
	RollbackPlan       *RollbackPlan `json:"rollbackPlan,omitempty"`
	StartedAt          time.Time     `json:"startedAt"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty"`
}

// CreateVersionOptions controls version creation.
type CreateVersionOptions struct {
	Description     string
	Status          VersionStatus
	Changelog       string
	Tags            []string
	CreatedBy       string
	ParentVersionID string
}

// DeployOptions controls a deployment.
type DeployOptions struct {
	DeployedBy      string
	DeploymentNotes string
	SkipValidation  bool
	DryRun          bool
}

// RollbackOptions controls a rollback.
type RollbackOptions struct {
	RolledBackBy  string
	Reason        string
	ForceRollback bool
}

// HistoryOptions controls version history queries.
type HistoryOptions struct {
	Limit           int
	IncludeArchived bool
	Status          VersionStatus
}
