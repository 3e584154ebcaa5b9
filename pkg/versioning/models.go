package versioning

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// definitionSchemaVersion is the on-disk encoding version for stored
// definitions. Bump it when the envelope shape changes; Scan keeps
// decoding older versions.
const definitionSchemaVersion = 1

type definitionEnvelope struct {
	SchemaVersion int    `json:"schemaVersion"`
	Nodes         []Node `json:"nodes"`
	Edges         []Edge `json:"edges"`
}

// DefinitionJSON is a custom GORM type storing a Definition as a versioned
// JSON envelope. The core operates on typed definitions; serialization
// happens only at this boundary.
type DefinitionJSON Definition

// Scan implements the sql.Scanner interface for DefinitionJSON.
func (d *DefinitionJSON) Scan(value any) error {
	if value == nil {
		*d = DefinitionJSON{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for DefinitionJSON: %T", value)
	}
	var env definitionEnvelope
	if err := json.Unmarshal(bytes, &env); err != nil {
		return fmt.Errorf("decode definition: %w", err)
	}
	d.Nodes = env.Nodes
	d.Edges = env.Edges
	return nil
}

// Value implements the driver.Valuer interface for DefinitionJSON.
func (d DefinitionJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(definitionEnvelope{
		SchemaVersion: definitionSchemaVersion,
		Nodes:         d.Nodes,
		Edges:         d.Edges,
	})
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MetadataJSON is a custom GORM type for VersionMetadata stored as JSON.
type MetadataJSON VersionMetadata

// Scan implements the sql.Scanner interface for MetadataJSON.
func (m *MetadataJSON) Scan(value any) error {
	if value == nil {
		*m = MetadataJSON{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for MetadataJSON: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for MetadataJSON.
func (m MetadataJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// WorkflowVersionRecord stores an immutable workflow version snapshot.
type WorkflowVersionRecord struct {
	ID              string         `gorm:"primaryKey;column:id;type:varchar(36)"`
	WorkflowID      string         `gorm:"column:workflow_id;index:idx_version_workflow;not null"`
	VersionNumber   string         `gorm:"column:version_number;not null"`
	Status          VersionStatus  `gorm:"column:status;index:idx_version_status;default:draft;not null"`
	Description     string         `gorm:"column:description"`
	Definition      DefinitionJSON `gorm:"column:definition;type:text;not null"`
	Metadata        MetadataJSON   `gorm:"column:metadata;type:text"`
	ParentVersionID string         `gorm:"column:parent_version_id"`
	CreatedBy       string         `gorm:"column:created_by;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (WorkflowVersionRecord) TableName() string { return "workflow_versions" }

// DeploymentRecord is created before any deploy mutation and finalized after.
type DeploymentRecord struct {
	ID                 string           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	WorkflowID         string           `gorm:"column:workflow_id;index:idx_deployment_workflow;not null" json:"workflowId"`
	FromVersionID      string           `gorm:"column:from_version_id" json:"fromVersionId,omitempty"`
	ToVersionID        string           `gorm:"column:to_version_id;not null" json:"toVersionId"`
	Status             DeploymentStatus `gorm:"column:status;not null" json:"status"`
	DeployedBy         string           `gorm:"column:deployed_by;not null" json:"deployedBy"`
	DeploymentNotes    string           `gorm:"column:deployment_notes" json:"deploymentNotes,omitempty"`
	AffectedExecutions int              `gorm:"column:affected_executions" json:"affectedExecutions"`
	StartedAt          time.Time        `gorm:"column:started_at;not null" json:"startedAt"`
	CompletedAt        *time.Time       `gorm:"column:completed_at" json:"completedAt,omitempty"`
	Error              string           `gorm:"column:error" json:"error,omitempty"`
}

// TableName returns the GORM table name.
func (DeploymentRecord) TableName() string { return "workflow_deployments" }

// RollbackRecord links the two versions involved in a rollback. It always
// accompanies the DeploymentRecord created for the rollback deploy.
type RollbackRecord struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	WorkflowID    string    `gorm:"column:workflow_id;index:idx_rollback_workflow;not null" json:"workflowId"`
	DeploymentID  string    `gorm:"column:deployment_id;not null" json:"deploymentId"`
	FromVersionID string    `gorm:"column:from_version_id;not null" json:"fromVersionId"`
	ToVersionID   string    `gorm:"column:to_version_id;not null" json:"toVersionId"`
	Reason        string    `gorm:"column:reason;not null" json:"reason"`
	RolledBackBy  string    `gorm:"column:rolled_back_by;not null" json:"rolledBackBy"`
	Timestamp     time.Time `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

// TableName returns the GORM table name.
func (RollbackRecord) TableName() string { return "workflow_rollbacks" }

// toVersion converts a storage record to the API-facing Version.
func (r *WorkflowVersionRecord) toVersion() *Version {
	return &Version{
		ID:              r.ID,
		WorkflowID:      r.WorkflowID,
		VersionNumber:   r.VersionNumber,
		Definition:      Definition(r.Definition),
		Description:     r.Description,
		Status:          r.Status,
		Metadata:        VersionMetadata(r.Metadata),
		ParentVersionID: r.ParentVersionID,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
	}
}
