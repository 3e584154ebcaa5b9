package versioning

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Audit event types emitted by the subsystem.
const (
	EventVersionCreated     = "workflow.version.created"
	EventDeploymentStarted  = "workflow.deployment.started"
	EventDeploymentComplete = "workflow.deployment.completed"
	EventDeploymentFailed   = "workflow.deployment.failed"
	EventRollbackComplete   = "workflow.rollback.completed"
)

// JSONAny is a custom GORM type for map[string]any stored as JSON.
type JSONAny map[string]any

// Scan implements the sql.Scanner interface for JSONAny.
func (m *JSONAny) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONAny: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for JSONAny.
func (m JSONAny) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// AuditEventRecord is an immutable audit log entry. Audit writes are
// fire-and-forget: a failed append never blocks the operation it records.
type AuditEventRecord struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	WorkflowID   string    `gorm:"column:workflow_id;index:idx_audit_workflow;not null" json:"workflowId"`
	EventType    string    `gorm:"column:event_type;index;not null" json:"eventType"`
	Actor        string    `gorm:"column:actor;not null" json:"actor"`
	VersionID    string    `gorm:"column:version_id" json:"versionId,omitempty"`
	DeploymentID string    `gorm:"column:deployment_id" json:"deploymentId,omitempty"`
	Outcome      string    `gorm:"column:outcome" json:"outcome,omitempty"`
	Reason       string    `gorm:"column:reason" json:"reason,omitempty"`
	Detail       JSONAny   `gorm:"column:detail;type:text" json:"detail,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName returns the GORM table name.
func (AuditEventRecord) TableName() string { return "workflow_audit_events" }

// AuditStore provides append-only operations for audit event records.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// AutoMigrate creates or updates the workflow_audit_events table.
func (s *AuditStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&AuditEventRecord{}); err != nil {
		return fmt.Errorf("auto-migrate workflow_audit_events: %w", err)
	}
	return nil
}

// Append creates a new immutable audit event record.
func (s *AuditStore) Append(event *AuditEventRecord) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByWorkflow returns audit events for a workflow ordered by created_at
// descending.
func (s *AuditStore) ListByWorkflow(workflowID string, limit int) ([]AuditEventRecord, error) {
	query := s.db.Where("workflow_id = ?", workflowID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []AuditEventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return records, nil
}

// DeleteOlderThan deletes audit events created before the cutoff time.
// Returns the number of deleted records.
func (s *AuditStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&AuditEventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
