package versioning

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DeploymentStore provides operations for deployment records.
type DeploymentStore struct {
	db *gorm.DB
}

// NewDeploymentStore creates a new DeploymentStore.
func NewDeploymentStore(db *gorm.DB) *DeploymentStore {
	return &DeploymentStore{db: db}
}

// AutoMigrate creates or updates the workflow_deployments table.
func (s *DeploymentStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&DeploymentRecord{}); err != nil {
		return fmt.Errorf("auto-migrate workflow_deployments: %w", err)
	}
	return nil
}

// Create inserts a deployment record. Called before any deploy mutation so
// a failed deploy always leaves an auditable trail.
func (s *DeploymentStore) Create(record *DeploymentRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create deployment record: %w", err)
	}
	return nil
}

// Finalize marks a deployment completed or failed.
func (s *DeploymentStore) Finalize(id string, status DeploymentStatus, errorMessage string) error {
	now := time.Now()
	updates := map[string]any{
		"status":       status,
		"completed_at": &now,
		"error":        errorMessage,
	}
	result := s.db.Model(&DeploymentRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("finalize deployment record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("finalize deployment record: deployment %s not found", id)
	}
	return nil
}

// GetByID retrieves a deployment record. Returns nil, nil if none exists.
func (s *DeploymentStore) GetByID(id string) (*DeploymentRecord, error) {
	var record DeploymentRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get deployment record: %w", err)
	}
	return &record, nil
}

// ListByWorkflow returns deployment records for a workflow ordered by
// started_at descending.
func (s *DeploymentStore) ListByWorkflow(workflowID string, limit int) ([]DeploymentRecord, error) {
	query := s.db.Where("workflow_id = ?", workflowID).Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []DeploymentRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list deployment records: %w", err)
	}
	return records, nil
}

// RollbackStore provides operations for rollback records.
type RollbackStore struct {
	db *gorm.DB
}

// NewRollbackStore creates a new RollbackStore.
func NewRollbackStore(db *gorm.DB) *RollbackStore {
	return &RollbackStore{db: db}
}

// AutoMigrate creates or updates the workflow_rollbacks table.
func (s *RollbackStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&RollbackRecord{}); err != nil {
		return fmt.Errorf("auto-migrate workflow_rollbacks: %w", err)
	}
	return nil
}

// Create inserts a rollback record.
func (s *RollbackStore) Create(record *RollbackRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create rollback record: %w", err)
	}
	return nil
}

// ListByWorkflow returns rollback records for a workflow ordered by
// timestamp descending.
func (s *RollbackStore) ListByWorkflow(workflowID string, limit int) ([]RollbackRecord, error) {
	query := s.db.Where("workflow_id = ?", workflowID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []RollbackRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list rollback records: %w", err)
	}
	return records, nil
}
