package versioning

import (
	"fmt"

	"gorm.io/gorm"
)

// VersionStore provides CRUD operations for workflow version records.
type VersionStore struct {
	db *gorm.DB
}

// NewVersionStore creates a new VersionStore.
func NewVersionStore(db *gorm.DB) *VersionStore {
	return &VersionStore{db: db}
}

// AutoMigrate creates or updates the workflow_versions table.
func (s *VersionStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&WorkflowVersionRecord{}); err != nil {
		return fmt.Errorf("auto-migrate workflow_versions: %w", err)
	}
	return nil
}

// Create inserts a new immutable version record.
func (s *VersionStore) Create(record *WorkflowVersionRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create version: %w", err)
	}
	return nil
}

// GetByID retrieves a version by id, scoped to a workflow.
// Returns nil, nil if no record exists.
func (s *VersionStore) GetByID(workflowID, versionID string) (*WorkflowVersionRecord, error) {
	var record WorkflowVersionRecord
	err := s.db.Where("workflow_id = ? AND id = ?", workflowID, versionID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &record, nil
}

// GetLatestByWorkflow returns the newest version for a workflow by
// created_at descending. Returns nil, nil if the workflow has no versions.
func (s *VersionStore) GetLatestByWorkflow(workflowID string) (*WorkflowVersionRecord, error) {
	var record WorkflowVersionRecord
	err := s.db.Where("workflow_id = ?", workflowID).Order("created_at DESC").First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest version: %w", err)
	}
	return &record, nil
}

// GetProductionByWorkflow returns the workflow's current production version.
// Returns nil, nil if none is in production.
func (s *VersionStore) GetProductionByWorkflow(workflowID string) (*WorkflowVersionRecord, error) {
	var record WorkflowVersionRecord
	err := s.db.Where("workflow_id = ? AND status = ?", workflowID, StatusProduction).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get production version: %w", err)
	}
	return &record, nil
}

// UpdateStatus sets a version's lifecycle status.
func (s *VersionStore) UpdateStatus(versionID string, status VersionStatus) error {
	result := s.db.Model(&WorkflowVersionRecord{}).Where("id = ?", versionID).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update version status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update version status: version %s not found", versionID)
	}
	return nil
}

// PromoteToProduction flips the candidate version to production and, when a
// prior production version exists, archives it, inside a single transaction.
// Only the deployment orchestrator may call this; all other writers leave
// version status alone.
func (s *VersionStore) PromoteToProduction(workflowID, candidateID, priorID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if priorID != "" {
			if err := tx.Model(&WorkflowVersionRecord{}).
				Where("id = ? AND workflow_id = ?", priorID, workflowID).
				Update("status", StatusArchived).Error; err != nil {
				return fmt.Errorf("archive prior version: %w", err)
			}
		}
		result := tx.Model(&WorkflowVersionRecord{}).
			Where("id = ? AND workflow_id = ?", candidateID, workflowID).
			Update("status", StatusProduction)
		if result.Error != nil {
			return fmt.Errorf("promote candidate version: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("promote candidate version: version %s not found", candidateID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("promote to production: %w", err)
	}
	return nil
}

// ListByWorkflow returns versions for a workflow ordered by created_at
// descending. Archived versions are excluded unless opts.IncludeArchived is
// set or an explicit status filter asks for them.
func (s *VersionStore) ListByWorkflow(workflowID string, opts HistoryOptions) ([]WorkflowVersionRecord, error) {
	query := s.db.Where("workflow_id = ?", workflowID).Order("created_at DESC")
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	} else if !opts.IncludeArchived {
		query = query.Where("status <> ?", StatusArchived)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}

	var records []WorkflowVersionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return records, nil
}

// CountByWorkflow returns the total number of versions for a workflow.
func (s *VersionStore) CountByWorkflow(workflowID string) (int64, error) {
	var count int64
	if err := s.db.Model(&WorkflowVersionRecord{}).Where("workflow_id = ?", workflowID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return count, nil
}
