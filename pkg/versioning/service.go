package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is the workflow version control and deployment orchestration
// subsystem. It is constructed once at process start and injected into
// request handlers; there is no ambient global instance.
type Service struct {
	versions    *VersionStore
	deployments *DeploymentStore
	rollbacks   *RollbackStore
	audit       *AuditStore
	engine      ExecutionEngine
	cfg         *Config
	logger      *slog.Logger
	locks       *workflowLocks
	comparisons *comparisonCache
}

// NewService creates a Service over the given database and execution
// engine. A nil cfg uses defaults; a nil logger uses slog.Default.
func NewService(db *gorm.DB, engine ExecutionEngine, cfg *Config, logger *slog.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NoopEngine{}
	}
	return &Service{
		versions:    NewVersionStore(db),
		deployments: NewDeploymentStore(db),
		rollbacks:   NewRollbackStore(db),
		audit:       NewAuditStore(db),
		engine:      engine,
		cfg:         cfg,
		logger:      logger,
		locks:       newWorkflowLocks(),
		comparisons: newComparisonCache(cfg.ComparisonCacheSize),
	}
}

// AutoMigrate creates or updates every table the subsystem owns.
func (s *Service) AutoMigrate() error {
	if err := s.versions.AutoMigrate(); err != nil {
		return err
	}
	if err := s.deployments.AutoMigrate(); err != nil {
		return err
	}
	if err := s.rollbacks.AutoMigrate(); err != nil {
		return err
	}
	return s.audit.AutoMigrate()
}

// Versions exposes the version store for read-only callers.
func (s *Service) Versions() *VersionStore { return s.versions }

// Deployments exposes the deployment store for read-only callers.
func (s *Service) Deployments() *DeploymentStore { return s.deployments }

// Audit exposes the audit store for operators and retention sweeps.
func (s *Service) Audit() *AuditStore { return s.audit }

// CreateVersion validates a definition, computes the next version number
// and performance estimate, and persists a new immutable version. A
// structurally broken definition (missing node or edge arrays) is rejected
// with ValidationFailedError; warnings are recorded in metadata and do not
// block creation.
func (s *Service) CreateVersion(ctx context.Context, workflowID string, def Definition, opts CreateVersionOptions) (*Version, error) {
	validation := ValidateDefinition(def)
	if !validation.IsValid {
		return nil, &ValidationFailedError{Result: validation}
	}

	latest, err := s.versions.GetLatestByWorkflow(workflowID)
	if err != nil {
		return nil, err
	}
	number := initialVersionNumber
	if latest != nil {
		number, err = nextVersionNumber(latest.VersionNumber)
		if err != nil {
			return nil, err
		}
	}

	status := opts.Status
	if status == "" {
		status = StatusDraft
	}

	record := &WorkflowVersionRecord{
		ID:            uuid.New().String(),
		WorkflowID:    workflowID,
		VersionNumber: number,
		Status:        status,
		Description:   opts.Description,
		Definition:    DefinitionJSON(def),
		Metadata: MetadataJSON{
			Changelog:   opts.Changelog,
			Tags:        opts.Tags,
			Performance: EstimatePerformance(def),
			Validation:  validation,
		},
		ParentVersionID: opts.ParentVersionID,
		CreatedBy:       opts.CreatedBy,
	}

	if err := s.versions.Create(record); err != nil {
		return nil, err
	}

	s.logger.Info("workflow version created",
		"workflowId", workflowID,
		"versionId", record.ID,
		"versionNumber", number,
		"complexityScore", record.Metadata.Performance.ComplexityScore,
		"warnings", len(validation.Warnings))

	_ = s.audit.Append(&AuditEventRecord{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		EventType:  EventVersionCreated,
		Actor:      opts.CreatedBy,
		VersionID:  record.ID,
		Outcome:    "success",
		Detail: JSONAny{
			"versionNumber": number,
			"status":        string(status),
		},
	})

	return record.toVersion(), nil
}

// CompareVersions computes the structural diff and risk assessment between
// two versions of a workflow. Read-only and safe to call concurrently with
// deploys.
func (s *Service) CompareVersions(ctx context.Context, workflowID, fromVersionID, toVersionID string) (*VersionComparison, error) {
	from, err := s.versions.GetByID(workflowID, fromVersionID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, &VersionNotFoundError{WorkflowID: workflowID, VersionID: fromVersionID}
	}
	to, err := s.versions.GetByID(workflowID, toVersionID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, &VersionNotFoundError{WorkflowID: workflowID, VersionID: toVersionID}
	}

	return s.compare(from, to), nil
}

// compare builds a VersionComparison from two resolved records. Versions
// are immutable, so results are cached by version id pair.
func (s *Service) compare(from, to *WorkflowVersionRecord) *VersionComparison {
	if cached, ok := s.comparisons.get(from.ID, to.ID); ok {
		return cached
	}
	diff := DiffDefinitions(Definition(from.Definition), Definition(to.Definition))
	metadataChanges := diffMetadata(from, to)
	cmp := &VersionComparison{
		WorkflowID:        from.WorkflowID,
		FromVersionID:     from.ID,
		ToVersionID:       to.ID,
		FromVersionNumber: from.VersionNumber,
		ToVersionNumber:   to.VersionNumber,
		Diff:              diff,
		MetadataChanges:   metadataChanges,
		Risk:              AssessRisk(diff, metadataChanges),
	}
	s.comparisons.put(cmp)
	return cmp
}

// GetVersionHistory returns versions for a workflow, newest first.
func (s *Service) GetVersionHistory(ctx context.Context, workflowID string, opts HistoryOptions) ([]*Version, error) {
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.DefaultHistoryLimit
	}
	if opts.Limit > s.cfg.MaxHistoryLimit {
		opts.Limit = s.cfg.MaxHistoryLimit
	}
	records, err := s.versions.ListByWorkflow(workflowID, opts)
	if err != nil {
		return nil, err
	}
	versions := make([]*Version, len(records))
	for i := range records {
		versions[i] = records[i].toVersion()
	}
	return versions, nil
}

// GetDeploymentHistory returns deployment records for a workflow, newest
// first.
func (s *Service) GetDeploymentHistory(ctx context.Context, workflowID string, limit int) ([]DeploymentRecord, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultHistoryLimit
	}
	if limit > s.cfg.MaxHistoryLimit {
		limit = s.cfg.MaxHistoryLimit
	}
	return s.deployments.ListByWorkflow(workflowID, limit)
}

// GetRollbackHistory returns rollback records for a workflow, newest first.
func (s *Service) GetRollbackHistory(ctx context.Context, workflowID string, limit int) ([]RollbackRecord, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultHistoryLimit
	}
	if limit > s.cfg.MaxHistoryLimit {
		limit = s.cfg.MaxHistoryLimit
	}
	return s.rollbacks.ListByWorkflow(workflowID, limit)
}

// diffMetadata reports metadata-level differences between two versions.
func diffMetadata(from, to *WorkflowVersionRecord) []string {
	var changes []string
	if from.Description != to.Description {
		changes = append(changes, "description changed")
	}
	if from.Metadata.Changelog != to.Metadata.Changelog {
		changes = append(changes, "changelog changed")
	}
	if strings.Join(from.Metadata.Tags, ",") != strings.Join(to.Metadata.Tags, ",") {
		changes = append(changes, "tags changed")
	}
	return changes
}

// initialVersionNumber is assigned to a workflow's first version.
const initialVersionNumber = "1.0.0"

// nextVersionNumber increments the patch component of a three-part
// major.minor.patch version number.
func nextVersionNumber(prev string) (string, error) {
	parts := strings.Split(prev, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed version number %q", prev)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("malformed version number %q: %w", prev, err)
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1), nil
}
