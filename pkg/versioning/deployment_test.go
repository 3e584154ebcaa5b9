package versioning

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records definition pushes and reports a configurable
// in-flight execution count.
type fakeEngine struct {
	mu       sync.Mutex
	running  int
	countErr error
	setErr   error
	active   map[string]Definition
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{active: make(map[string]Definition)}
}

func (e *fakeEngine) CountRunningExecutions(ctx context.Context, workflowID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.countErr != nil {
		return 0, e.countErr
	}
	return e.running, nil
}

func (e *fakeEngine) SetActiveDefinition(ctx context.Context, workflowID string, def Definition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.setErr != nil {
		return e.setErr
	}
	e.active[workflowID] = def
	return nil
}

func (e *fakeEngine) activeFor(workflowID string) (Definition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	def, ok := e.active[workflowID]
	return def, ok
}

func TestDeployVersion_FirstDeploy(t *testing.T) {
	engine := newFakeEngine()
	svc := newTestServiceWithEngine(t, engine)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	result, err := svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "1.0.0", result.ToVersionNumber)
	assert.Empty(t, result.FromVersionID)
	assert.Equal(t, 0, result.AffectedExecutions)
	require.NotNil(t, result.CompletedAt)

	prod, err := svc.Versions().GetProductionByWorkflow("wf-1")
	require.NoError(t, err)
	require.NotNil(t, prod)
	assert.Equal(t, v1.ID, prod.ID)

	// The engine received the candidate's definition.
	def, ok := engine.activeFor("wf-1")
	require.True(t, ok)
	assert.Len(t, def.Nodes, 2)

	deployments, err := svc.GetDeploymentHistory(ctx, "wf-1", 10)
	require.NoError(t, err)
	require.Len(t, deployments, 1)
	assert.Equal(t, DeploymentCompleted, deployments[0].Status)
	require.NotNil(t, deployments[0].CompletedAt)
}

func TestDeployVersion_ReportsInflightCount(t *testing.T) {
	engine := newFakeEngine()
	engine.running = 7
	svc := newTestServiceWithEngine(t, engine)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	result, err := svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 7, result.AffectedExecutions)
}

func TestDeployVersion_EngineCountFailureNeverBlocks(t *testing.T) {
	engine := newFakeEngine()
	engine.countErr = errors.New("engine unavailable")
	svc := newTestServiceWithEngine(t, engine)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	result, err := svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.AffectedExecutions)
}

func TestDeployVersion_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.DeployVersion(context.Background(), "wf-1", "ghost", DeployOptions{DeployedBy: "alice"})
	assert.True(t, IsVersionNotFound(err))

	// A version belonging to another workflow is not deployable.
	v1, err := svc.CreateVersion(context.Background(), "wf-2", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(context.Background(), "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	assert.True(t, IsVersionNotFound(err))
}

func TestDeployVersion_SupersedesProduction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	result, err := svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	assert.Equal(t, v1.ID, result.FromVersionID)

	assertSingleProduction(t, svc, "wf-1", v2.ID)

	archived, err := svc.Versions().GetByID("wf-1", v1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)
}

func TestDeployVersion_DryRunPurity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	var first *DeploymentResult
	for i := 0; i < 3; i++ {
		result, err := svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice", DryRun: true})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.DryRun)
		assert.Empty(t, result.DeploymentID)
		require.NotNil(t, result.RollbackPlan)
		assert.NotEmpty(t, result.RollbackPlan.Steps)
		if first == nil {
			first = result
		} else {
			assert.Equal(t, first.RollbackPlan, result.RollbackPlan)
			assert.Equal(t, first.ToVersionID, result.ToVersionID)
		}
	}

	// No record was created and no status changed.
	deployments, err := svc.GetDeploymentHistory(ctx, "wf-1", 10)
	require.NoError(t, err)
	assert.Empty(t, deployments)

	prod, err := svc.Versions().GetProductionByWorkflow("wf-1")
	require.NoError(t, err)
	assert.Nil(t, prod)

	version, err := svc.Versions().GetByID("wf-1", v1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, version.Status)
}

func TestDeployVersion_MutationFailure(t *testing.T) {
	engine := newFakeEngine()
	engine.setErr = errors.New("engine rejected definition")
	svc := newTestServiceWithEngine(t, engine)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	// Get v1 into production first.
	engine.setErr = nil
	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	engine.setErr = errors.New("engine rejected definition")

	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.Error(t, err)
	var execErr *DeploymentExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.NotEmpty(t, execErr.DeploymentID)

	// The failure is durably recorded.
	deployments, err := svc.GetDeploymentHistory(ctx, "wf-1", 10)
	require.NoError(t, err)
	require.Len(t, deployments, 2)
	failed := deployments[0]
	if failed.Status != DeploymentFailed {
		failed = deployments[1]
	}
	assert.Equal(t, DeploymentFailed, failed.Status)
	assert.Contains(t, failed.Error, "engine rejected definition")
	require.NotNil(t, failed.CompletedAt)

	// The prior production version is untouched.
	assertSingleProduction(t, svc, "wf-1", v1.ID)
	candidate, err := svc.Versions().GetByID("wf-1", v2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, candidate.Status)
}

func TestDeployVersion_BlockedByNodeRemovalRisk(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", extendedDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	// The new version drops the SMS branch production currently serves.
	v2, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.Error(t, err)
	var valErr *DeploymentValidationFailedError
	require.ErrorAs(t, err, &valErr)
	require.Len(t, valErr.Reasons, 1)
	assert.Contains(t, valErr.Reasons[0], "comparison risk is high")
	assert.Contains(t, valErr.Reasons[0], "1 nodes removed")

	// The refusal mutated nothing.
	assertSingleProduction(t, svc, "wf-1", v1.ID)
	candidate, err := svc.Versions().GetByID("wf-1", v2.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, candidate.Status)
	deployments, err := svc.GetDeploymentHistory(ctx, "wf-1", 10)
	require.NoError(t, err)
	require.Len(t, deployments, 1)

	// Skipping validation is the explicit override for risky deploys.
	result, err := svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice", SkipValidation: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assertSingleProduction(t, svc, "wf-1", v2.ID)
	archived, err := svc.Versions().GetByID("wf-1", v1.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)
}

func TestDeployVersion_ConcurrentDeploysSerialized(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		v, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
		require.NoError(t, err)
		ids = append(ids, v.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(versionID string) {
			defer wg.Done()
			_, err := svc.DeployVersion(ctx, "wf-1", versionID, DeployOptions{DeployedBy: "alice"})
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	// Whatever the interleaving, exactly one version is in production.
	records, err := svc.Versions().ListByWorkflow("wf-1", HistoryOptions{IncludeArchived: true})
	require.NoError(t, err)
	production := 0
	for _, r := range records {
		if r.Status == StatusProduction {
			production++
		}
	}
	assert.Equal(t, 1, production)
}

// assertSingleProduction verifies that exactly one version is in production
// and that it is the expected one.
func assertSingleProduction(t *testing.T, svc *Service, workflowID, expectedID string) {
	t.Helper()
	records, err := svc.Versions().ListByWorkflow(workflowID, HistoryOptions{IncludeArchived: true})
	require.NoError(t, err)
	var productionIDs []string
	for _, r := range records {
		if r.Status == StatusProduction {
			productionIDs = append(productionIDs, r.ID)
		}
	}
	require.Len(t, productionIDs, 1)
	assert.Equal(t, expectedID, productionIDs[0])
}
