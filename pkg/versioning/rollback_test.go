package versioning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// extendedDefinition grows simpleDefinition by one SMS branch.
func extendedDefinition() Definition {
	def := simpleDefinition()
	def.Nodes = append(def.Nodes, Node{ID: "sms-1", Type: "send_sms"})
	def.Edges = append(def.Edges, Edge{Source: "trigger-1", Target: "sms-1"})
	return def
}

func TestRollbackToVersion_RestoresPriorVersion(t *testing.T) {
	engine := newFakeEngine()
	svc := newTestServiceWithEngine(t, engine)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	result, err := svc.RollbackToVersion(ctx, "wf-1", v1.ID, RollbackOptions{
		Reason:       "elevated bounce rate",
		RolledBackBy: "bob",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, v2.ID, result.FromVersionID)
	assert.Equal(t, v1.ID, result.ToVersionID)

	assertSingleProduction(t, svc, "wf-1", v1.ID)

	// The engine now serves v1's definition again.
	def, ok := engine.activeFor("wf-1")
	require.True(t, ok)
	assert.Len(t, def.Nodes, 2)

	rollbacks, err := svc.GetRollbackHistory(ctx, "wf-1", 10)
	require.NoError(t, err)
	require.Len(t, rollbacks, 1)
	assert.Equal(t, "elevated bounce rate", rollbacks[0].Reason)
	assert.Equal(t, v2.ID, rollbacks[0].FromVersionID)
	assert.Equal(t, v1.ID, rollbacks[0].ToVersionID)
	assert.Equal(t, result.DeploymentID, rollbacks[0].DeploymentID)
}

func TestRollbackToVersion_TargetNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RollbackToVersion(context.Background(), "wf-1", "ghost", RollbackOptions{
		Reason: "bad deploy", RolledBackBy: "bob",
	})
	assert.True(t, IsVersionNotFound(err))
}

func TestRollbackToVersion_NoProduction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.RollbackToVersion(ctx, "wf-1", v1.ID, RollbackOptions{
		Reason: "bad deploy", RolledBackBy: "bob",
	})
	var noProd *NoProductionVersionError
	assert.ErrorAs(t, err, &noProd)
}

func TestRollbackToVersion_AlreadyProduction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.RollbackToVersion(ctx, "wf-1", v1.ID, RollbackOptions{
		Reason: "noop", RolledBackBy: "bob",
	})
	assert.True(t, IsAlreadyProduction(err))
}

func TestRollbackToVersion_UnsafeWhenNodesWouldBeRemoved(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(ctx, "wf-1", extendedDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.RollbackToVersion(ctx, "wf-1", v1.ID, RollbackOptions{
		Reason: "regression", RolledBackBy: "bob",
	})
	require.True(t, IsRollbackUnsafe(err))
	var unsafe *RollbackUnsafeError
	require.ErrorAs(t, err, &unsafe)
	require.Len(t, unsafe.Risks, 2)
	assert.Contains(t, unsafe.Risks[0], "removes 1 nodes")
	assert.Contains(t, unsafe.Risks[1], "removes 1 edges")

	// The refusal left production untouched.
	assertSingleProduction(t, svc, "wf-1", v2.ID)
	rollbacks, err := svc.GetRollbackHistory(ctx, "wf-1", 10)
	require.NoError(t, err)
	assert.Empty(t, rollbacks)
}

func TestRollbackToVersion_UnsafeWhenTargetStale(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	stale := newTestVersionRecord("wf-1", "1.0.0", StatusArchived)
	stale.CreatedAt = time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, svc.Versions().Create(stale))

	v2, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.RollbackToVersion(ctx, "wf-1", stale.ID, RollbackOptions{
		Reason: "regression", RolledBackBy: "bob",
	})
	require.True(t, IsRollbackUnsafe(err))
	var unsafe *RollbackUnsafeError
	require.ErrorAs(t, err, &unsafe)
	assert.Contains(t, unsafe.Risks[0], "45 days old")
}

func TestRollbackToVersion_ForceOverridesSafetyGate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(ctx, "wf-1", extendedDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	result, err := svc.RollbackToVersion(ctx, "wf-1", v1.ID, RollbackOptions{
		Reason:        "regression",
		RolledBackBy:  "bob",
		ForceRollback: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assertSingleProduction(t, svc, "wf-1", v1.ID)
}

func TestRollbackToVersion_RecordsRollbackNoteOnDeployment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	v1, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)
	v2, err := svc.CreateVersion(ctx, "wf-1", simpleDefinition(), CreateVersionOptions{CreatedBy: "alice"})
	require.NoError(t, err)

	_, err = svc.DeployVersion(ctx, "wf-1", v1.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)
	_, err = svc.DeployVersion(ctx, "wf-1", v2.ID, DeployOptions{DeployedBy: "alice"})
	require.NoError(t, err)

	result, err := svc.RollbackToVersion(ctx, "wf-1", v1.ID, RollbackOptions{
		Reason:       "elevated bounce rate",
		RolledBackBy: "bob",
	})
	require.NoError(t, err)

	record, err := svc.Deployments().GetByID(result.DeploymentID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Rollback: elevated bounce rate", record.DeploymentNotes)
	assert.Equal(t, "bob", record.DeployedBy)
}
