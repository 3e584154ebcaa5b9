package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefinition_Valid(t *testing.T) {
	def := Definition{
		Nodes: []Node{
			{ID: "trigger-1", Type: "email_trigger"},
			{ID: "send-1", Type: "send_email"},
		},
		Edges: []Edge{{Source: "trigger-1", Target: "send-1"}},
	}

	result := ValidateDefinition(def)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateDefinition_MissingArrays(t *testing.T) {
	result := ValidateDefinition(Definition{})
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)

	result = ValidateDefinition(Definition{Nodes: []Node{}})
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "edges")

	result = ValidateDefinition(Definition{Edges: []Edge{}})
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "nodes")
}

func TestValidateDefinition_EmptyArraysAreValid(t *testing.T) {
	result := ValidateDefinition(Definition{Nodes: []Node{}, Edges: []Edge{}})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateDefinition_NoTriggerWarning(t *testing.T) {
	def := Definition{
		Nodes: []Node{
			{ID: "a", Type: "send_email"},
			{ID: "b", Type: "delay"},
		},
		Edges: []Edge{{Source: "a", Target: "b"}},
	}

	result := ValidateDefinition(def)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "trigger")
}

func TestValidateDefinition_OrphanedNodeWarning(t *testing.T) {
	def := Definition{
		Nodes: []Node{
			{ID: "trigger-1", Type: "trigger"},
			{ID: "send-1", Type: "send_email"},
			{ID: "orphan", Type: "delay"},
		},
		Edges: []Edge{{Source: "trigger-1", Target: "send-1"}},
	}

	result := ValidateDefinition(def)
	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "orphan")
}

func TestValidateDefinition_Deterministic(t *testing.T) {
	def := Definition{
		Nodes: []Node{{ID: "a", Type: "delay"}, {ID: "b", Type: "webhook"}},
		Edges: []Edge{},
	}

	first := ValidateDefinition(def)
	second := ValidateDefinition(def)
	assert.Equal(t, first, second)
}
