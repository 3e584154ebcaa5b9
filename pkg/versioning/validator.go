package versioning

import (
	"fmt"
	"strings"
)

// ValidateDefinition performs a structural soundness check of a workflow
// graph. Errors block deployment; warnings are advisory only. The check is
// pure and deterministic for a given definition.
func ValidateDefinition(def Definition) ValidationResult {
	result := ValidationResult{IsValid: true}

	if def.Nodes == nil {
		result.Errors = append(result.Errors, "definition is missing a nodes array")
	}
	if def.Edges == nil {
		result.Errors = append(result.Errors, "definition is missing an edges array")
	}
	if len(result.Errors) > 0 {
		result.IsValid = false
		return result
	}

	triggers := 0
	for _, n := range def.Nodes {
		if isTriggerNode(n) {
			triggers++
		}
	}
	if triggers == 0 {
		result.Warnings = append(result.Warnings, "workflow has no trigger nodes")
	}

	connected := make(map[string]bool, len(def.Nodes))
	for _, e := range def.Edges {
		connected[e.Source] = true
		connected[e.Target] = true
	}
	for _, n := range def.Nodes {
		if !connected[n.ID] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("node %s is not connected to any edge", n.ID))
		}
	}

	return result
}

func isTriggerNode(n Node) bool {
	return strings.Contains(strings.ToLower(n.Type), "trigger")
}
