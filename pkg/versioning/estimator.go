package versioning

import "strings"

// Per-node complexity weights. External calls dominate the score because
// they dominate execution cost and failure modes.
const (
	nodeWeight        = 2
	edgeWeight        = 1
	webhookBonus      = 5
	conditionalBonus  = 3
	delayBonus        = 1
	nodeCostUnit      = 0.01
	edgeCostUnit      = 0.005
	highRiskThreshold = 50
	mediumRiskCutoff  = 20
)

// EstimatePerformance computes the complexity score, estimated per-run cost,
// and baseline risk level for a definition. Attached to version metadata at
// creation time.
func EstimatePerformance(def Definition) PerformanceEstimate {
	score := nodeWeight*len(def.Nodes) + edgeWeight*len(def.Edges)
	for _, n := range def.Nodes {
		switch {
		case isExternalCallNode(n.ID, n.Type):
			score += webhookBonus
		case isConditionalNode(n.Type):
			score += conditionalBonus
		case isDelayNode(n.Type):
			score += delayBonus
		}
	}

	level := RiskLow
	if score > highRiskThreshold {
		level = RiskHigh
	} else if score > mediumRiskCutoff {
		level = RiskMedium
	}

	return PerformanceEstimate{
		ComplexityScore: score,
		EstimatedCost:   nodeCostUnit*float64(len(def.Nodes)) + edgeCostUnit*float64(len(def.Edges)),
		RiskLevel:       level,
	}
}

// isExternalCallNode reports whether a node's id or type signals an
// outbound integration (webhook or API call class).
func isExternalCallNode(id, typ string) bool {
	id = strings.ToLower(id)
	typ = strings.ToLower(typ)
	return strings.Contains(id, "webhook") || strings.Contains(typ, "webhook") ||
		strings.Contains(id, "api") || strings.Contains(typ, "api")
}

func isConditionalNode(typ string) bool {
	return strings.Contains(strings.ToLower(typ), "condition")
}

func isDelayNode(typ string) bool {
	typ = strings.ToLower(typ)
	return strings.Contains(typ, "delay") || strings.Contains(typ, "wait")
}
