package versioning

import "fmt"

// largeAdditionThreshold is the node count above which an addition alone
// raises the risk level.
const largeAdditionThreshold = 5

// AssessRisk converts a structural diff plus metadata-change flags into a
// deployment risk rating. Each rule is evaluated independently and the
// result is the maximum severity across all triggered rules. Critical is
// reserved for validation failures detected at deploy time and is never
// produced from diff shape alone.
func AssessRisk(diff DefinitionDiff, metadataChanges []string) RiskAssessment {
	assessment := RiskAssessment{Level: RiskLow}

	if n := len(diff.Nodes.Removed); n > 0 {
		assessment.Level = maxRisk(assessment.Level, RiskHigh)
		assessment.Concerns = append(assessment.Concerns,
			fmt.Sprintf("%d nodes removed", n))
		assessment.Recommendations = append(assessment.Recommendations,
			"verify that in-flight executions do not depend on the removed nodes")
	}

	if n := len(diff.Nodes.Added); n > largeAdditionThreshold {
		assessment.Level = maxRisk(assessment.Level, RiskMedium)
		assessment.Concerns = append(assessment.Concerns,
			fmt.Sprintf("large addition of %d nodes", n))
		assessment.Recommendations = append(assessment.Recommendations,
			"consider splitting large changes across several deployments")
	}

	if n := len(diff.Edges.Removed); n > 0 {
		assessment.Level = maxRisk(assessment.Level, RiskHigh)
		assessment.Concerns = append(assessment.Concerns,
			fmt.Sprintf("%d connections removed", n))
		assessment.Recommendations = append(assessment.Recommendations,
			"confirm the remaining graph still routes every path to completion")
	}

	for _, mod := range diff.Nodes.Modified {
		if isExternalCallNode(mod.ID, mod.Type) {
			assessment.Level = maxRisk(assessment.Level, RiskMedium)
			assessment.Concerns = append(assessment.Concerns,
				fmt.Sprintf("external integration node %s modified", mod.ID))
			assessment.Recommendations = append(assessment.Recommendations,
				"re-test the external integration against its downstream service")
			break
		}
	}

	if len(assessment.Concerns) == 0 {
		assessment.Recommendations = append(assessment.Recommendations,
			"changes appear safe for deployment")
	}

	return assessment
}
