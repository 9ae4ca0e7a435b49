package eval

import (
	"fmt"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// conflictThreshold is the contribution magnitude an evaluator must exceed
// before it counts as a significant signal for conflict detection.
const conflictThreshold = 15.0

// DetectConflicts cross-checks one trainset's evaluation results pairwise and
// reports contradictory signals: one factor pulling strongly toward service
// while another pulls strongly away, or a strong positive co-occurring with a
// hard veto. Conflicts never change the decision; they are surfaced for
// supervisor review.
func DetectConflicts(results []model.EvaluationResult) []string {
	var conflicts []string
	for _, pos := range results {
		if pos.Contribution < conflictThreshold {
			continue
		}
		for _, neg := range results {
			if neg.Evaluator == pos.Evaluator {
				continue
			}
			switch {
			case len(neg.VetoedActions) > 0:
				conflicts = append(conflicts, fmt.Sprintf(
					"%s favors service (%s) but %s blocks it (%s)",
					pos.Evaluator, pos.Reasoning, neg.Evaluator, neg.Reasoning))
			case neg.Contribution <= -conflictThreshold:
				conflicts = append(conflicts, fmt.Sprintf(
					"%s (%s) contradicts %s (%s)",
					pos.Evaluator, pos.Reasoning, neg.Evaluator, neg.Reasoning))
			}
		}
	}
	return conflicts
}
