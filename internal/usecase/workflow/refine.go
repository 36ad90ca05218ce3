package workflow

import (
	"github.com/draftmill-io/draftmill/internal/domain/workflow/plan"
)

// defaultRefinementPlanner selects the tasks whose agents the assessment
// names as targets. When no target matches, it falls back to the plan's
// final phase, the one closest to the delivered content.
//
// Refined phases are never critical: a refinement failure downgrades the
// result instead of failing a workflow that already produced content.
type defaultRefinementPlanner struct{}

func (defaultRefinementPlanner) Refine(original plan.Plan, assessment Assessment) (plan.Plan, bool) {
	targets := make(map[string]struct{}, len(assessment.Targets))
	for _, t := range assessment.Targets {
		targets[t] = struct{}{}
	}

	var phases []plan.Phase
	for _, phase := range original.Phases() {
		var kept []plan.Task
		for _, task := range phase.Tasks() {
			if _, ok := targets[task.Agent()]; ok {
				kept = append(kept, task)
			}
		}
		if len(kept) == 0 {
			continue
		}
		reduced, err := plan.NewPhase(phase.Name(), phase.Parallel(), false, kept)
		if err != nil {
			continue
		}
		phases = append(phases, reduced)
	}

	if len(phases) == 0 {
		all := original.Phases()
		last := all[len(all)-1]
		reduced, err := plan.NewPhase(last.Name(), last.Parallel(), false, last.Tasks())
		if err != nil {
			return plan.Plan{}, false
		}
		phases = []plan.Phase{reduced}
	}

	reduced, err := plan.New(phases)
	if err != nil {
		return plan.Plan{}, false
	}
	return reduced, true
}
