package workflow

import (
	"github.com/troupe-dev/troupe/pkg/models"
)

// ReadySteps returns the steps eligible to run now: idle steps whose
// dependencies have all reached completed. A dependency that ended in error
// never satisfies readiness; it blocks its dependents exactly like one that
// has not run yet, and the loop's deadlock detection is what eventually
// resolves them. Unknown dependency ids are likewise never satisfied.
func ReadySteps(w *models.Workflow) []*models.Step {
	var ready []*models.Step

	for _, step := range w.Steps {
		if step.Status != models.StepStatusIdle {
			continue
		}

		if dependenciesMet(w, step) {
			ready = append(ready, step)
		}
	}

	return ready
}

func dependenciesMet(w *models.Workflow, step *models.Step) bool {
	for _, depID := range step.DependsOn {
		dep := w.StepByID(depID)
		if dep == nil || dep.Status != models.StepStatusCompleted {
			return false
		}
	}

	return true
}

// StuckSteps returns the idle steps of the workflow. When the ready set is
// empty but this set is not, no progress is possible and the workflow is
// deadlocked.
func StuckSteps(w *models.Workflow) []*models.Step {
	var stuck []*models.Step

	for _, step := range w.Steps {
		if step.Status == models.StepStatusIdle {
			stuck = append(stuck, step)
		}
	}

	return stuck
}
