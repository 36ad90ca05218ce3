// Package collab provides the built-in workflow collaborators: a template
// planner, a simulated task delegator, a markdown integrator, and a
// heuristic quality scorer. Production deployments replace them with real
// agent backends; the server binary and tests run on these.
package collab

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftmill-io/draftmill/internal/domain/workflow/plan"
	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/usecase/workflow"
)

// Agent names used by the template plan.
const (
	AgentResearcher = "researcher"
	AgentWriter     = "writer"
	AgentEditor     = "editor"
)

// TemplatePlanner builds the standard three-phase content plan:
// research (parallel, critical), draft (sequential), review (parallel).
type TemplatePlanner struct{}

// Plan implements workflow.Planner.
func (TemplatePlanner) Plan(_ context.Context, req workflow.Request) (plan.Plan, error) {
	payload := map[string]any{
		"topic":        req.Topic,
		"domain":       req.Domain,
		"content_type": req.ContentType,
	}
	for k, v := range req.Requirements {
		payload[k] = v
	}

	gather, err := plan.NewTask("gather-sources", AgentResearcher, payload)
	if err != nil {
		return plan.Plan{}, err
	}
	outline, err := plan.NewTask("outline", AgentWriter, payload)
	if err != nil {
		return plan.Plan{}, err
	}
	research, err := plan.NewPhase("research", true, true, []plan.Task{gather, outline})
	if err != nil {
		return plan.Plan{}, err
	}

	write, err := plan.NewTask("write-draft", AgentWriter, payload)
	if err != nil {
		return plan.Plan{}, err
	}
	draft, err := plan.NewPhase("draft", false, true, []plan.Task{write})
	if err != nil {
		return plan.Plan{}, err
	}

	edit, err := plan.NewTask("edit-draft", AgentEditor, payload)
	if err != nil {
		return plan.Plan{}, err
	}
	review, err := plan.NewPhase("review", true, false, []plan.Task{edit})
	if err != nil {
		return plan.Plan{}, err
	}

	return plan.New([]plan.Phase{research, draft, review})
}

// SimulatedDelegator produces deterministic placeholder output per task,
// folding in prior outputs and retrieved knowledge so downstream stages
// exercise the same data flow a real agent backend would.
type SimulatedDelegator struct{}

// Delegate implements workflow.TaskDelegator.
func (SimulatedDelegator) Delegate(_ context.Context, task plan.Task, ec *workflow.ExecutionContext) (string, error) {
	topic, _ := task.Payload()["topic"].(string)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s/%s] %s", task.Agent(), task.Name(), topic)

	if docs := ec.Knowledge(); len(docs) > 0 {
		b.WriteString("\nsources:")
		for _, d := range docs {
			fmt.Fprintf(&b, " %s", d.ID())
		}
	}
	if prior, ok := ec.Output("write-draft"); ok && task.Name() == "edit-draft" {
		fmt.Fprintf(&b, "\nedited from %d chars", len(prior))
	}
	return b.String(), nil
}

// MarkdownIntegrator joins successful task outputs into one document with
// per-phase section headers.
type MarkdownIntegrator struct{}

// Merge implements workflow.ContentIntegrator.
func (MarkdownIntegrator) Merge(_ context.Context, phases []result.PhaseResult) (string, error) {
	if len(phases) == 0 {
		return "", fmt.Errorf("no phase results to merge")
	}

	var b strings.Builder
	for i := range phases {
		pr := &phases[i]
		section := false
		for _, tr := range pr.TaskResults() {
			if !tr.Success() || tr.Output() == "" {
				continue
			}
			if !section {
				fmt.Fprintf(&b, "## %s\n\n", pr.Name())
				section = true
			}
			b.WriteString(tr.Output())
			b.WriteString("\n\n")
		}
	}

	merged := strings.TrimSpace(b.String())
	if merged == "" {
		return "", fmt.Errorf("all tasks failed, nothing to merge")
	}
	return merged, nil
}

// HeuristicScorer approximates a quality gate from content shape: section
// coverage and length. Deterministic, so refinement behavior is testable
// without a model in the loop.
type HeuristicScorer struct{}

// Score implements workflow.QualityScorer.
func (HeuristicScorer) Score(_ context.Context, content, domain string) (workflow.Assessment, error) {
	score := 0.4

	sections := strings.Count(content, "## ")
	switch {
	case sections >= 3:
		score += 0.3
	case sections == 2:
		score += 0.2
	case sections == 1:
		score += 0.1
	}

	if len(content) >= 200 {
		score += 0.2
	} else if len(content) >= 50 {
		score += 0.1
	}
	if domain != "" && strings.Contains(strings.ToLower(content), strings.ToLower(domain)) {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}

	a := workflow.Assessment{Score: score}
	if score < 1 {
		a.Feedback = "content lacks depth in the drafted sections"
		a.Targets = []string{AgentWriter}
	}
	return a, nil
}
