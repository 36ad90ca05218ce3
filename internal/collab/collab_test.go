package collab

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/draftmill-io/draftmill/internal/domain/workflow/result"
	"github.com/draftmill-io/draftmill/internal/usecase/workflow"
)

func TestTemplatePlannerShape(t *testing.T) {
	p, err := TemplatePlanner{}.Plan(context.Background(), workflow.Request{
		Topic:  "stress management",
		Domain: "clinical-psychology",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	phases := p.Phases()
	if len(phases) != 3 {
		t.Fatalf("phases = %d, want 3", len(phases))
	}
	if phases[0].Name() != "research" || !phases[0].Critical() || !phases[0].Parallel() {
		t.Errorf("research phase misconfigured: %+v", phases[0].Name())
	}
	if phases[1].Name() != "draft" || phases[1].Parallel() {
		t.Errorf("draft phase must be sequential")
	}
	if phases[2].Critical() {
		t.Errorf("review phase must be non-critical")
	}
	if p.TaskCount() != 4 {
		t.Errorf("tasks = %d, want 4", p.TaskCount())
	}
}

func TestMarkdownIntegrator(t *testing.T) {
	phases := []result.PhaseResult{
		result.NewPhaseResult("research",
			[]result.TaskResult{
				result.NewTaskResult("gather-sources", AgentResearcher, true, "found three sources", "", time.Millisecond),
			}, time.Millisecond, ""),
		result.NewPhaseResult("draft",
			[]result.TaskResult{
				result.NewTaskResult("write-draft", AgentWriter, false, "", "timeout", time.Millisecond),
			}, time.Millisecond, ""),
	}

	merged, err := MarkdownIntegrator{}.Merge(context.Background(), phases)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !strings.Contains(merged, "## research") {
		t.Errorf("merged output missing section header: %q", merged)
	}
	if strings.Contains(merged, "## draft") {
		t.Errorf("failed-only phase produced a section: %q", merged)
	}
}

func TestMarkdownIntegratorAllFailed(t *testing.T) {
	phases := []result.PhaseResult{
		result.NewPhaseResult("draft",
			[]result.TaskResult{
				result.NewTaskResult("write-draft", AgentWriter, false, "", "boom", time.Millisecond),
			}, time.Millisecond, ""),
	}

	if _, err := (MarkdownIntegrator{}).Merge(context.Background(), phases); err == nil {
		t.Fatal("Merge succeeded with no successful tasks, want error")
	}
}

func TestHeuristicScorerDeterministic(t *testing.T) {
	content := "## research\n\nlong enough body covering clinical-psychology topics in detail " +
		strings.Repeat("x", 200) + "\n\n## draft\n\nmore\n\n## review\n\ndone"

	first, err := HeuristicScorer{}.Score(context.Background(), content, "clinical-psychology")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	second, _ := HeuristicScorer{}.Score(context.Background(), content, "clinical-psychology")

	if first.Score != second.Score {
		t.Errorf("scores differ: %f vs %f", first.Score, second.Score)
	}
	if first.Score < 0.8 {
		t.Errorf("well-formed content scored %f, want >= 0.8", first.Score)
	}
}

func TestHeuristicScorerFlagsThinContent(t *testing.T) {
	a, err := HeuristicScorer{}.Score(context.Background(), "short", "")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if a.Score >= 0.8 {
		t.Errorf("thin content scored %f, want < 0.8", a.Score)
	}
	if len(a.Targets) == 0 {
		t.Error("assessment has no refinement targets")
	}
}
