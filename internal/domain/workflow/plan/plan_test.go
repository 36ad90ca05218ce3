package plan

import "testing"

func mustTask(t *testing.T, name, agent string) Task {
	t.Helper()
	task, err := NewTask(name, agent, nil)
	if err != nil {
		t.Fatalf("NewTask(%q): %v", name, err)
	}
	return task
}

func TestNewTaskValidation(t *testing.T) {
	if _, err := NewTask("", "writer", nil); err == nil {
		t.Error("empty task name accepted")
	}
	if _, err := NewTask("draft", "", nil); err == nil {
		t.Error("empty agent accepted")
	}
}

func TestNewPhaseValidation(t *testing.T) {
	if _, err := NewPhase("", false, false, []Task{mustTask(t, "a", "writer")}); err == nil {
		t.Error("empty phase name accepted")
	}
	if _, err := NewPhase("draft", false, false, nil); err == nil {
		t.Error("phase without tasks accepted")
	}
}

func TestNewPlanRejectsDuplicatePhases(t *testing.T) {
	ph, err := NewPhase("draft", false, false, []Task{mustTask(t, "a", "writer")})
	if err != nil {
		t.Fatalf("NewPhase: %v", err)
	}
	if _, err := New([]Phase{ph, ph}); err == nil {
		t.Error("duplicate phase names accepted")
	}
}

func TestPlanTaskCount(t *testing.T) {
	draft, _ := NewPhase("draft", true, true, []Task{
		mustTask(t, "intro", "writer"),
		mustTask(t, "body", "writer"),
	})
	review, _ := NewPhase("review", false, false, []Task{
		mustTask(t, "check", "editor"),
	})

	p, err := New([]Phase{draft, review})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.TaskCount() != 3 {
		t.Errorf("TaskCount = %d, want 3", p.TaskCount())
	}
	if len(p.Phases()) != 2 {
		t.Errorf("Phases = %d, want 2", len(p.Phases()))
	}
	if p.Phases()[0].Name() != "draft" {
		t.Errorf("first phase = %q, want draft", p.Phases()[0].Name())
	}
}
