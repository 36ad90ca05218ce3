package state

import "testing"

func TestIsValid(t *testing.T) {
	for _, s := range []State{Pending, Running, Completed, Failed} {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", s)
		}
	}
	for _, s := range []State{"", "done", "RUNNING"} {
		if s.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", s)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Pending.Terminal() || Running.Terminal() {
		t.Error("pending/running must not be terminal")
	}
	if !Completed.Terminal() || !Failed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}
