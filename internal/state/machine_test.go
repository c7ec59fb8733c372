package state

import (
	"errors"
	"testing"
)

func TestMachineLifecycle(t *testing.T) {
	var transitions []string
	m := NewMachine(func(from, to string) {
		transitions = append(transitions, from+"->"+to)
	})

	if got := m.CurrentState(); got != StateIdle {
		t.Fatalf("initial state = %q, want %q", got, StateIdle)
	}
	if m.CanTransition(EventStop) {
		t.Error("stop should not be allowed from idle")
	}

	if err := m.Trigger(EventStart); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsRunning() {
		t.Errorf("state = %q, want running", m.CurrentState())
	}

	if err := m.Trigger(EventStop); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := m.CurrentState(); got != StateStopped {
		t.Errorf("state = %q, want %q", got, StateStopped)
	}

	want := []string{"idle->running", "running->stopped"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestMachineRejectsInvalidTransitions(t *testing.T) {
	m := NewMachine(nil)

	if err := m.Trigger(EventStop); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("stop from idle: err = %v, want ErrInvalidTransition", err)
	}

	if err := m.Trigger(EventStart); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Trigger(EventStart); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("start twice: err = %v, want ErrInvalidTransition", err)
	}

	if err := m.Trigger(EventStop); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// stopped 是终态
	if err := m.Trigger(EventStart); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("restart after stop: err = %v, want ErrInvalidTransition", err)
	}
}
