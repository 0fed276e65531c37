package lsp

import (
	"context"
	"testing"

	"github.com/thanhtunguet/serena/internal/procost"
)

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateSpawned:      "spawned",
		StateInitializing: "initializing",
		StateReady:        "ready",
		StateShuttingDown: "shutting_down",
		StateExited:       "exited",
		StateCrashed:      "crashed",
		State(99):         "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestWatchProcessExit_UnexpectedDeathMarksCrashed(t *testing.T) {
	host, err := procost.Spawn(procost.LaunchInfo{Command: []string{"sh", "-c", "sleep 0.05"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := &Connection{host: host, ready: make(chan struct{})}
	c.setState(StateReady)

	c.watchProcessExit()

	if c.State() != StateCrashed {
		t.Errorf("expected StateCrashed after an unexpected exit from Ready, got %v", c.State())
	}
}

func TestWatchProcessExit_ExpectedShutdownMarksExited(t *testing.T) {
	host, err := procost.Spawn(procost.LaunchInfo{Command: []string{"sh", "-c", "sleep 0.05"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := &Connection{host: host, ready: make(chan struct{})}
	c.setState(StateShuttingDown)

	c.watchProcessExit()

	if c.State() != StateExited {
		t.Errorf("expected StateExited after a shutdown-initiated exit, got %v", c.State())
	}
}

func TestCheckHealthy_ReflectsEachState(t *testing.T) {
	cases := map[State]bool{
		StateSpawned:      true,
		StateInitializing: true,
		StateReady:        true,
		StateCrashed:      false,
		StateExited:       false,
		StateShuttingDown: false,
	}
	for state, wantHealthy := range cases {
		c := &Connection{}
		c.setState(state)
		err := c.CheckHealthy()
		if wantHealthy && err != nil {
			t.Errorf("state %v: expected healthy, got %v", state, err)
		}
		if !wantHealthy && err == nil {
			t.Errorf("state %v: expected an error, got nil", state)
		}
	}
}

func TestWaitReady_UnblocksOnceReadyClosedAndReflectsCrash(t *testing.T) {
	c := &Connection{ready: make(chan struct{})}
	c.setState(StateCrashed)
	close(c.ready)

	err := c.WaitReady(context.Background())
	if err == nil {
		t.Error("expected WaitReady to surface the crashed state as an error")
	}
}
