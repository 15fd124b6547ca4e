package ports_test

import (
	"testing"

	"github.com/bitstr0m/micro-quest/pkg/quest/ports"
)

func TestRunStateTerminal(t *testing.T) {
	tests := []struct {
		state ports.RunState
		want  bool
	}{
		{ports.RunStateQueued, false},
		{ports.RunStateInProgress, false},
		{ports.RunStateCompleted, true},
		{ports.RunStateFailed, true},
		{ports.RunStateCancelled, true},
		{ports.RunStateExpired, true},
		{ports.RunStateIncomplete, true},
		{ports.RunStateRequiresAction, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}
