package quest

import (
	"reflect"
	"testing"

	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
)

func TestApplyUpdatesQuestLastWriteWins(t *testing.T) {
	tests := []struct {
		name    string
		updates []schema.Update
		want    schema.QuestDefinition
	}{
		{
			name:    "no quest update leaves quest unchanged",
			updates: []schema.Update{schema.DescriptionUpdate{Text: "hello"}},
			want:    schema.QuestDefinition{},
		},
		{
			name: "single quest update",
			updates: []schema.Update{
				schema.QuestUpdate{Definition: schema.QuestDefinition{Title: "First"}},
			},
			want: schema.QuestDefinition{Title: "First"},
		},
		{
			name: "last quest update wins",
			updates: []schema.Update{
				schema.QuestUpdate{Definition: schema.QuestDefinition{Title: "First"}},
				schema.DescriptionUpdate{Text: "between"},
				schema.QuestUpdate{Definition: schema.QuestDefinition{Title: "Second"}},
			},
			want: schema.QuestDefinition{Title: "Second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState(schema.Character{Name: "Jim", Race: "Human", Class: "Fighter"})
			state.applyUpdates(tt.updates)

			if got := state.Snapshot().Quest; got != tt.want {
				t.Errorf("quest = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestApplyUpdatesLogGrowth(t *testing.T) {
	state := NewState(schema.Character{Name: "Jim", Race: "Human", Class: "Fighter"})
	state.applyUpdates([]schema.Update{
		schema.DescriptionUpdate{Text: "first"},
		schema.QuestUpdate{Definition: schema.QuestDefinition{Title: "T"}},
		schema.DescriptionUpdate{Text: "second"},
	})

	want := []LogEntry{
		{Speaker: SpeakerGameMaster, Content: "first"},
		{Speaker: SpeakerGameMaster, Content: "second"},
	}
	if got := state.Snapshot().Log; !reflect.DeepEqual(got, want) {
		t.Errorf("log = %#v, want %#v", got, want)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	state := NewState(schema.Character{Name: "Jim", Race: "Human", Class: "Fighter"})
	state.appendEntry(LogEntry{Speaker: SpeakerPlayerCharacter, Content: "original"})

	snapshot := state.Snapshot()
	snapshot.Log[0].Content = "mutated"
	snapshot.Log = append(snapshot.Log, LogEntry{Speaker: SpeakerGameMaster, Content: "extra"})

	fresh := state.Snapshot()
	if len(fresh.Log) != 1 {
		t.Fatalf("log length = %d, want 1", len(fresh.Log))
	}
	if fresh.Log[0].Content != "original" {
		t.Errorf("log content = %q, want %q", fresh.Log[0].Content, "original")
	}
}
