package quest

import (
	"sync"

	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
)

// Speaker attributes a log entry to one side of the table.
type Speaker string

const (
	// SpeakerGameMaster marks narrative produced by the backend.
	SpeakerGameMaster Speaker = "gm"
	// SpeakerPlayerCharacter marks lines typed by the player.
	SpeakerPlayerCharacter Speaker = "pc"
)

// LogEntry is one chronological line of the session transcript.
type LogEntry struct {
	// Speaker attributes the entry
	Speaker Speaker
	// Content is the entry's text
	Content string
}

// State is the single source of truth for a session. The actor is its
// only writer; any number of readers may take consistent snapshots. An
// update batch commits under one lock acquisition, so a reader never
// observes a partially applied batch.
type State struct {
	mu        sync.RWMutex
	character schema.Character
	log       []LogEntry
	quest     schema.QuestDefinition
}

// NewState creates session state owned by the given character. The quest
// starts blank until the first QuestDefinition update arrives.
func NewState(character schema.Character) *State {
	return &State{character: character}
}

// Snapshot is a consistent point-in-time copy of session state. It shares
// no memory with the live state, so holders may keep it as long as they
// like without blocking the writer.
type Snapshot struct {
	Character schema.Character
	Log       []LogEntry
	Quest     schema.QuestDefinition
}

// Snapshot copies out the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := make([]LogEntry, len(s.log))
	copy(log, s.log)

	return Snapshot{
		Character: s.character,
		Log:       log,
		Quest:     s.quest,
	}
}

// appendEntry appends one transcript line.
func (s *State) appendEntry(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
}

// applyUpdates applies one turn's update batch in order, atomically with
// respect to readers.
func (s *State) applyUpdates(updates []schema.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		switch v := u.(type) {
		case schema.QuestUpdate:
			s.quest = v.Definition
		case schema.DescriptionUpdate:
			s.log = append(s.log, LogEntry{
				Speaker: SpeakerGameMaster,
				Content: v.Text,
			})
		}
	}
}

// character returns the immutable character the session was created with.
func (s *State) characterValue() schema.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.character
}
