package agent

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Turn is one user-message/assistant-reply pair in a conversation log.
type Turn struct {
	User           string    `json:"user"`
	Assistant      string    `json:"assistant"`
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id,omitempty"`
	ToolUsed       string    `json:"tool_used,omitempty"`
}

// Log is one agent's append-only conversation memory. The full sequence is
// kept on disk and in memory; callers bound how much of it they feed back
// into prompts. Log is not safe for concurrent use; the owning session
// serializes access.
type Log struct {
	path  string
	turns []Turn
}

// LoadLog reads the log file at path. A missing file yields an empty log; a
// corrupt file is logged and treated as empty rather than blocking the agent.
func LoadLog(path string) *Log {
	l := &Log{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("agent: reading conversation log %s: %v", path, err)
		}
		return l
	}
	if err := json.Unmarshal(data, &l.turns); err != nil {
		log.Printf("agent: decoding conversation log %s: %v", path, err)
		l.turns = nil
	}
	return l
}

// Append records a turn in memory and persists the whole log. Persistence is
// best-effort: a write failure is logged and the in-memory turn is kept, so
// the conversation continues with durability lost for that turn.
func (l *Log) Append(t Turn) {
	l.turns = append(l.turns, t)
	if err := writeJSONFile(l.path, l.turns); err != nil {
		log.Printf("agent: persisting conversation log %s: %v", l.path, err)
	}
}

// Turns returns the full ordered history, oldest first.
func (l *Log) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len reports the number of recorded turns.
func (l *Log) Len() int { return len(l.turns) }
