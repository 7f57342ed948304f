package knowledge

import "strings"

// DocType classifies where a chunk's text came from.
type DocType string

const (
	DocTypeDocument DocType = "document"         // committed reference material under docs/
	DocTypeUpload   DocType = "upload"           // user-submitted files under uploads/
	DocTypeWebsite  DocType = "website"          // fetched from a URL list
	DocTypeAudio    DocType = "audio_transcript" // transcribed audio
)

// SharedScope marks chunks readable by every agent. User scopes are
// "user:<name>"; shared knowledge gets a retrieval boost over them.
const SharedScope = "shared"

// UserScope returns the scope tag for one agent's private knowledge.
func UserScope(name string) string {
	return "user:" + name
}

// Chunk is the unit of retrieval: a fixed-size word slice of an ingested
// document. Chunks are immutable; Reload replaces the whole set.
type Chunk struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Type    DocType `json:"type"`
	Scope   string  `json:"scope"`
	Ordinal int     `json:"-"` // scan order, retrieval tie-break
}

// minChunkChars filters near-empty trailing fragments.
const minChunkChars = 50

// ChunkText splits text on whitespace into groups of size words. Chunks whose
// trimmed length falls below 50 characters are discarded, so a short trailing
// fragment (or a short input) yields nothing.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		return nil
	}

	words := strings.Fields(text)
	var chunks []string

	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		chunk := strings.TrimSpace(strings.Join(words[i:end], " "))
		if len(chunk) >= minChunkChars {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
