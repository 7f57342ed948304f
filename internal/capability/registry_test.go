package capability

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mkline-dev/valet/internal/knowledge"
)

type stubSearcher struct {
	results []knowledge.Result
}

func (s stubSearcher) Search(query string, n int) []knowledge.Result {
	if n < len(s.results) {
		return s.results[:n]
	}
	return s.results
}

func TestTruncateSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short stays whole", "hello", 10, "hello"},
		{"ascii cut", "abcdef", 3, "abc..."},
		{"cut lands mid-rune", "aé!", 2, "a..."},
		{"cut on rune boundary", "aé!", 3, "aé..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateSnippet(tt.in, tt.n); got != tt.want {
				t.Errorf("truncateSnippet(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestSearchKnowledgeSnippetStaysValidUTF8(t *testing.T) {
	// One leading ASCII byte shifts every following 3-byte rune off the
	// truncation boundary.
	content := "a" + strings.Repeat("界", 100)
	out := searchKnowledge(stubSearcher{results: []knowledge.Result{{
		Chunk: knowledge.Chunk{Content: content, Type: knowledge.DocTypeDocument, Source: "notes.txt"},
	}}}, "界")

	if !utf8.ValidString(out) {
		t.Errorf("prompt context contains invalid UTF-8: %q", out)
	}
	if !strings.Contains(out, "...") {
		t.Error("long chunk was not truncated")
	}
}
