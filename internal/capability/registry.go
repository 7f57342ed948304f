package capability

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkline-dev/valet/internal/knowledge"
)

// KnowledgeSearcher is the retrieval surface a session's knowledge store
// exposes to the search_knowledge capability.
type KnowledgeSearcher interface {
	Search(query string, n int) []knowledge.Result
}

// knowledgeTopK bounds in-prompt context so retrieved chunks don't crowd
// out the conversation.
const knowledgeTopK = 2

// contextSnippetChars truncates each cited chunk for the prompt.
const contextSnippetChars = 150

// NewDefaultRegistry builds the fixed capability table for one agent session:
// knowledge search backed by the session's store, plus web search, crypto
// price, news, and weather backed by the given providers.
func NewDefaultRegistry(store KnowledgeSearcher, providers *Providers) *Registry {
	r := NewRegistry()

	r.Register(Capability{
		Name:        SearchKnowledge,
		Description: "Search the knowledge base.",
		Params: map[string]Param{
			"query": {Type: "string", Required: true},
		},
		Invoke: func(ctx context.Context, args Args) string {
			return searchKnowledge(store, args.Query)
		},
	})

	r.Register(Capability{
		Name:        WebSearch,
		Description: "Search the web for information.",
		Params: map[string]Param{
			"query": {Type: "string", Required: true},
		},
		Invoke: func(ctx context.Context, args Args) string {
			return providers.WebSearch(ctx, args.Query)
		},
	})

	r.Register(Capability{
		Name:        GetCryptoPrice,
		Description: "Get cryptocurrency prices.",
		Params: map[string]Param{
			"symbol": {Type: "string", Default: DefaultCoin},
		},
		Invoke: func(ctx context.Context, args Args) string {
			return providers.CryptoPrice(ctx, args.Symbol)
		},
	})

	r.Register(Capability{
		Name:        GetNews,
		Description: "Get latest news.",
		Params: map[string]Param{
			"topic": {Type: "string"},
		},
		Invoke: func(ctx context.Context, args Args) string {
			return providers.News(ctx, args.Topic)
		},
	})

	r.Register(Capability{
		Name:        GetWeather,
		Description: "Get weather information.",
		Params: map[string]Param{
			"location": {Type: "string", Default: DefaultLocation},
		},
		Invoke: func(ctx context.Context, args Args) string {
			return providers.Weather(ctx, args.Location)
		},
	})

	return r
}

// searchKnowledge formats top retrieval hits as citation context for the
// conversation engine.
func searchKnowledge(store KnowledgeSearcher, query string) string {
	if store == nil {
		return "The knowledge base is not available."
	}

	results := store.Search(query, knowledgeTopK)
	if len(results) == 0 {
		return "No information found in my knowledge base."
	}

	var sb strings.Builder
	sb.WriteString("Based on my knowledge:\n")
	for i, res := range results {
		snippet := truncateSnippet(res.Chunk.Content, contextSnippetChars)
		fmt.Fprintf(&sb, "\n%d. From %s %q:\n   %s\n", i+1, res.Chunk.Type, res.Chunk.Source, snippet)
	}
	return sb.String()
}

// truncateSnippet cuts s to at most n bytes on a rune boundary, so a
// multi-byte character straddling the limit is dropped rather than split.
func truncateSnippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
