package capability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkline-dev/valet/internal/knowledge"
)

func TestWebSearch_Abstract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "go programming", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"Abstract": "Go is a statically typed language."}`))
	}))
	defer srv.Close()

	p := NewProviders(ProviderConfig{SearchBaseURL: srv.URL})
	got := p.WebSearch(context.Background(), "go programming")
	require.Equal(t, "Search result: Go is a statically typed language.", got)
}

func TestWebSearch_FallbackFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"answer", `{"Answer": "42"}`, "Answer: 42"},
		{"definition", `{"Definition": "a tool"}`, "Definition: a tool"},
		{"related", `{"RelatedTopics": [{"Text": "nearby info"}]}`, "Related info: nearby info"},
		{"empty", `{}`, "No specific web results found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProviders(ProviderConfig{SearchBaseURL: srv.URL})
			require.Equal(t, tt.want, p.WebSearch(context.Background(), "q"))
		})
	}
}

func TestWebSearch_NetworkFailureDegrades(t *testing.T) {
	p := NewProviders(ProviderConfig{SearchBaseURL: "http://127.0.0.1:1"})
	got := p.WebSearch(context.Background(), "q")
	require.Equal(t, "Web search is temporarily unavailable.", got)
}

func TestCryptoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 64250.5, "usd_24h_change": -1.25}}`))
	}))
	defer srv.Close()

	p := NewProviders(ProviderConfig{CryptoBaseURL: srv.URL})
	got := p.CryptoPrice(context.Background(), "bitcoin")
	require.Equal(t, "Bitcoin is priced at $64250.50 (-1.25% over 24h)", got)
}

func TestCryptoPrice_FailureNeverThrows(t *testing.T) {
	p := NewProviders(ProviderConfig{CryptoBaseURL: "http://127.0.0.1:1"})
	got := p.CryptoPrice(context.Background(), "bitcoin")
	require.Contains(t, got, "temporarily unavailable")
}

func TestCryptoPrice_UnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewProviders(ProviderConfig{CryptoBaseURL: srv.URL})
	got := p.CryptoPrice(context.Background(), "notacoin")
	require.Contains(t, got, "Could not fetch")
}

func TestNews_Headlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "top-headlines")
		_, _ = w.Write([]byte(`{"articles": [{"title": "One"}, {"title": "Two"}, {"title": "Three"}, {"title": "Four"}]}`))
	}))
	defer srv.Close()

	p := NewProviders(ProviderConfig{NewsBaseURL: srv.URL, NewsAPIKey: "k"})
	got := p.News(context.Background(), "today")
	require.Equal(t, "Latest news:\n1. One\n2. Two\n3. Three", got)
}

func TestNews_CryptoTopicUsesEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "everything")
		_, _ = w.Write([]byte(`{"articles": [{"title": "Coin story"}]}`))
	}))
	defer srv.Close()

	p := NewProviders(ProviderConfig{NewsBaseURL: srv.URL, NewsAPIKey: "k"})
	got := p.News(context.Background(), "bitcoin news")
	require.Contains(t, got, "Coin story")
}

func TestNews_NoKeyFallsBackToWebSearch(t *testing.T) {
	var searched string
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searched = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"Abstract": "headline roundup"}`))
	}))
	defer search.Close()

	p := NewProviders(ProviderConfig{SearchBaseURL: search.URL})
	got := p.News(context.Background(), "markets")
	require.Contains(t, got, "headline roundup")
	require.Equal(t, "latest news markets", searched)
}

func TestWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Paris", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"main": {"temp": 18.4, "humidity": 63}, "weather": [{"description": "light rain"}]}`))
	}))
	defer srv.Close()

	p := NewProviders(ProviderConfig{WeatherBaseURL: srv.URL, WeatherKey: "k"})
	got := p.Weather(context.Background(), "Paris")
	require.Equal(t, "Weather in Paris: 18.4°C, light rain, humidity 63%", got)
}

func TestWeather_NoKeyFallsBackToWebSearch(t *testing.T) {
	var searched string
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		searched = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"Answer": "sunny"}`))
	}))
	defer search.Close()

	p := NewProviders(ProviderConfig{SearchBaseURL: search.URL})
	got := p.Weather(context.Background(), "Paris")
	require.Contains(t, got, "sunny")
	require.Equal(t, "weather in Paris today", searched)
}

func TestWeather_ProviderFailureFallsBack(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Answer": "cloudy"}`))
	}))
	defer search.Close()

	p := NewProviders(ProviderConfig{
		SearchBaseURL:  search.URL,
		WeatherBaseURL: "http://127.0.0.1:1",
		WeatherKey:     "k",
	})
	got := p.Weather(context.Background(), "Paris")
	require.Contains(t, got, "cloudy")
}

// fixedSearcher returns canned retrieval results.
type fixedSearcher struct{ results []knowledge.Result }

func (f fixedSearcher) Search(query string, n int) []knowledge.Result {
	if len(f.results) > n {
		return f.results[:n]
	}
	return f.results
}

func TestRegistry_SearchKnowledge(t *testing.T) {
	searcher := fixedSearcher{results: []knowledge.Result{
		{Chunk: knowledge.Chunk{
			Content: "Onboarding requires signing the handbook and badge activation " + strings.Repeat("x", 200),
			Source:  "handbook.txt",
			Type:    knowledge.DocTypeDocument,
			Scope:   knowledge.SharedScope,
		}, Score: 1.2},
	}}

	r := NewDefaultRegistry(searcher, NewProviders(ProviderConfig{}))
	cap, ok := r.Get(SearchKnowledge)
	require.True(t, ok)

	got := cap.Invoke(context.Background(), Args{Query: "onboarding"})
	require.Contains(t, got, "Based on my knowledge:")
	require.Contains(t, got, `document "handbook.txt"`)
	require.Contains(t, got, "...")
	require.Less(t, len(got), 400)
}

func TestRegistry_SearchKnowledge_Empty(t *testing.T) {
	r := NewDefaultRegistry(fixedSearcher{}, NewProviders(ProviderConfig{}))
	cap, _ := r.Get(SearchKnowledge)
	got := cap.Invoke(context.Background(), Args{Query: "anything"})
	require.Equal(t, "No information found in my knowledge base.", got)
}

func TestRegistry_FixedSet(t *testing.T) {
	r := NewDefaultRegistry(fixedSearcher{}, NewProviders(ProviderConfig{}))
	caps := r.List()
	require.Len(t, caps, 5)

	want := []string{SearchKnowledge, WebSearch, GetCryptoPrice, GetNews, GetWeather}
	for i, name := range want {
		require.Equal(t, name, caps[i].Name)
	}
}
