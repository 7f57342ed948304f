package knowledge

import (
	"sort"
	"strings"
)

// sharedBoost privileges organizational knowledge over personal knowledge
// when raw overlap scores tie.
const sharedBoost = 1.2

// DefaultTopK is the result count when callers pass n <= 0.
const DefaultTopK = 5

// Result pairs a chunk with its similarity score for one query. Results are
// ephemeral; nothing persists them.
type Result struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"similarity"`
}

// Search ranks chunks by lexical overlap with the query and returns the top n.
//
// The query is lowercased and split on whitespace; repeated words count twice.
// A query word matches a chunk when it appears anywhere in the lowercased
// content, substring not whole-word ("cat" matches "category") — kept from the
// source system rather than fixed, since callers rely on the looser recall.
// Raw score is matches/|words|, multiplied by 1.2 for shared-scope chunks.
// Zero-score chunks are dropped; ties break on scan order so rankings are
// deterministic.
func (s *Store) Search(query string, n int) []Result {
	if n <= 0 {
		n = DefaultTopK
	}

	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Result
	for _, chunk := range s.chunks {
		content := strings.ToLower(chunk.Content)
		matches := 0
		for _, word := range queryWords {
			if strings.Contains(content, word) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := float64(matches) / float64(len(queryWords))
		if chunk.Scope == SharedScope {
			score *= sharedBoost
		}
		results = append(results, Result{Chunk: chunk, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})

	if len(results) > n {
		results = results[:n]
	}
	return results
}
