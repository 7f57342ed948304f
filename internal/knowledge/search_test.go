package knowledge

import (
	"testing"
)

// storeWith builds a store pre-populated with chunks, bypassing the filesystem.
func storeWith(chunks ...Chunk) *Store {
	s := NewStore(StoreConfig{User: "tester"})
	for i := range chunks {
		chunks[i].Ordinal = i
	}
	s.chunks = chunks
	return s
}

// padded makes content long enough to be a plausible chunk while containing
// the given words.
func padded(words string) string {
	return words + " filler filler filler filler filler filler filler filler"
}

func TestSearch_ScoresByOverlap(t *testing.T) {
	s := storeWith(
		Chunk{Content: padded("onboarding handbook badge"), Source: "a.txt", Scope: UserScope("tester")},
		Chunk{Content: padded("onboarding only"), Source: "b.txt", Scope: UserScope("tester")},
		Chunk{Content: padded("nothing relevant"), Source: "c.txt", Scope: UserScope("tester")},
	)

	results := s.Search("onboarding handbook", 5)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2 (zero scores dropped)", len(results))
	}
	if results[0].Chunk.Source != "a.txt" {
		t.Errorf("top result = %s, want a.txt", results[0].Chunk.Source)
	}
	if results[0].Score != 1.0 {
		t.Errorf("top score = %v, want 1.0", results[0].Score)
	}
	if results[1].Score != 0.5 {
		t.Errorf("second score = %v, want 0.5", results[1].Score)
	}
}

func TestSearch_SharedBoostBreaksTies(t *testing.T) {
	// Identical content, different scopes; the shared chunk must rank first
	// despite appearing later in scan order.
	s := storeWith(
		Chunk{Content: padded("quarterly revenue report"), Source: "user.txt", Scope: UserScope("tester")},
		Chunk{Content: padded("quarterly revenue report"), Source: "shared.txt", Scope: SharedScope},
	)

	results := s.Search("revenue", 5)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Chunk.Source != "shared.txt" {
		t.Errorf("top result = %s, want shared.txt", results[0].Chunk.Source)
	}
	if results[0].Score != 1.2 {
		t.Errorf("shared score = %v, want 1.2", results[0].Score)
	}
}

func TestSearch_SubstringContainment(t *testing.T) {
	s := storeWith(
		Chunk{Content: padded("the category of felines is broad"), Source: "a.txt", Scope: SharedScope},
	)

	// "cat" matches inside "category" — substring, not whole-word
	results := s.Search("cat", 5)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
}

func TestSearch_RepeatedQueryWordsIncreaseWeight(t *testing.T) {
	s := storeWith(
		Chunk{Content: padded("alpha beta"), Source: "both.txt", Scope: UserScope("tester")},
		Chunk{Content: padded("alpha gamma"), Source: "alpha.txt", Scope: UserScope("tester")},
	)

	// "alpha alpha beta": both.txt matches 3/3, alpha.txt matches 2/3
	results := s.Search("alpha alpha beta", 5)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Chunk.Source != "both.txt" {
		t.Errorf("top result = %s, want both.txt", results[0].Chunk.Source)
	}
	if results[1].Score >= results[0].Score {
		t.Errorf("scores not ordered: %v >= %v", results[1].Score, results[0].Score)
	}
}

func TestSearch_Monotonicity(t *testing.T) {
	base := []Chunk{
		{Content: padded("partial deployment notes"), Source: "old.txt", Scope: UserScope("tester")},
	}
	without := storeWith(base...)

	perfect := Chunk{Content: padded("deployment pipeline rollback"), Source: "new.txt", Scope: UserScope("tester")}
	with := storeWith(append(base, perfect)...)

	query := "deployment pipeline rollback"
	if got := without.Search(query, 5); len(got) != 1 {
		t.Fatalf("baseline results = %d, want 1", len(got))
	}
	results := with.Search(query, 5)
	if results[0].Chunk.Source != "new.txt" {
		t.Errorf("chunk containing every query word should rank first, got %s", results[0].Chunk.Source)
	}
}

func TestSearch_TopN(t *testing.T) {
	var chunks []Chunk
	for range 10 {
		chunks = append(chunks, Chunk{Content: padded("common topic"), Scope: SharedScope})
	}
	s := storeWith(chunks...)

	if got := s.Search("topic", 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := s.Search("topic", 0); len(got) != DefaultTopK {
		t.Errorf("len = %d, want default %d", len(got), DefaultTopK)
	}
}

func TestSearch_DeterministicTieBreak(t *testing.T) {
	s := storeWith(
		Chunk{Content: padded("same same"), Source: "first.txt", Scope: SharedScope},
		Chunk{Content: padded("same same"), Source: "second.txt", Scope: SharedScope},
	)

	for range 5 {
		results := s.Search("same", 5)
		if results[0].Chunk.Source != "first.txt" {
			t.Fatalf("tie should break on scan order, got %s first", results[0].Chunk.Source)
		}
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := storeWith(Chunk{Content: padded("anything"), Scope: SharedScope})
	if got := s.Search("   ", 5); got != nil {
		t.Errorf("empty query yielded %v", got)
	}
}
