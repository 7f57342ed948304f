package capability

import "strings"

// DefaultLocation is used when a weather request names no extractable place.
const DefaultLocation = "New York"

// DefaultCoin is used when a crypto trigger fires without a specific coin term.
const DefaultCoin = "bitcoin"

// cryptoTriggers fire the price lookup. Checked before every other rule so
// "what is the bitcoin price" never routes to knowledge search.
var cryptoTriggers = []string{"bitcoin", "crypto", "price", "btc", "ethereum"}

// coinTerms maps informal coin terms to canonical price-lookup identifiers.
// Order matters: the first term found in the input wins.
var coinTerms = []struct {
	term string
	id   string
}{
	{"bitcoin", "bitcoin"},
	{"ethereum", "ethereum"},
	{"btc", "bitcoin"},
	{"eth", "ethereum"},
	{"crypto", "bitcoin"},
}

var (
	knowledgeTriggers = []string{"what is", "tell me about", "explain", "define"}
	webTriggers       = []string{"search", "look up", "find", "latest"}
	newsTriggers      = []string{"news", "headlines", "current events"}
	weatherTriggers   = []string{"weather", "temperature", "forecast"}
)

// Detect maps raw user text to at most one capability plus its arguments.
// Rules are substring matches against the lowercased input, evaluated in
// priority order. Returns ok=false when no rule matches, in which case the
// message proceeds to the conversation engine with no added context.
func Detect(input string) (string, Args, bool) {
	lower := strings.ToLower(input)

	if containsAny(lower, cryptoTriggers) {
		for _, c := range coinTerms {
			if strings.Contains(lower, c.term) {
				return GetCryptoPrice, Args{Symbol: c.id}, true
			}
		}
		return GetCryptoPrice, Args{Symbol: DefaultCoin}, true
	}

	if containsAny(lower, knowledgeTriggers) {
		return SearchKnowledge, Args{Query: input}, true
	}

	if containsAny(lower, webTriggers) {
		return WebSearch, Args{Query: input}, true
	}

	if containsAny(lower, newsTriggers) {
		return GetNews, Args{Topic: input}, true
	}

	if containsAny(lower, weatherTriggers) {
		return GetWeather, Args{Location: extractLocation(input)}, true
	}

	return "", Args{}, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// extractLocation pulls the token following "in"/"at"/"for" out of a weather
// request, e.g. "weather in Paris" → "Paris". Falls back to DefaultLocation.
func extractLocation(input string) string {
	words := strings.Fields(input)
	for i, word := range words {
		switch strings.ToLower(word) {
		case "in", "at", "for":
			if i+1 < len(words) {
				return strings.Trim(words[i+1], ".,!?")
			}
		}
	}
	return DefaultLocation
}
