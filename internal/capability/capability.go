// Package capability maps free-text user input to external actions: knowledge
// search, web search, crypto prices, news, and weather. Capabilities share one
// invocation contract — named args in, text out, never an error. Provider
// failures are converted to human-readable degraded strings inside the
// capability so a chat turn can always proceed.
package capability

import "context"

// Capability names. The set is fixed; registration happens once per session.
const (
	SearchKnowledge = "search_knowledge"
	WebSearch       = "web_search"
	GetCryptoPrice  = "get_crypto_price"
	GetNews         = "get_news"
	GetWeather      = "get_weather"
)

// Args carries the named arguments for an invocation. Each capability reads
// the fields it declares in its parameter schema and ignores the rest.
type Args struct {
	Query    string `json:"query,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Location string `json:"location,omitempty"`
}

// Param describes one schema entry for a capability parameter.
type Param struct {
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Default  string `json:"default,omitempty"`
}

// Capability is a named external action with a uniform invoke signature.
// Invoke must not panic and must not fail: degraded results come back as text.
type Capability struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Params      map[string]Param `json:"parameters"`
	Invoke      func(ctx context.Context, args Args) string `json:"-"`
}

// Registry holds the capability table for one agent session.
type Registry struct {
	caps  map[string]Capability
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[string]Capability)}
}

// Register adds a capability. Re-registering a name replaces it in place.
func (r *Registry) Register(c Capability) {
	if _, exists := r.caps[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.caps[c.Name] = c
}

// Get returns the capability with the given name.
func (r *Registry) Get(name string) (Capability, bool) {
	c, ok := r.caps[name]
	return c, ok
}

// List returns all capabilities in registration order.
func (r *Registry) List() []Capability {
	out := make([]Capability, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.caps[name])
	}
	return out
}
