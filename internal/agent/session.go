package agent

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mkline-dev/valet/internal/capability"
	"github.com/mkline-dev/valet/internal/config"
	"github.com/mkline-dev/valet/internal/knowledge"
	"github.com/mkline-dev/valet/internal/llm"
)

// SessionConfig carries everything needed to bring one agent online.
type SessionConfig struct {
	Profile     Profile
	Paths       Paths
	App         *config.Config
	Transcriber knowledge.Transcriber
	HTTPClient  *http.Client // providers and website fetches; nil gets defaults

	// EngineBaseURL overrides the completion endpoint, for tests and
	// compatible providers.
	EngineBaseURL string
}

// Session is one live agent: persona plus knowledge store, capability
// registry, completion engine, and conversation log. ProcessMessage runs the
// full dispatch, retrieve, complete, persist pipeline under a per-session
// mutex so concurrent chats to the same agent cannot lose log updates.
type Session struct {
	profile  Profile
	store    *knowledge.Store
	registry *capability.Registry
	engine   *llm.Engine

	mu  sync.Mutex
	log *Log
}

// Reply is the outcome of one processed message.
type Reply struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	ToolUsed       string `json:"tool_used,omitempty"`
}

// NewSession builds the agent's knowledge store, runs the initial corpus
// load, registers capabilities, and loads the conversation log. The session
// is ready for ProcessMessage when this returns.
func NewSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	store := knowledge.NewStore(knowledge.StoreConfig{
		SharedRoot:  cfg.Paths.SharedRoot(),
		UserRoot:    cfg.Paths.UserRoot(cfg.Profile.Name),
		User:        cfg.Profile.Name,
		ChunkSize:   cfg.App.ChunkSize,
		Transcriber: cfg.Transcriber,
		HTTPClient:  cfg.HTTPClient,
	})
	if err := store.EnsureDirs(); err != nil {
		return nil, err
	}
	if err := store.Reload(ctx); err != nil {
		return nil, err
	}

	providers := capability.NewProviders(capability.ProviderConfig{
		NewsAPIKey: cfg.App.NewsAPIKey,
		WeatherKey: cfg.App.WeatherKey,
		HTTPClient: cfg.HTTPClient,
	})
	registry := capability.NewDefaultRegistry(store, providers)

	names := make([]string, 0, 5)
	for _, c := range registry.List() {
		names = append(names, c.Name)
	}
	engine := llm.NewEngine(llm.EngineConfig{
		APIKey:  cfg.App.OpenAIKey,
		Model:   cfg.App.Model,
		BaseURL: cfg.EngineBaseURL,
	}, names)

	return &Session{
		profile:  cfg.Profile,
		store:    store,
		registry: registry,
		engine:   engine,
		log:      LoadLog(cfg.Paths.LogFile(cfg.Profile.Name)),
	}, nil
}

// Profile returns the persona configuration this session was built with.
func (s *Session) Profile() Profile { return s.profile }

// Stats reports the session's loaded knowledge corpus.
func (s *Session) Stats() knowledge.Stats { return s.store.Stats() }

// Search queries the session's knowledge store directly.
func (s *Session) Search(query string, n int) []knowledge.Result {
	return s.store.Search(query, n)
}

// ProcessMessage runs one chat turn: detect a capability, invoke it for
// context, call the completion engine with persona and bounded history, then
// append and persist the turn. A missing conversation id is minted here.
// This is the session's single error boundary: any panic downstream degrades
// to a persona-flavored error string, never an error to the caller.
func (s *Session) ProcessMessage(ctx context.Context, message, conversationID string) (reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversationID == "" {
		conversationID = "conv_" + ulid.Make().String()
	}
	reply.ConversationID = conversationID

	defer func() {
		if r := recover(); r != nil {
			log.Printf("agent: message processing failed for %s: %v", s.profile.Name, r)
			reply.Response = fmt.Sprintf("I'm %s, and I encountered an error. Please try again.", s.profile.Name)
			reply.ToolUsed = ""
		}
	}()

	var toolContext string
	name, args, ok := capability.Detect(message)
	if ok {
		if c, found := s.registry.Get(name); found {
			toolContext = c.Invoke(ctx, args)
			reply.ToolUsed = name
		}
	}

	persona := llm.Persona{
		Name:      s.profile.Name,
		Tone:      s.profile.Tone,
		Interests: s.profile.Interests,
	}
	reply.Response = s.engine.Respond(ctx, persona, s.history(), toolContext, message)

	s.log.Append(Turn{
		User:           message,
		Assistant:      reply.Response,
		Timestamp:      time.Now().UTC(),
		ConversationID: conversationID,
		ToolUsed:       reply.ToolUsed,
	})
	return reply
}

// history converts the conversation log into engine turns, oldest first. The
// engine bounds how many it feeds back.
func (s *Session) history() []llm.Turn {
	turns := s.log.Turns()
	out := make([]llm.Turn, len(turns))
	for i, t := range turns {
		out[i] = llm.Turn{User: t.User, Assistant: t.Assistant}
	}
	return out
}

// ReloadKnowledge re-scans the agent's corpus. Taken under the session lock
// so an upload-triggered reload cannot interleave with an in-flight chat.
func (s *Session) ReloadKnowledge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Reload(ctx)
}
