package agent

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/mkline-dev/valet/internal/config"
	"github.com/mkline-dev/valet/internal/knowledge"
)

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	Paths       Paths
	App         *config.Config
	Transcriber knowledge.Transcriber
	HTTPClient  *http.Client

	// EngineBaseURL overrides the completion endpoint, for tests.
	EngineBaseURL string
}

// sessionSlot is the once-guarded cache cell for one agent name. Two
// concurrent first requests share the slot, so exactly one of them builds
// the session and runs the initial knowledge load.
type sessionSlot struct {
	once sync.Once
	sess *Session
	err  error

	// ready is set under Manager.mu after once.Do completes. Live reads
	// sess only when ready is set, so it never observes the builder's
	// unsynchronized write mid-construction.
	ready bool
}

// Manager caches live sessions by lowercased agent name and hands them to
// request handlers. It replaces a bare global map: the slot scheme closes
// the duplicate-construction race under concurrent first requests.
type Manager struct {
	cfg      ManagerConfig
	profiles *ProfileStore

	mu    sync.Mutex
	slots map[string]*sessionSlot
}

// NewManager creates a manager over the given data layout.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		profiles: NewProfileStore(cfg.Paths),
		slots:    make(map[string]*sessionSlot),
	}
}

// Profiles exposes the profile store for CRUD handlers.
func (m *Manager) Profiles() *ProfileStore { return m.profiles }

// Session returns the live session for the named agent, constructing it on
// first use. Returns ErrNotFound if no profile exists. A failed construction
// is not cached; the next caller retries.
func (m *Manager) Session(ctx context.Context, name string) (*Session, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	m.mu.Lock()
	slot, ok := m.slots[key]
	if !ok {
		slot = &sessionSlot{}
		m.slots[key] = slot
	}
	m.mu.Unlock()

	slot.once.Do(func() {
		slot.sess, slot.err = m.build(ctx, name)
	})
	if slot.err != nil {
		m.mu.Lock()
		if m.slots[key] == slot {
			delete(m.slots, key)
		}
		m.mu.Unlock()
		return nil, slot.err
	}

	m.mu.Lock()
	slot.ready = true
	m.mu.Unlock()
	return slot.sess, nil
}

func (m *Manager) build(ctx context.Context, name string) (*Session, error) {
	profile, err := m.profiles.Get(name)
	if err != nil {
		return nil, err
	}
	return NewSession(ctx, SessionConfig{
		Profile:       profile,
		Paths:         m.cfg.Paths,
		App:           m.cfg.App,
		Transcriber:   m.cfg.Transcriber,
		HTTPClient:    m.cfg.HTTPClient,
		EngineBaseURL: m.cfg.EngineBaseURL,
	})
}

// Live reports whether a session for the named agent is already constructed,
// without constructing one.
func (m *Manager) Live(name string) (*Session, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[key]
	if !ok || !slot.ready {
		return nil, false
	}
	return slot.sess, true
}

// Reload re-scans the named agent's knowledge corpus if its session is live.
// An upload for a never-chatted agent needs no reload; construction will
// pick the new files up.
func (m *Manager) Reload(ctx context.Context, name string) error {
	sess, ok := m.Live(name)
	if !ok {
		return nil
	}
	return sess.ReloadKnowledge(ctx)
}

// Evict drops the cached session for an agent, typically after deletion.
func (m *Manager) Evict(name string) {
	key := strings.ToLower(strings.TrimSpace(name))
	m.mu.Lock()
	delete(m.slots, key)
	m.mu.Unlock()
}
