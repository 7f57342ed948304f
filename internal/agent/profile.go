package agent

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mkline-dev/valet/internal/errors"
)

// Profile is one agent's persisted configuration.
type Profile struct {
	Name        string    `json:"name"`
	Tone        string    `json:"tone"`
	Interests   []string  `json:"interests"`
	VoiceID     string    `json:"voice_id,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate carries the mutable fields of a profile. Nil pointers and a
// nil interest slice mean "leave unchanged".
type ProfileUpdate struct {
	Tone        *string  `json:"tone,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	VoiceID     *string  `json:"voice_id,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// ProfileStore persists agent profiles as one JSON file each under the
// agents directory. Name uniqueness is case-insensitive.
type ProfileStore struct {
	paths Paths
}

// NewProfileStore creates a profile store rooted at the given layout.
func NewProfileStore(paths Paths) *ProfileStore {
	return &ProfileStore{paths: paths}
}

// Create validates the profile, persists it, and provisions the agent's
// knowledge scope (docs and uploads directories plus a welcome document).
// Returns ErrNameAlreadyExists if another agent already claims the name in
// any letter case.
func (ps *ProfileStore) Create(p Profile) (Profile, error) {
	if strings.TrimSpace(p.Name) == "" {
		return Profile{}, errors.NewInvalidRequest("agent name is required")
	}
	if p.Tone == "" {
		p.Tone = "friendly"
	}
	if len(p.Interests) == 0 {
		p.Interests = []string{"general conversation", "helping users"}
	}

	path := ps.paths.ProfileFile(p.Name)
	if _, err := os.Stat(path); err == nil {
		return Profile{}, errors.NewNameAlreadyExists(p.Name)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := writeJSONFile(path, p); err != nil {
		return Profile{}, errors.NewInternal(err)
	}
	if err := ps.provisionScope(p); err != nil {
		log.Printf("agent: provisioning knowledge scope for %s: %v", p.Name, err)
	}
	return p, nil
}

// Get loads a profile by name. Returns ErrNotFound if absent.
func (ps *ProfileStore) Get(name string) (Profile, error) {
	data, err := os.ReadFile(ps.paths.ProfileFile(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Profile{}, errors.NewNotFound(name)
		}
		return Profile{}, errors.NewInternal(err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, errors.NewInternal(err)
	}
	return p, nil
}

// List returns all profiles, newest first. Unreadable files are logged and
// skipped so one corrupt profile cannot hide the rest.
func (ps *ProfileStore) List() ([]Profile, error) {
	entries, err := os.ReadDir(ps.paths.AgentsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []Profile{}, nil
		}
		return nil, errors.NewInternal(err)
	}

	profiles := make([]Profile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ps.paths.AgentsDir(), e.Name()))
		if err != nil {
			log.Printf("agent: reading profile %s: %v", e.Name(), err)
			continue
		}
		var p Profile
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("agent: decoding profile %s: %v", e.Name(), err)
			continue
		}
		profiles = append(profiles, p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
	return profiles, nil
}

// Update applies the non-nil fields of upd and persists the result.
func (ps *ProfileStore) Update(name string, upd ProfileUpdate) (Profile, error) {
	p, err := ps.Get(name)
	if err != nil {
		return Profile{}, err
	}
	if upd.Tone != nil {
		p.Tone = *upd.Tone
	}
	if upd.Interests != nil {
		p.Interests = upd.Interests
	}
	if upd.VoiceID != nil {
		p.VoiceID = *upd.VoiceID
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	p.UpdatedAt = time.Now().UTC()

	if err := writeJSONFile(ps.paths.ProfileFile(name), p); err != nil {
		return Profile{}, errors.NewInternal(err)
	}
	return p, nil
}

// Delete removes the profile file. The agent's knowledge directories and
// conversation log are left on disk.
func (ps *ProfileStore) Delete(name string) error {
	err := os.Remove(ps.paths.ProfileFile(name))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound(name)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// provisionScope creates the agent's knowledge tree and seeds it with a
// welcome document so a fresh agent has something searchable.
func (ps *ProfileStore) provisionScope(p Profile) error {
	userRoot := ps.paths.UserRoot(p.Name)
	for _, dir := range []string{
		filepath.Join(ps.paths.SharedRoot(), "docs"),
		filepath.Join(ps.paths.SharedRoot(), "uploads"),
		filepath.Join(userRoot, "docs"),
		filepath.Join(userRoot, "uploads"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	desc := p.Description
	if desc == "" {
		desc = "AI Assistant"
	}
	welcome := fmt.Sprintf(`Welcome to %s's Knowledge Base!

Agent Profile:
- Name: %s
- Personality: %s
- Description: %s

This agent has access to powerful tools:
- Knowledge search from uploaded documents
- Web search for current information
- Cryptocurrency prices
- Latest news
- Weather information

Created on: %s
`, p.Name, p.Name, p.Tone, desc, p.CreatedAt.Format("2006-01-02 15:04:05"))

	return os.WriteFile(filepath.Join(userRoot, "docs", "welcome.txt"), []byte(welcome), 0o644)
}

// writeJSONFile writes v as indented JSON via a temp file and rename, so a
// crash mid-write never leaves a truncated file behind.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
