package knowledge

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Transcriber converts an audio file to text. The speech-to-text backend is an
// external collaborator; a nil Transcriber means audio files are skipped.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// StoreConfig configures a chunk store for one agent's view of the corpus.
type StoreConfig struct {
	SharedRoot  string // shared/organization scope, read by every agent
	UserRoot    string // this agent's private scope
	User        string // agent name, used for the user scope tag
	ChunkSize   int    // words per chunk; 0 means 400
	Transcriber Transcriber
	HTTPClient  *http.Client // website fetches; nil gets a 15s-timeout client
}

// Store materializes the searchable corpus for one agent scope by scanning
// the shared root and the agent's root. Reload replaces all chunks wholesale;
// individual chunks are never updated or deleted.
type Store struct {
	sharedRoot  string
	userRoot    string
	user        string
	chunkSize   int
	transcriber Transcriber
	client      *http.Client

	mu     sync.RWMutex
	chunks []Chunk
}

// NewStore creates a store. Call Reload before searching.
func NewStore(cfg StoreConfig) *Store {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 400
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Store{
		sharedRoot:  cfg.SharedRoot,
		userRoot:    cfg.UserRoot,
		user:        cfg.User,
		chunkSize:   size,
		transcriber: cfg.Transcriber,
		client:      client,
	}
}

// EnsureDirs creates the two-level document tree for both scopes.
func (s *Store) EnsureDirs() error {
	dirs := []string{
		filepath.Join(s.sharedRoot, "docs"),
		filepath.Join(s.sharedRoot, "uploads"),
		filepath.Join(s.sharedRoot, "websites"),
		filepath.Join(s.userRoot, "docs"),
		filepath.Join(s.userRoot, "uploads"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Reload clears all chunks and re-scans both scope roots. A failure to parse
// one file or fetch one URL logs and skips that source; Reload itself only
// fails on a context cancellation.
func (s *Store) Reload(ctx context.Context) error {
	var chunks []Chunk
	ordinal := 0

	add := func(text, source string, docType DocType, scope string) {
		for _, c := range ChunkText(text, s.chunkSize) {
			chunks = append(chunks, Chunk{
				Content: c,
				Source:  source,
				Type:    docType,
				Scope:   scope,
				Ordinal: ordinal,
			})
			ordinal++
		}
	}

	scan := func(root, scope string) error {
		for _, sub := range []struct {
			dir     string
			docType DocType
		}{
			{"docs", DocTypeDocument},
			{"uploads", DocTypeUpload},
		} {
			dir := filepath.Join(root, sub.dir)
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue // missing subtree is not an error
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				path := filepath.Join(dir, entry.Name())
				text, docType, err := s.parseFile(ctx, path, sub.docType)
				if err != nil {
					log.Printf("knowledge: skipping %s: %v", path, err)
					continue
				}
				if text == "" {
					continue
				}
				add(text, entry.Name(), docType, scope)
			}
		}
		return nil
	}

	if err := scan(s.sharedRoot, SharedScope); err != nil {
		return err
	}
	if err := s.scanWebsites(ctx, add); err != nil {
		return err
	}
	if err := scan(s.userRoot, UserScope(s.user)); err != nil {
		return err
	}

	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()

	log.Printf("knowledge: loaded %d chunks for user %s", len(chunks), s.user)
	return nil
}

// SupportedFile reports whether a filename has an extension the ingestion
// path can parse. Upload validation uses this before writing anything.
func SupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf", ".mp3", ".wav", ".m4a":
		return true
	}
	return false
}

// parseFile dispatches on extension. The returned doc type is the passed-in
// default except for audio, which always yields an audio transcript.
func (s *Store) parseFile(ctx context.Context, path string, docType DocType) (string, DocType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		text, err := readTextFile(path)
		return text, docType, err
	case ".md":
		text, err := readMarkdownFile(path)
		return text, docType, err
	case ".pdf":
		text, err := readPDFFile(path)
		return text, docType, err
	case ".mp3", ".wav", ".m4a":
		if s.transcriber == nil {
			log.Printf("knowledge: no transcriber configured, skipping %s", path)
			return "", DocTypeAudio, nil
		}
		text, err := s.transcriber.Transcribe(ctx, path)
		return text, DocTypeAudio, err
	default:
		log.Printf("knowledge: unsupported file type, skipping %s", path)
		return "", docType, nil
	}
}

// scanWebsites reads the shared URL list and ingests each page.
func (s *Store) scanWebsites(ctx context.Context, add func(text, source string, docType DocType, scope string)) error {
	listPath := filepath.Join(s.sharedRoot, "websites", "urls.txt")
	data, err := os.ReadFile(listPath)
	if err != nil {
		return nil // no URL list is the common case
	}

	for _, line := range strings.Split(string(data), "\n") {
		url := strings.TrimSpace(line)
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := fetchWebsite(s.client, url)
		if err != nil {
			log.Printf("knowledge: skipping website %s: %v", url, err)
			continue
		}
		add(text, url, DocTypeWebsite, SharedScope)
	}
	return nil
}

// Chunks returns a snapshot of the current chunk set.
func (s *Store) Chunks() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Stats summarizes the loaded corpus.
type Stats struct {
	TotalChunks  int    `json:"total_chunks"`
	SharedChunks int    `json:"shared_chunks"`
	UserChunks   int    `json:"user_chunks"`
	User         string `json:"user"`
	Status       string `json:"status"` // "loaded" or "empty"
}

// Stats reports chunk counts per scope.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalChunks: len(s.chunks), User: s.user, Status: "empty"}
	for _, c := range s.chunks {
		if c.Scope == SharedScope {
			stats.SharedChunks++
		} else {
			stats.UserChunks++
		}
	}
	if stats.TotalChunks > 0 {
		stats.Status = "loaded"
	}
	return stats
}
