// Package agent manages assistant profiles, per-agent conversation logs, and
// live chat sessions. A session binds one persona to its knowledge store,
// capability registry, completion engine, and durable conversation log; the
// Manager caches sessions by name and guards against duplicate construction.
package agent

import (
	"path/filepath"
	"strings"
)

// Paths describes the on-disk layout under one data directory:
//
//	<root>/agents/              profile JSON, one file per agent
//	<root>/memory/              conversation log JSON, one file per agent
//	<root>/shared/              organization-scope knowledge (docs, uploads, websites)
//	<root>/users/<name>/        per-agent knowledge (docs, uploads)
type Paths struct {
	Root string
}

func (p Paths) AgentsDir() string { return filepath.Join(p.Root, "agents") }
func (p Paths) MemoryDir() string { return filepath.Join(p.Root, "memory") }
func (p Paths) SharedRoot() string { return filepath.Join(p.Root, "shared") }

func (p Paths) UserRoot(name string) string {
	return filepath.Join(p.Root, "users", slug(name))
}

func (p Paths) ProfileFile(name string) string {
	return filepath.Join(p.AgentsDir(), slug(name)+".json")
}

func (p Paths) LogFile(name string) string {
	return filepath.Join(p.MemoryDir(), slug(name)+"_memory.json")
}

// slug maps an agent name to its filesystem identifier. Lowercasing here is
// what makes name uniqueness case-insensitive.
func slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
