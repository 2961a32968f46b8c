// Package cache persists validated compose plans between invocations,
// keyed by a hash of the inventory content and rendering options. The
// compose engine itself never reads or writes here; it is handed cached
// plans for replay and always re-validates them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	dirName  = "commitstack"
	planFile = "plan.json"
	metaFile = "meta.json"
)

// Metadata describes a cached plan.
type Metadata struct {
	ContextHash  string `json:"context_hash"`
	RunID        string `json:"run_id"`
	GeneratedAt  string `json:"generated_at"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	Commits      int    `json:"commits"`
	TotalHunks   int    `json:"total_hunks"`
	Style        string `json:"style"`
	MaxCommits   int    `json:"max_commits"`
}

// Store manages the plan cache for one repository, under the
// repository's own .git directory so it never pollutes the working tree.
type Store struct {
	dir string
}

// NewStore returns the cache store for the repository rooted at root.
func NewStore(root string) *Store {
	return &Store{dir: filepath.Join(root, ".git", dirName)}
}

// Key derives the cache key from everything that shapes a plan: the
// rendered inventory, the message style and the commit ceiling.
func Key(inventoryText, style string, maxCommits int) string {
	h := sha256.New()
	h.Write([]byte(inventoryText))
	h.Write([]byte{0})
	h.Write([]byte(style))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxCommits)))
	return hex.EncodeToString(h.Sum(nil))
}

// IsValid reports whether a cached plan exists for the given key.
func (s *Store) IsValid(key string) bool {
	meta, err := s.LoadMetadata()
	if err != nil || meta == nil {
		return false
	}
	return meta.ContextHash == key
}

// LoadMetadata reads the cached plan's metadata, or nil when absent.
func (s *Store) LoadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt cache metadata: %w", err)
	}
	return &m, nil
}

// LoadPlan reads the cached plan bytes, or nil when absent.
func (s *Store) LoadPlan() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, planFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save persists a plan and its metadata atomically enough for a
// single-user cache: metadata is written last, so a torn write
// invalidates rather than corrupts.
func (s *Store) Save(planJSON []byte, meta Metadata) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	if meta.GeneratedAt == "" {
		meta.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := os.WriteFile(filepath.Join(s.dir, planFile), planJSON, 0644); err != nil {
		return err
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, metaFile), metaJSON, 0644)
}

// Invalidate removes any cached plan.
func (s *Store) Invalidate() error {
	for _, name := range []string{planFile, metaFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
