// Package catalog provides read-only access to the script index. Scripts are
// declared in an index.json file at the root of the scripts directory, keyed
// by category; the catalog never scans the filesystem itself.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// IndexFile is the catalog file name inside the scripts directory
const IndexFile = "index.json"

// Script describes one entry of the catalog
type Script struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Path        string   `json:"path"`
	Params      []string `json:"params,omitempty"`
	RunElevated bool     `json:"run_elevated,omitempty"`
}

// Repository loads and serves the script index
type Repository struct {
	baseDir string

	mu    sync.RWMutex
	index map[string][]Script
}

// New creates a repository rooted at baseDir and loads the index. A missing
// index file yields an empty catalog, not an error.
func New(baseDir string) (*Repository, error) {
	r := &Repository{baseDir: baseDir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads index.json from disk
func (r *Repository) Reload() error {
	indexPath := filepath.Join(r.baseDir, IndexFile)

	data, err := os.ReadFile(indexPath) //nolint:gosec // G304: path derives from configured scripts dir
	if os.IsNotExist(err) {
		r.mu.Lock()
		r.index = map[string][]Script{}
		r.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read script index: %w", err)
	}

	index := map[string][]Script{}
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("failed to parse script index: %w", err)
	}

	r.mu.Lock()
	r.index = index
	r.mu.Unlock()
	return nil
}

// Categories returns the sorted list of category names
func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]string, 0, len(r.index))
	for category := range r.index {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Scripts returns the scripts of one category in index order
func (r *Repository) Scripts(category string) []Script {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Script(nil), r.index[category]...)
}

// Find looks a script up by category and name
func (r *Repository) Find(category, name string) (Script, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, script := range r.index[category] {
		if script.Name == name {
			return script, true
		}
	}
	return Script{}, false
}

// Resolve returns the absolute on-disk path of a catalog entry. Relative
// paths are anchored at the scripts directory.
func (r *Repository) Resolve(script Script) string {
	if filepath.IsAbs(script.Path) {
		return script.Path
	}
	return filepath.Join(r.baseDir, script.Path)
}
