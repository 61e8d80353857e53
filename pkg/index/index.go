// Package index caches the mapping from list names to backend IDs so a
// run does not have to enumerate every remote list to find one.
package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type ListIndex struct {
	Mappings map[string]string `json:"mappings"`
	Path     string            `json:"-"`
	mu       sync.RWMutex
	dirty    bool
}

// NewListIndex opens the index at path, loading it when it exists.
func NewListIndex(path string) (*ListIndex, error) {
	idx := &ListIndex{
		Mappings: make(map[string]string),
		Path:     path,
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.Load(); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// DefaultPath is the index location under the given config directory.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, "lists.json")
}

func (idx *ListIndex) Load() error {
	f, err := os.Open(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	return json.NewDecoder(f).Decode(&idx.Mappings)
}

func (idx *ListIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}

	dir := filepath.Dir(idx.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(idx.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *ListIndex) Get(name string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[name]
}

func (idx *ListIndex) Set(name, id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[name] != id {
		idx.Mappings[name] = id
		idx.dirty = true
	}
}

func (idx *ListIndex) Remove(name string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[name]; exists {
		delete(idx.Mappings, name)
		idx.dirty = true
	}
}
