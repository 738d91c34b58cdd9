package news

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// DefaultRecencyCap is how many delivered links are remembered.
const DefaultRecencyCap = 20

// RecencyCache remembers the most recently delivered links, oldest first.
// When filePath is set the list is persisted as JSON after every insertion.
type RecencyCache struct {
	filePath string
	capacity int
	links    []string
	mu       sync.RWMutex
}

// NewRecencyCache creates a cache holding at most capacity links.
// An empty filePath keeps the cache in memory only.
func NewRecencyCache(capacity int, filePath string) *RecencyCache {
	if capacity <= 0 {
		capacity = DefaultRecencyCap
	}
	return &RecencyCache{
		filePath: filePath,
		capacity: capacity,
	}
}

// Load loads existing cache from file
func (rc *RecencyCache) Load() error {
	if rc.filePath == "" {
		return nil
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	data, err := os.ReadFile(rc.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var links []string
	if err := json.Unmarshal(data, &links); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	rc.links = nil
	for _, link := range links {
		if link != "" {
			rc.links = append(rc.links, link)
		}
	}
	rc.trim()
	return nil
}

// Save writes the current links to the cache file.
func (rc *RecencyCache) Save() error {
	if rc.filePath == "" {
		return nil
	}

	rc.mu.RLock()
	data, err := json.MarshalIndent(rc.links, "", "  ")
	rc.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(rc.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Contains reports whether link was delivered recently.
func (rc *RecencyCache) Contains(link string) bool {
	if link == "" {
		return false
	}

	rc.mu.RLock()
	defer rc.mu.RUnlock()
	for _, l := range rc.links {
		if l == link {
			return true
		}
	}
	return false
}

// Add records link as delivered, evicting the oldest entries beyond capacity.
// Empty links are never recorded.
func (rc *RecencyCache) Add(link string) error {
	if link == "" {
		return nil
	}

	rc.mu.Lock()
	rc.links = append(rc.links, link)
	rc.trim()
	rc.mu.Unlock()

	return rc.Save()
}

// Len returns the number of remembered links.
func (rc *RecencyCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.links)
}

// Links returns a copy of the remembered links, oldest first.
func (rc *RecencyCache) Links() []string {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return append([]string(nil), rc.links...)
}

// trim requires rc.mu held for writing.
func (rc *RecencyCache) trim() {
	if over := len(rc.links) - rc.capacity; over > 0 {
		rc.links = append([]string(nil), rc.links[over:]...)
	}
}
