package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"threatmap/internal/model"
)

// seenItem is one persisted record in the JSON file.
type seenItem struct {
	Hash     string    `json:"hash"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Category string    `json:"category"`
	SeenAt   time.Time `json:"seen_at"`
	Source   string    `json:"source"`
}

// FileStore keeps seen-event hashes in a JSON file. The default backend.
type FileStore struct {
	filePath string
	ttlHours int
	items    map[string]seenItem
	mu       sync.RWMutex
}

func NewFileStore(filePath string, ttlHours int) *FileStore {
	return &FileStore{
		filePath: filePath,
		ttlHours: ttlHours,
		items:    make(map[string]seenItem),
	}
}

// Load reads the existing file, dropping expired entries.
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to read seen store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []seenItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal seen store: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(fs.ttlHours) * time.Hour)
	for _, item := range items {
		if item.SeenAt.After(cutoff) {
			fs.items[item.Hash] = item
		}
	}
	return nil
}

// Save writes the current state back to disk.
func (fs *FileStore) Save() error {
	fs.mu.RLock()
	items := make([]seenItem, 0, len(fs.items))
	for _, item := range fs.items {
		items = append(items, item)
	}
	fs.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal seen store: %w", err)
	}
	if err := os.WriteFile(fs.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write seen store: %w", err)
	}
	return nil
}

func (fs *FileStore) IsSeen(hash string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	item, exists := fs.items[hash]
	if !exists {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(fs.ttlHours) * time.Hour)
	return item.SeenAt.After(cutoff)
}

func (fs *FileStore) MarkSeen(event model.ThreatEvent) error {
	hash := seenHash(event)

	fs.mu.Lock()
	fs.items[hash] = seenItem{
		Hash:     hash,
		Title:    event.Title,
		URL:      event.SourceURL,
		Category: string(event.Category),
		SeenAt:   time.Now(),
		Source:   event.Source,
	}
	fs.mu.Unlock()

	return nil
}

// Cleanup removes expired entries from memory.
func (fs *FileStore) Cleanup() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(fs.ttlHours) * time.Hour)
	for hash, item := range fs.items {
		if item.SeenAt.Before(cutoff) {
			delete(fs.items, hash)
		}
	}
}

// Close flushes to disk.
func (fs *FileStore) Close() error {
	return fs.Save()
}
