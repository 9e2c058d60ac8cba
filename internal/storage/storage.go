// Package storage persists which events were already emitted, so hourly
// refresh cycles do not re-serve the same stories within the TTL window.
// Three backends implement the same interface: a JSON file (default),
// Postgres (also archives events), and Redis.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"threatmap/internal/model"
)

// SeenStore tracks emitted events by stable hash.
type SeenStore interface {
	IsSeen(hash string) bool
	MarkSeen(event model.ThreatEvent) error
	Close() error
}

// EventHash builds a stable identity hash from the normalized title and the
// source domain. Using the domain rather than the full URL keeps the hash
// stable across tracking-parameter variations.
func EventHash(title, sourceURL string) string {
	normalizedTitle := strings.ToLower(strings.TrimSpace(title))
	normalizedTitle = strings.Join(strings.Fields(normalizedTitle), " ")

	h := sha256.New()
	h.Write([]byte(normalizedTitle + "|" + extractDomain(sourceURL)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// seenHash prefers the hash carried from intake, computed before translation
// rewrote the title, so lookup and storage agree for translated events.
func seenHash(event model.ThreatEvent) string {
	if event.SeenHash != "" {
		return event.SeenHash
	}
	return EventHash(event.Title, event.SourceURL)
}

func extractDomain(url string) string {
	if url == "" {
		return "unknown"
	}

	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	parts := strings.Split(url, "/")
	if len(parts) == 0 || parts[0] == "" {
		return "unknown"
	}

	domain := strings.TrimPrefix(parts[0], "www.")
	return strings.ToLower(domain)
}
