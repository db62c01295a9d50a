// Package artifact encodes a search index into the JSON file consumed by the site.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/d2chub/internal/checksum"
	"github.com/starford/d2chub/internal/models"
	"github.com/starford/d2chub/internal/storage"
)

// Written describes an artifact written to disk.
type Written struct {
	Path     string `json:"path"`
	Bytes    int    `json:"bytes"`
	Checksum string `json:"checksum"`
}

// Encode renders idx as two-space indented JSON with a trailing newline.
// HTML characters are left unescaped.
func Encode(idx *models.SearchIndex) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(idx); err != nil {
		return nil, fmt.Errorf("artifact: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Checksum returns the hex SHA-256 of an encoded artifact.
func Checksum(data []byte) string {
	return checksum.Sum(data)
}

// Stamp returns a shallow copy of idx carrying generatedAt in RFC 3339 UTC.
func Stamp(idx *models.SearchIndex, at time.Time) *models.SearchIndex {
	out := *idx
	out.GeneratedAt = at.UTC().Format(time.RFC3339)
	return &out
}

// Write atomically replaces the file at path with an encoded artifact.
func Write(path string, data []byte) (Written, error) {
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return Written{}, fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return Written{Path: path, Bytes: len(data), Checksum: Checksum(data)}, nil
}
