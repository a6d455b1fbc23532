// Package snapshot manages dated territory table snapshots.
package snapshot

import (
	"encoding/json"
	"os"
	"time"
)

// Metadata describes a territory table snapshot.
type Metadata struct {
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	Date             string    `json:"date"`
	TerritoriesCount int       `json:"territories_count"`
	Source           string    `json:"source"`
	Host             string    `json:"host,omitempty"`
	IsLatest         bool      `json:"is_latest"`
}

// MetadataVersion is the current metadata format version.
const MetadataVersion = 1

// NewMetadata creates a new metadata instance.
func NewMetadata() *Metadata {
	return &Metadata{
		Version:   MetadataVersion,
		CreatedAt: time.Now().UTC(),
		Source:    "Mapcode API territories",
	}
}

// Save writes metadata to a file.
func (m *Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadMetadata loads metadata from a file.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &m, nil
}
