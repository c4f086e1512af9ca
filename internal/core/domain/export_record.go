package domain

import "time"

// ExportRecord describes a mesh written to the export store.
type ExportRecord struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Source      string      `json:"source,omitzero"`
	Degraded    bool        `json:"degraded,omitzero"`
	Triangles   int         `json:"triangles"`
	Checksum    string      `json:"checksum,omitzero"`
	Path        string      `json:"path,omitzero"`
	Timestamp   time.Time   `json:"timestamp,omitzero"`
}
