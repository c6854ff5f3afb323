package metrics

import (
	"sort"

	"github.com/pagepulse/pagepulse/internal/timing"
)

const (
	// largeResourceBytes is the minimum transfer size for a resource to be
	// considered "large" and retained in the snapshot.
	largeResourceBytes = 100_000

	// maxLargeResources caps how many large resources a snapshot keeps.
	maxLargeResources = 10
)

// ResourceRecord is one retained large resource, derived from raw resource
// timing entries.
type ResourceRecord struct {
	Name         string  `json:"name"`
	Initiator    string  `json:"initiator,omitempty"`
	TransferSize int64   `json:"transfer_size"`
	DurationMs   float64 `json:"duration_ms"`
}

// LargeResources filters raw resource entries down to the heaviest offenders:
// transfer size above largeResourceBytes, sorted descending by size, at most
// maxLargeResources kept. The result replaces — never patches — any previous
// collection.
func LargeResources(entries []timing.ResourceEntry) []ResourceRecord {
	out := make([]ResourceRecord, 0, len(entries))
	for _, e := range entries {
		if e.TransferSize <= largeResourceBytes {
			continue
		}
		out = append(out, ResourceRecord{
			Name:         e.Name,
			Initiator:    e.Initiator,
			TransferSize: e.TransferSize,
			DurationMs:   e.DurationMs,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransferSize > out[j].TransferSize
	})
	if len(out) > maxLargeResources {
		out = out[:maxLargeResources]
	}
	return out
}
