package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one processed file in the output manifest.
type ManifestEntry struct {
	Input   string   `json:"input"`
	Version uint8    `json:"version"`
	Legacy  bool     `json:"legacy,omitempty"`
	Planes  int      `json:"planes"`
	Outputs []string `json:"outputs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// WriteManifest writes the results of a run as indented JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Input:   r.Input,
			Version: r.Version,
			Legacy:  r.Legacy,
			Planes:  r.Planes,
			Outputs: r.Outputs,
			Error:   r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Failed counts unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}
