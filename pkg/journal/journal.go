// Package journal persists one JSON record per orchestration run for offline
// debugging: which assets were fetched for which reference date, how each
// concluded and how long the run took.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AssetOutcome captures how a single asset's fetch concluded within a run.
type AssetOutcome struct {
	CoinID string `json:"coin_id"`
	Status string `json:"status"` // ok | no_data | failed
	Error  string `json:"error,omitempty"`
}

// RunRecord captures an end-to-end orchestration run.
type RunRecord struct {
	Timestamp     time.Time      `json:"timestamp"`
	Epoch         uint64         `json:"epoch"`
	ReferenceDate string         `json:"reference_date"`
	RunNumber     int            `json:"run_number"`
	Outcomes      []AssetOutcome `json:"outcomes,omitempty"`
	DurationMS    int64          `json:"duration_ms"`
	Success       bool           `json:"success"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Writer persists run records to a directory as JSON files.
type Writer struct {
	mu    sync.Mutex
	dir   string
	seq   int
	nowFn func() time.Time
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteRun writes a run record to a timestamped JSON file and returns its path.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.seq++
	rec.RunNumber = w.seq
	name := fmt.Sprintf("run_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), w.seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
