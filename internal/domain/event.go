package domain

import "time"

// SnapshotPublished announces a newly published snapshot so readers can drop
// cached copies before their TTL runs out.
type SnapshotPublished struct {
	RunID        string    `json:"run_id"`
	SnapshotPath string    `json:"snapshot_path"`
	MirrorPath   string    `json:"mirror_path"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	PublishedAt  time.Time `json:"published_at"`
}

// NewSnapshotPublished stamps the event with the package clock.
func NewSnapshotPublished(runID, snapshotPath, mirrorPath string, t Table) SnapshotPublished {
	return SnapshotPublished{
		RunID:        runID,
		SnapshotPath: snapshotPath,
		MirrorPath:   mirrorPath,
		Rows:         t.Len(),
		Columns:      len(t.Columns),
		PublishedAt:  clock.Now().UTC(),
	}
}
