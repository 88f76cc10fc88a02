package domain

import "time"

// SnapshotVersion tags the current snapshot schema. Bumped on breaking changes.
const SnapshotVersion = "1"

// Snapshot is a full, versioned export of every persisted table, used for
// backup and cross-deployment migration. Rows are verbatim so re-import is a
// structural identity operation.
type Snapshot struct {
	Version   string       `json:"version"`
	Timestamp time.Time    `json:"timestamp"`
	Data      SnapshotData `json:"data"`
}

// SnapshotData holds one array per table. A nil or empty section means
// "no changes for this table" on restore, never "clear this table".
type SnapshotData struct {
	Merchants       []Merchant       `json:"merchants"`
	Zones           []Zone           `json:"zones"`
	Abonos          []Abono          `json:"abonos"`
	ZoneAssignments []ZoneAssignment `json:"zone_assignments"`
}

// RestoreResult reports which table sections a restore applied. Restore is
// not transactional: on failure, Applied lists the tables already upserted.
type RestoreResult struct {
	Applied []string `json:"applied"`
	Skipped []string `json:"skipped"`
	Failed  string   `json:"failed,omitempty"`
}
