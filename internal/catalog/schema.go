package catalog

// Schema DDL. Statements are idempotent so an existing catalog is reused.
const (
	createSnapshots = `CREATE TABLE IF NOT EXISTS snapshots (
    snapshot_id TEXT PRIMARY KEY,
    manifest TEXT NOT NULL,
    type_count INTEGER NOT NULL,
    entry_count INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createEntries = `CREATE TABLE IF NOT EXISTS castable_entries (
    snapshot_id TEXT NOT NULL,
    type_name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    interface TEXT NOT NULL,
    markers INTEGER NOT NULL,
    concrete INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, type_name, ordinal),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(snapshot_id) ON DELETE CASCADE
);`
)

// Index DDL for history and per-type queries.
const (
	idxSnapshotsCreated = `CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);`
	idxEntriesType      = `CREATE INDEX IF NOT EXISTS idx_castable_entries_type ON castable_entries(type_name);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createSnapshots,
	createEntries,
	idxSnapshotsCreated,
	idxEntriesType,
}
