package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Users must exist before groups because of the created_by foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    monthly_amount REAL NOT NULL,
    duration_cycles INTEGER NOT NULL,
    total_members INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_by TEXT NOT NULL,
    current_cycle INTEGER NOT NULL DEFAULT 0,
    payout_order TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (created_by) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS memberships (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    group_id TEXT NOT NULL,
    slot_number INTEGER NOT NULL,
    payout_month INTEGER NOT NULL,
    status TEXT NOT NULL,
    joined_at INTEGER NOT NULL,
    has_received_payout INTEGER NOT NULL DEFAULT 0,
    UNIQUE (group_id, slot_number),
    UNIQUE (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS cycle_payments (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    cycle_number INTEGER NOT NULL,
    amount REAL NOT NULL,
    status TEXT NOT NULL,
    paid_at INTEGER,
    created_at INTEGER NOT NULL,
    UNIQUE (group_id, user_id, cycle_number),
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_groups_status ON groups(status);
CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id);
CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id);
CREATE INDEX IF NOT EXISTS idx_cycle_payments_group_user ON cycle_payments(group_id, user_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
