package sqlstore

// Schema DDL per dialect. Statements are idempotent so Attach can run them
// against an existing database.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL CHECK (trim(name) <> ''),
    website TEXT NOT NULL DEFAULT '',
    headquarters TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`,
	`CREATE TABLE IF NOT EXISTS people (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL CHECK (trim(name) <> ''),
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    company_id INTEGER REFERENCES companies(id),
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`,
	`CREATE TABLE IF NOT EXISTS opportunities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL CHECK (trim(name) <> ''),
    amount TEXT NOT NULL DEFAULT '0',
    company_id INTEGER NOT NULL REFERENCES companies(id),
    close_date TEXT,
    status TEXT NOT NULL DEFAULT 'Qualified'
        CHECK (status IN ('Qualified', 'Proposal', 'Negotiation', 'Closed Won')),
    progress REAL CHECK (progress IS NULL OR (progress >= 0 AND progress <= 100)),
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`,
	`CREATE INDEX IF NOT EXISTS idx_people_company_id ON people (company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_company_id ON opportunities (company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities (status);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL CHECK (btrim(name) <> ''),
    website TEXT NOT NULL DEFAULT '',
    headquarters TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS people (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL CHECK (btrim(name) <> ''),
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    company_id BIGINT REFERENCES companies(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS opportunities (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL CHECK (btrim(name) <> ''),
    amount NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (amount >= 0),
    company_id BIGINT NOT NULL REFERENCES companies(id),
    close_date DATE,
    status TEXT NOT NULL DEFAULT 'Qualified'
        CHECK (status IN ('Qualified', 'Proposal', 'Negotiation', 'Closed Won')),
    progress DOUBLE PRECISION CHECK (progress IS NULL OR (progress >= 0 AND progress <= 100)),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	`CREATE INDEX IF NOT EXISTS idx_people_company_id ON people (company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_company_id ON opportunities (company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_status ON opportunities (status);`,
}
