package store

const schema = `
CREATE TABLE IF NOT EXISTS applications (
    name TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    origin TEXT NOT NULL,
    icon_hint TEXT NOT NULL DEFAULT '',
    usage_count INTEGER NOT NULL DEFAULT 0,
    scan_time INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_scan_time ON applications(scan_time);
CREATE INDEX IF NOT EXISTS idx_applications_origin ON applications(origin);
`
