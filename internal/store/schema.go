package store

const schemaVersion = 3

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS folders (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	name TEXT NOT NULL,
	parent_id TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS folders_by_owner_parent ON folders(owner, parent_id);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	title TEXT NOT NULL,
	title_fold TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	folder_id TEXT,
	hash TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS notes_by_owner_updated ON notes(owner, updated_at);
CREATE INDEX IF NOT EXISTS notes_by_owner_title ON notes(owner, title_fold);
CREATE INDEX IF NOT EXISTS notes_by_owner_folder ON notes(owner, folder_id);

CREATE TABLE IF NOT EXISTS links (
	id INTEGER PRIMARY KEY,
	owner TEXT NOT NULL,
	from_note_id TEXT NOT NULL,
	to_ref TEXT NOT NULL,
	to_fold TEXT NOT NULL,
	line_no INTEGER NOT NULL,
	line TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS links_by_target ON links(owner, to_fold);
CREATE INDEX IF NOT EXISTS links_by_source ON links(from_note_id);

CREATE VIRTUAL TABLE IF NOT EXISTS fts USING fts5(
	note_id UNINDEXED,
	owner UNINDEXED,
	title,
	body
);
`
