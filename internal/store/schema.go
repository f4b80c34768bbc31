package store

// Schema is applied on every open. Both tables are keyed by a single text
// column so writes are plain upserts.
const Schema = `
CREATE TABLE IF NOT EXISTS songs (
	file_path    TEXT PRIMARY KEY,
	title        TEXT NOT NULL DEFAULT '',
	artist       TEXT NOT NULL DEFAULT '',
	album        TEXT NOT NULL DEFAULT '',
	year         TEXT NOT NULL DEFAULT '',
	genre        TEXT NOT NULL DEFAULT '',
	track_number TEXT NOT NULL DEFAULT '',
	duration     INTEGER NOT NULL DEFAULT 0,
	file_type    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS notes (
	track_identifier TEXT PRIMARY KEY,
	json_notes       TEXT NOT NULL DEFAULT '{}'
);
`
