// Package storetest opens throwaway SQLite databases with the docyard
// schema for store, ingest and server tests.
package storetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/docyard/docyard/pkg/store"
	_ "github.com/mattn/go-sqlite3"
)

// schema mirrors the production tables with SQLite types. JSON columns
// become TEXT; SERIAL ids become rowid aliases.
const schema = `
CREATE TABLE crates (
	id INTEGER PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	versions TEXT DEFAULT '[]'
);
CREATE TABLE releases (
	id INTEGER PRIMARY KEY,
	crate_id INT NOT NULL,
	version TEXT,
	release_time TIMESTAMP,
	dependencies TEXT,
	yanked BOOL DEFAULT FALSE,
	build_status INT DEFAULT 0,
	rustdoc_status INT DEFAULT 0,
	test_status INT DEFAULT 0,
	license TEXT,
	repository_url TEXT,
	homepage_url TEXT,
	description TEXT,
	description_long TEXT,
	readme TEXT,
	authors TEXT,
	keywords TEXT,
	have_examples BOOL DEFAULT FALSE,
	downloads INT DEFAULT 0,
	UNIQUE (crate_id, version)
);
CREATE TABLE authors (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	slug TEXT UNIQUE NOT NULL
);
CREATE TABLE author_rels (
	rid INT,
	aid INT,
	UNIQUE (rid, aid)
);
CREATE TABLE keywords (
	id INTEGER PRIMARY KEY,
	name TEXT,
	slug TEXT NOT NULL UNIQUE
);
CREATE TABLE keyword_rels (
	rid INT,
	kid INT,
	UNIQUE (rid, kid)
);
CREATE TABLE owners (
	id INTEGER PRIMARY KEY,
	login TEXT NOT NULL UNIQUE,
	slug TEXT NOT NULL UNIQUE,
	avatar TEXT,
	name TEXT,
	email TEXT
);
CREATE TABLE owner_rels (
	cid INT,
	oid INT,
	UNIQUE (cid, oid)
);
`

// New opens a fresh file-backed SQLite database under t.TempDir, applies the
// schema, and returns a Store over it plus the raw handle for test-side
// inspection. The database is closed when the test finishes.
func New(t testing.TB) (*store.Store, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "docyard.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("apply test schema: %v", err)
	}
	return store.New(db), db
}
