package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/docyard/docyard/pkg/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps a relational database holding crate and release metadata.
type Store struct {
	db *sql.DB
}

// Open connects to a PostgreSQL database through the pgx stdlib driver and
// verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "open database")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "ping database")
	}
	return &Store{db: db}, nil
}

// New wraps an already-open database handle. The caller keeps ownership of
// the handle; tests use this with a SQLite database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "ping database")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// GetCrate looks up a crate by name. Returns [ErrNotFound] if the crate has
// never been ingested.
func (s *Store) GetCrate(ctx context.Context, name string) (*Crate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, versions FROM crates WHERE name = $1`, name)

	var c Crate
	var versions sql.NullString
	err := row.Scan(&c.ID, &c.Name, &versions)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "select crate %s", name)
	}
	if versions.Valid {
		// A malformed stored list reads as empty rather than failing the call.
		if err := json.Unmarshal([]byte(versions.String), &c.Versions); err != nil {
			c.Versions = nil
		}
	}
	return &c, nil
}

const releaseColumns = `r.id, r.crate_id, r.version, r.release_time, r.dependencies,
	r.yanked, r.build_status, r.rustdoc_status, r.test_status, r.license,
	r.repository_url, r.homepage_url, r.description, r.description_long,
	r.readme, r.authors, r.keywords, r.have_examples, r.downloads`

// GetRelease looks up one release by crate name and exact version string.
// Returns [ErrNotFound] if either is unknown.
func (s *Store) GetRelease(ctx context.Context, name, version string) (*Release, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+releaseColumns+`
		FROM releases r JOIN crates c ON c.id = r.crate_id
		WHERE c.name = $1 AND r.version = $2`, name, version)

	rel, err := scanRelease(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "select release %s of %s", version, name)
	}
	return rel, nil
}

func scanRelease(row rowScanner) (*Release, error) {
	var r Release
	var (
		releaseTime            sql.NullTime
		deps, authors, keyws   sql.NullString
		yanked                 sql.NullBool
		license, repo, home    sql.NullString
		descr, descrLong, rdme sql.NullString
		downloads              sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.CrateID, &r.Version, &releaseTime, &deps,
		&yanked, &r.BuildStatus, &r.RustdocStatus, &r.TestStatus, &license,
		&repo, &home, &descr, &descrLong,
		&rdme, &authors, &keyws, &r.HaveExamples, &downloads)
	if err != nil {
		return nil, err
	}
	if releaseTime.Valid {
		t := releaseTime.Time
		r.ReleaseTime = &t
	}
	if deps.Valid {
		if err := json.Unmarshal([]byte(deps.String), &r.Dependencies); err != nil {
			r.Dependencies = nil
		}
	}
	if yanked.Valid {
		r.Yanked = &yanked.Bool
	}
	r.License = nullable(license)
	r.Repository = nullable(repo)
	r.Homepage = nullable(home)
	r.Description = nullable(descr)
	r.DescriptionLong = nullable(descrLong)
	r.Readme = nullable(rdme)
	if authors.Valid {
		if err := json.Unmarshal([]byte(authors.String), &r.Authors); err != nil {
			r.Authors = nil
		}
	}
	if keyws.Valid {
		if err := json.Unmarshal([]byte(keyws.String), &r.Keywords); err != nil {
			r.Keywords = nil
		}
	}
	if downloads.Valid {
		d := int(downloads.Int64)
		r.Downloads = &d
	}
	return &r, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// RecentReleases returns the limit most recently ingested releases across
// all crates, newest first.
func (s *Store) RecentReleases(ctx context.Context, limit int) ([]RecentRelease, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.name, r.version, r.release_time, r.build_status
		FROM releases r JOIN crates c ON c.id = r.crate_id
		ORDER BY r.id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list recent releases")
	}
	defer rows.Close()

	var out []RecentRelease
	for rows.Next() {
		var rr RecentRelease
		var releaseTime sql.NullTime
		if err := rows.Scan(&rr.Crate, &rr.Version, &releaseTime, &rr.BuildStatus); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "scan recent release")
		}
		if releaseTime.Valid {
			t := releaseTime.Time
			rr.ReleaseTime = &t
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list recent releases")
	}
	return out, nil
}

// ListReleases returns summaries of every release of a crate, most recently
// ingested first.
func (s *Store) ListReleases(ctx context.Context, crateID int64) ([]ReleaseSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, release_time, build_status, rustdoc_status, yanked, downloads
		FROM releases WHERE crate_id = $1 ORDER BY id DESC`, crateID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list releases of crate %d", crateID)
	}
	defer rows.Close()

	var out []ReleaseSummary
	for rows.Next() {
		var rs ReleaseSummary
		var releaseTime sql.NullTime
		var yanked sql.NullBool
		var downloads sql.NullInt64
		if err := rows.Scan(&rs.Version, &releaseTime, &rs.BuildStatus, &rs.RustdocStatus, &yanked, &downloads); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDatabase, err, "scan release of crate %d", crateID)
		}
		if releaseTime.Valid {
			t := releaseTime.Time
			rs.ReleaseTime = &t
		}
		if yanked.Valid {
			rs.Yanked = &yanked.Bool
		}
		if downloads.Valid {
			d := int(downloads.Int64)
			rs.Downloads = &d
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, err, "list releases of crate %d", crateID)
	}
	return out, nil
}
