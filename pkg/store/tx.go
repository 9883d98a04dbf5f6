package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/docyard/docyard/pkg/errors"
)

// Tx exposes the write operations of one ingestion transaction. All methods
// run on the same database transaction; an error from any of them should
// abort the enclosing WithTx call.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single database transaction, committing when fn
// returns nil and rolling back otherwise. Errors returned by fn pass through
// unchanged.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "commit transaction")
	}
	return nil
}

// EnsureCrate returns the id of the crate row with the given name, inserting
// the row if it does not exist yet.
func (t *Tx) EnsureCrate(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM crates WHERE name = $1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		err = t.tx.QueryRowContext(ctx,
			`INSERT INTO crates (name) VALUES ($1) RETURNING id`, name).Scan(&id)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeDatabase, err, "insert crate %s", name)
		}
		return id, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDatabase, err, "select crate %s", name)
	}
	return id, nil
}

// UpsertRelease inserts the release row keyed by (r.CrateID, r.Version), or
// updates every mutable column in place when the row already exists. Either
// way it returns the release id.
func (t *Tx) UpsertRelease(ctx context.Context, r *Release) (int64, error) {
	deps := r.Dependencies
	if deps == nil {
		deps = [][2]string{}
	}
	authors := r.Authors
	if authors == nil {
		authors = []string{}
	}
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	depsJSON, err := jsonBlob(deps)
	if err != nil {
		return 0, err
	}
	authorsJSON, err := jsonBlob(authors)
	if err != nil {
		return 0, err
	}
	keywordsJSON, err := jsonBlob(keywords)
	if err != nil {
		return 0, err
	}

	var id int64
	err = t.tx.QueryRowContext(ctx,
		`SELECT id FROM releases WHERE crate_id = $1 AND version = $2`,
		r.CrateID, r.Version).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		err = t.tx.QueryRowContext(ctx,
			`INSERT INTO releases (
				crate_id, version, release_time, dependencies, yanked,
				build_status, rustdoc_status, test_status, license,
				repository_url, homepage_url, description, description_long,
				readme, authors, keywords, have_examples, downloads
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9,
				$10, $11, $12, $13, $14, $15, $16, $17, $18
			) RETURNING id`,
			r.CrateID, r.Version, r.ReleaseTime, depsJSON, r.Yanked,
			r.BuildStatus, r.RustdocStatus, r.TestStatus, r.License,
			r.Repository, r.Homepage, r.Description, r.DescriptionLong,
			r.Readme, authorsJSON, keywordsJSON, r.HaveExamples, r.Downloads).Scan(&id)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeDatabase, err, "insert release %s", r.Version)
		}
	case err != nil:
		return 0, errors.Wrap(errors.ErrCodeDatabase, err, "select release %s", r.Version)
	default:
		_, err = t.tx.ExecContext(ctx,
			`UPDATE releases SET
				release_time = $1, dependencies = $2, yanked = $3,
				build_status = $4, rustdoc_status = $5, test_status = $6,
				license = $7, repository_url = $8, homepage_url = $9,
				description = $10, description_long = $11, readme = $12,
				authors = $13, keywords = $14, have_examples = $15, downloads = $16
			WHERE crate_id = $17 AND version = $18`,
			r.ReleaseTime, depsJSON, r.Yanked,
			r.BuildStatus, r.RustdocStatus, r.TestStatus,
			r.License, r.Repository, r.Homepage,
			r.Description, r.DescriptionLong, r.Readme,
			authorsJSON, keywordsJSON, r.HaveExamples, r.Downloads,
			r.CrateID, r.Version)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeDatabase, err, "update release %s", r.Version)
		}
	}
	return id, nil
}

// EnsureKeyword returns the id of the keyword row with the given slug,
// inserting (name, slug) if absent. The display name of an existing row is
// left as first seen.
func (t *Tx) EnsureKeyword(ctx context.Context, name, slug string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM keywords WHERE slug = $1`, slug).Scan(&id)
	if err == sql.ErrNoRows {
		err = t.tx.QueryRowContext(ctx,
			`INSERT INTO keywords (name, slug) VALUES ($1, $2) RETURNING id`,
			name, slug).Scan(&id)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeDatabase, err, "insert keyword %s", slug)
		}
		return id, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDatabase, err, "select keyword %s", slug)
	}
	return id, nil
}

// LinkKeyword records that a release carries a keyword. Inserting the same
// pair twice is a no-op, enforced by the pair's uniqueness constraint.
func (t *Tx) LinkKeyword(ctx context.Context, releaseID, keywordID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO keyword_rels (rid, kid) VALUES ($1, $2)
		ON CONFLICT (rid, kid) DO NOTHING`, releaseID, keywordID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "link keyword %d", keywordID)
	}
	return nil
}

// EnsureAuthor returns the id of the author row with the given slug,
// inserting (name, email, slug) if absent.
func (t *Tx) EnsureAuthor(ctx context.Context, name, email, slug string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM authors WHERE slug = $1`, slug).Scan(&id)
	if err == sql.ErrNoRows {
		err = t.tx.QueryRowContext(ctx,
			`INSERT INTO authors (name, email, slug) VALUES ($1, $2, $3) RETURNING id`,
			name, email, slug).Scan(&id)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeDatabase, err, "insert author %s", slug)
		}
		return id, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDatabase, err, "select author %s", slug)
	}
	return id, nil
}

// LinkAuthor records that a release was authored by an author, tolerating
// duplicates like [Tx.LinkKeyword].
func (t *Tx) LinkAuthor(ctx context.Context, releaseID, authorID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO author_rels (rid, aid) VALUES ($1, $2)
		ON CONFLICT (rid, aid) DO NOTHING`, releaseID, authorID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "link author %d", authorID)
	}
	return nil
}

// EnsureOwner returns the id of the owner row with o.Login, inserting the
// full owner if absent. Fields of an existing owner are not refreshed.
func (t *Tx) EnsureOwner(ctx context.Context, o Owner) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT id FROM owners WHERE login = $1`, o.Login).Scan(&id)
	if err == sql.ErrNoRows {
		err = t.tx.QueryRowContext(ctx,
			`INSERT INTO owners (login, slug, avatar, name, email)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			o.Login, o.Slug, o.Avatar, o.Name, o.Email).Scan(&id)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeDatabase, err, "insert owner %s", o.Login)
		}
		return id, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDatabase, err, "select owner %s", o.Login)
	}
	return id, nil
}

// LinkOwner records that a crate is owned by an owner, tolerating duplicates
// like [Tx.LinkKeyword].
func (t *Tx) LinkOwner(ctx context.Context, crateID, ownerID int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO owner_rels (cid, oid) VALUES ($1, $2)
		ON CONFLICT (cid, oid) DO NOTHING`, crateID, ownerID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "link owner %d", ownerID)
	}
	return nil
}

// AppendVersion appends version to the crate's stored version list if it is
// not already present. The list keeps first-seen order. A stored value that
// is not a list of strings is left untouched.
func (t *Tx) AppendVersion(ctx context.Context, crateID int64, version string) error {
	var raw sql.NullString
	err := t.tx.QueryRowContext(ctx,
		`SELECT versions FROM crates WHERE id = $1`, crateID).Scan(&raw)
	if err == sql.ErrNoRows {
		return errors.New(errors.ErrCodeDatabase, "crate %d not found", crateID)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "select versions of crate %d", crateID)
	}
	if !raw.Valid {
		return nil
	}

	var list []any
	if err := json.Unmarshal([]byte(raw.String), &list); err != nil {
		return nil
	}
	for _, v := range list {
		if s, ok := v.(string); ok && s == version {
			return nil
		}
	}
	list = append(list, version)

	blob, err := jsonBlob(list)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx,
		`UPDATE crates SET versions = $1 WHERE id = $2`, blob, crateID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, err, "update versions of crate %d", crateID)
	}
	return nil
}

func jsonBlob(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeEncoding, err, "encode %T", v)
	}
	return string(b), nil
}
