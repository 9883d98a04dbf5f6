package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/docyard/docyard/pkg/errors"
)

// configFile is the registry configuration file present at the index root.
// It is metadata about the index itself, not a package record, so lookups
// and walks never consider it.
const configFile = "config.json"

// Dep is one dependency entry from an index line: the dependency's package
// name and its declared version requirement.
type Dep struct {
	Name string
	Req  string
}

// Record is the parsed index entry for a single package: its name and every
// published version, newest first. Index files append one JSON line per
// publish, so reversing the on-disk order puts the latest version at index 0.
type Record struct {
	Name     string
	Versions []string

	deps map[string][]Dep
}

// Find locates the index file for a package by walking the index tree
// depth-first. A file matches when its base name equals name exactly.
// Anything whose path contains ".git" is skipped, as is the registry's
// config.json. Unreadable subdirectories are skipped rather than aborting
// the search. Returns an INDEX_FILE_NOT_FOUND error when no file matches.
func Find(name, root string) (string, error) {
	if path, ok := findIn(root, name); ok {
		return path, nil
	}
	return "", errors.New(errors.ErrCodeIndexFileNotFound, "no index file for %q under %s", name, root)
}

func findIn(dir, name string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if strings.Contains(path, ".git") {
			continue
		}
		if entry.IsDir() {
			if found, ok := findIn(path, name); ok {
				return found, true
			}
			continue
		}
		if entry.Name() == configFile {
			continue
		}
		if entry.Name() == name {
			return path, true
		}
	}
	return "", false
}

// Load parses an index file into a Record. Each non-empty line must be a
// JSON object with string fields "name" and "vers"; versions accumulate in
// file order and are then reversed so the newest version sits at index 0.
// An optional "deps" array per line is retained for [Record.Dependencies];
// malformed deps entries are dropped without failing the load.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read index file %s", path)
	}

	rec := &Record{deps: make(map[string][]Dep)}
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var parsed any
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexParse, err, "%s line %d", path, i+1)
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeIndexShape, "%s line %d: not a JSON object", path, i+1)
		}
		name, ok := obj["name"].(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeIndexShape, "%s line %d: missing name field", path, i+1)
		}
		vers, ok := obj["vers"].(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeIndexShape, "%s line %d: missing vers field", path, i+1)
		}

		rec.Name = name
		rec.Versions = append(rec.Versions, vers)
		if deps := parseDeps(obj["deps"]); len(deps) > 0 {
			rec.deps[vers] = deps
		}
	}

	slices.Reverse(rec.Versions)
	return rec, nil
}

func parseDeps(v any) []Dep {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	var deps []Dep
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, ok := obj["name"].(string)
		if !ok {
			continue
		}
		req, _ := obj["req"].(string)
		deps = append(deps, Dep{Name: name, Req: req})
	}
	return deps
}

// VersionIndex returns the position of an exact version string in
// r.Versions, or false when the version was never published.
func (r *Record) VersionIndex(version string) (int, bool) {
	for i, v := range r.Versions {
		if v == version {
			return i, true
		}
	}
	return 0, false
}

// VersionWithPrefix returns the position of the newest version matching a
// version requirement prefix. The wildcard "*" selects index 0 (the latest
// version). Matching is lexical, not semver-aware: the prefix "1.2" also
// matches "1.20.0" when that sorts newer.
func (r *Record) VersionWithPrefix(prefix string) (int, bool) {
	if len(r.Versions) == 0 {
		return 0, false
	}
	if prefix == "*" {
		return 0, true
	}
	for i, v := range r.Versions {
		if strings.HasPrefix(v, prefix) {
			return i, true
		}
	}
	return 0, false
}

// CanonicalName returns "{name}-{version}" for the version at position i.
// This is the directory and archive naming scheme used throughout the build
// tree. Panics if i is out of range.
func (r *Record) CanonicalName(i int) string {
	return r.Name + "-" + r.Versions[i]
}

// Dependencies returns the index deps entries recorded for an exact
// version, or nil when the line had none.
func (r *Record) Dependencies(version string) []Dep {
	return r.deps[version]
}

// Walk visits every package index file under root depth-first, applying the
// same skip rules as [Find] (".git" paths and config.json are ignored,
// unreadable subdirectories are skipped). A non-nil error from fn stops the
// walk and is returned.
func Walk(root string, fn func(path string) error) error {
	return walkIn(root, fn)
}

func walkIn(dir string, fn func(path string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if strings.Contains(path, ".git") {
			continue
		}
		if entry.IsDir() {
			if err := walkIn(path, fn); err != nil {
				return err
			}
			continue
		}
		if entry.Name() == configFile {
			continue
		}
		if err := fn(path); err != nil {
			return err
		}
	}
	return nil
}
