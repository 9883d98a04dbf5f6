package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// appName is the application name used for directories and display.
const appName = "docyard"

// envPrefix namespaces every environment variable the CLI reads.
const envPrefix = "DOCYARD_"

// envOr reads the DOCYARD_-prefixed environment variable name and falls back
// to fallback when it is unset or empty.
func envOr(name, fallback string) string {
	if v := os.Getenv(envPrefix + name); v != "" {
		return v
	}
	return fallback
}

// paths holds the on-disk layout every build and ingest command works with.
// All five live under one data directory unless overridden individually.
type paths struct {
	Index   string // mirrored registry index
	Work    string // per-build scratch space
	Sources string // synced source trees
	Logs    string // per-version build logs
	Docs    string // rendered documentation
}

// resolvePaths derives the directory layout from dataDir. An empty dataDir
// falls back to DOCYARD_DATA_DIR and then to the XDG data directory. The
// index location honors DOCYARD_INDEX_DIR so a registry mirror maintained
// elsewhere can be used without moving it.
func resolvePaths(dataDir string) (paths, error) {
	if dataDir == "" {
		dataDir = envOr("DATA_DIR", "")
	}
	if dataDir == "" {
		var err error
		if dataDir, err = defaultDataDir(); err != nil {
			return paths{}, err
		}
	}
	index := envOr("INDEX_DIR", filepath.Join(dataDir, "index"))
	return paths{
		Index:   index,
		Work:    filepath.Join(dataDir, "work"),
		Sources: filepath.Join(dataDir, "sources"),
		Logs:    filepath.Join(dataDir, "logs"),
		Docs:    filepath.Join(dataDir, "docs"),
	}, nil
}

// dataDirFlag reads the persistent --data-dir flag from any command in the
// tree. Commands without the flag (none today) resolve to "".
func dataDirFlag(cmd *cobra.Command) string {
	if f := cmd.Flag("data-dir"); f != nil {
		return f.Value.String()
	}
	return ""
}

// defaultDataDir returns the data directory using XDG standard
// (~/.local/share/docyard/).
func defaultDataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/docyard/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
