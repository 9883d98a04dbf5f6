package builder_test

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docyard/docyard/pkg/core/builder"
	"github.com/docyard/docyard/pkg/errors"
	"github.com/docyard/docyard/pkg/integrations/registry"
	"github.com/docyard/docyard/pkg/store/storetest"
)

// writeCrate writes a gzipped tarball containing the given files.
func writeCrate(path string, files map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// fakeFetcher serves crafted archives from memory, keyed "{name}-{version}".
type fakeFetcher struct {
	archives map[string]map[string]string
	calls    []string
}

func (f *fakeFetcher) FetchArchive(_ context.Context, name, version, destDir string) (string, error) {
	key := name + "-" + version
	files, ok := f.archives[key]
	if !ok {
		return "", errors.New(errors.ErrCodeFetch, "no archive for %s", key)
	}
	f.calls = append(f.calls, key)
	path := filepath.Join(destDir, key+".crate")
	if err := writeCrate(path, files); err != nil {
		return "", err
	}
	return path, nil
}

// docRunner pretends to be the documentation tool: on success it drops the
// given files (keyed by slash-relative path) into the package directory.
type docRunner struct {
	output   string
	err      error
	docFiles map[string]string
	dirs     []string
}

func (r *docRunner) Run(_ context.Context, dir, _ string, _ ...string) (string, error) {
	r.dirs = append(r.dirs, dir)
	if r.err != nil {
		return r.output, r.err
	}
	for rel, content := range r.docFiles {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return r.output, r.err
}

type fakeUploader struct {
	dirs     []string
	prefixes []string
}

func (u *fakeUploader) UploadDir(_ context.Context, dir, prefix string) error {
	u.dirs = append(u.dirs, dir)
	u.prefixes = append(u.prefixes, prefix)
	return nil
}

type fakeRegistry struct{}

func (fakeRegistry) Versions(context.Context, string) ([]registry.VersionMeta, error) {
	return nil, nil
}

func (fakeRegistry) Owners(context.Context, string) ([]registry.Owner, error) {
	return nil, nil
}

// env bundles the directory layout every builder test needs.
type env struct {
	index, work, sources, logs, dest string
}

func newEnv(t *testing.T) env {
	t.Helper()
	return env{
		index:   t.TempDir(),
		work:    t.TempDir(),
		sources: t.TempDir(),
		logs:    t.TempDir(),
		dest:    t.TempDir(),
	}
}

func (e env) options() builder.Options {
	return builder.Options{
		IndexDir:       e.index,
		WorkDir:        e.work,
		SourcesDir:     e.sources,
		LogsDir:        e.logs,
		DestinationDir: e.dest,
	}
}

// writeIndex writes a package's index file, one JSON line per version in
// publish order.
func (e env) writeIndex(t *testing.T, name string, versions ...string) {
	t.Helper()
	var b strings.Builder
	for _, v := range versions {
		b.WriteString(`{"name":"` + name + `","vers":"` + v + `"}` + "\n")
	}
	if err := os.WriteFile(filepath.Join(e.index, name), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func crateFiles(name, version string) map[string]string {
	prefix := name + "-" + version + "/"
	return map[string]string{
		prefix + "Cargo.toml": "[package]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n",
		prefix + "src/lib.rs": "//! Docs for " + name + ".\n",
	}
}

func TestBuildPackage(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "demo", "1.0.0")
	fetcher := &fakeFetcher{archives: map[string]map[string]string{
		"demo-1.0.0": crateFiles("demo", "1.0.0"),
	}}
	runner := &docRunner{
		output: "Documenting demo v1.0.0\nFinished\n",
		docFiles: map[string]string{
			"target/doc/index.html":      "<html>root</html>",
			"target/doc/demo/index.html": "<html>demo</html>",
		},
	}
	opts := e.options()
	opts.Fetcher = fetcher
	opts.Runner = runner

	// An empty version selects the latest release.
	if err := builder.New(opts).BuildPackage(context.Background(), "demo", ""); err != nil {
		t.Fatalf("BuildPackage() error = %v", err)
	}

	logBytes, err := os.ReadFile(filepath.Join(e.logs, "demo", "demo-1.0.0.log"))
	if err != nil {
		t.Fatalf("build log missing: %v", err)
	}
	if string(logBytes) != runner.output {
		t.Errorf("log = %q, want the captured tool output", logBytes)
	}
	for _, rel := range []string{"index.html", filepath.Join("demo", "index.html")} {
		if _, err := os.Stat(filepath.Join(e.dest, "demo", "1.0.0", rel)); err != nil {
			t.Errorf("documentation file %s not copied: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(e.sources, "demo", "1.0.0", "Cargo.toml")); err != nil {
		t.Errorf("sources not synced: %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.sources, "demo", "1.0.0", "target")); !os.IsNotExist(err) {
		t.Error("synced sources should not include the target/ build directory")
	}
}

func TestBuildPackageWritesLogOnFailure(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "demo", "1.0.0")
	fetcher := &fakeFetcher{archives: map[string]map[string]string{
		"demo-1.0.0": crateFiles("demo", "1.0.0"),
	}}
	runner := &docRunner{output: "error[E0433]: failed to resolve\n", err: os.ErrPermission}
	opts := e.options()
	opts.Fetcher = fetcher
	opts.Runner = runner

	err := builder.New(opts).BuildPackage(context.Background(), "demo", "1.0.0")
	if !errors.Is(err, errors.ErrCodeCommand) {
		t.Fatalf("BuildPackage() error = %v, want code %s", err, errors.ErrCodeCommand)
	}
	logBytes, readErr := os.ReadFile(filepath.Join(e.logs, "demo", "demo-1.0.0.log"))
	if readErr != nil {
		t.Fatalf("failed build should still write its log: %v", readErr)
	}
	if !strings.Contains(string(logBytes), "error[E0433]") {
		t.Errorf("log = %q, want the captured tool output", logBytes)
	}
	if !strings.Contains(string(logBytes), "error: ") {
		t.Errorf("log = %q, want the failure reason appended", logBytes)
	}
	if _, err := os.Stat(filepath.Join(e.dest, "demo", "1.0.0")); !os.IsNotExist(err) {
		t.Error("failed build must not publish documentation")
	}
}

func TestBuildPackageVersionPrefix(t *testing.T) {
	e := newEnv(t)
	// Published 1.2.3 first, then 1.20.0; the prefix "1.2" resolves to the
	// newest lexical match, 1.20.0.
	e.writeIndex(t, "demo", "1.2.3", "1.20.0")
	fetcher := &fakeFetcher{archives: map[string]map[string]string{
		"demo-1.20.0": crateFiles("demo", "1.20.0"),
	}}
	opts := e.options()
	opts.Fetcher = fetcher
	opts.Runner = &docRunner{docFiles: map[string]string{"target/doc/index.html": "x"}}

	if err := builder.New(opts).BuildPackage(context.Background(), "demo", "1.2"); err != nil {
		t.Fatalf("BuildPackage() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(e.logs, "demo", "demo-1.20.0.log")); err != nil {
		t.Errorf("expected a 1.20.0 build, log missing: %v", err)
	}
}

func TestBuildPackageUnknownVersion(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "demo", "1.0.0")
	opts := e.options()
	opts.Fetcher = &fakeFetcher{}
	opts.Runner = &docRunner{}

	err := builder.New(opts).BuildPackage(context.Background(), "demo", "9")
	if !errors.Is(err, errors.ErrCodeVersionNotFound) {
		t.Fatalf("BuildPackage() error = %v, want code %s", err, errors.ErrCodeVersionNotFound)
	}
}

func TestBuildPackageSkipExisting(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "demo", "1.0.0")
	if err := os.MkdirAll(filepath.Join(e.dest, "demo", "1.0.0"), 0o755); err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{} // would fail if a fetch were attempted
	runner := &docRunner{}
	opts := e.options()
	opts.Fetcher = fetcher
	opts.Runner = runner
	opts.SkipExisting = true

	if err := builder.New(opts).BuildPackage(context.Background(), "demo", "1.0.0"); err != nil {
		t.Fatalf("BuildPackage() error = %v", err)
	}
	if len(runner.dirs) != 0 {
		t.Error("skipped build should not invoke the build tool")
	}
	if len(fetcher.calls) != 0 {
		t.Error("skipped build should not fetch the archive")
	}
}

func TestBuildPackageUploads(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "demo", "1.0.0")
	uploader := &fakeUploader{}
	opts := e.options()
	opts.Fetcher = &fakeFetcher{archives: map[string]map[string]string{
		"demo-1.0.0": crateFiles("demo", "1.0.0"),
	}}
	opts.Runner = &docRunner{docFiles: map[string]string{"target/doc/index.html": "x"}}
	opts.Uploader = uploader

	if err := builder.New(opts).BuildPackage(context.Background(), "demo", "1.0.0"); err != nil {
		t.Fatalf("BuildPackage() error = %v", err)
	}
	if len(uploader.dirs) != 1 || uploader.dirs[0] != filepath.Join(e.dest, "demo", "1.0.0") {
		t.Errorf("uploaded dirs = %v, want the destination subtree", uploader.dirs)
	}
	if len(uploader.prefixes) != 1 || uploader.prefixes[0] != "demo/1.0.0" {
		t.Errorf("upload prefixes = %v, want [demo/1.0.0]", uploader.prefixes)
	}
}

func TestBuildWorld(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "good", "1.0.0")
	e.writeIndex(t, "bad", "2.0.0") // no archive: the fetch fails
	opts := e.options()
	opts.Fetcher = &fakeFetcher{archives: map[string]map[string]string{
		"good-1.0.0": crateFiles("good", "1.0.0"),
	}}
	opts.Runner = &docRunner{docFiles: map[string]string{"target/doc/index.html": "x"}}

	built, failed, err := builder.New(opts).BuildWorld(context.Background())
	if err != nil {
		t.Fatalf("BuildWorld() error = %v", err)
	}
	if built != 1 || failed != 1 {
		t.Errorf("counts = (%d built, %d failed), want (1, 1)", built, failed)
	}
	if _, err := os.Stat(filepath.Join(e.dest, "good", "1.0.0", "index.html")); err != nil {
		t.Errorf("good package not documented: %v", err)
	}
	logBytes, err := os.ReadFile(filepath.Join(e.logs, "bad", "bad-2.0.0.log"))
	if err != nil {
		t.Fatalf("failed package should still get a log: %v", err)
	}
	if !strings.Contains(string(logBytes), "error: ") {
		t.Errorf("log = %q, want the failure recorded", logBytes)
	}
	if _, err := os.Stat(filepath.Join(e.dest, "bad", "2.0.0")); !os.IsNotExist(err) {
		t.Error("failed package must not publish documentation")
	}
}

func TestBuildWorldIngests(t *testing.T) {
	e := newEnv(t)
	e.writeIndex(t, "good", "1.0.0")
	st, db := storetest.New(t)
	opts := e.options()
	opts.Fetcher = &fakeFetcher{archives: map[string]map[string]string{
		"good-1.0.0": crateFiles("good", "1.0.0"),
	}}
	opts.Runner = &docRunner{docFiles: map[string]string{
		"target/doc/index.html":      "x",
		"target/doc/good/index.html": "y",
	}}
	opts.Registry = fakeRegistry{}
	opts.Store = st

	if _, _, err := builder.New(opts).BuildWorld(context.Background()); err != nil {
		t.Fatalf("BuildWorld() error = %v", err)
	}

	rel, err := st.GetRelease(context.Background(), "good", "1.0.0")
	if err != nil {
		t.Fatalf("GetRelease() error = %v", err)
	}
	if rel.BuildStatus != 1 {
		t.Errorf("BuildStatus = %d, want 1 (log and documentation both present)", rel.BuildStatus)
	}
	if rel.RustdocStatus != 1 {
		t.Errorf("RustdocStatus = %d, want 1 (target subtree present)", rel.RustdocStatus)
	}
	crate, err := st.GetCrate(context.Background(), "good")
	if err != nil {
		t.Fatalf("GetCrate() error = %v", err)
	}
	if len(crate.Versions) != 1 || crate.Versions[0] != "1.0.0" {
		t.Errorf("Versions = %v, want [1.0.0]", crate.Versions)
	}

	var crateRows int
	if err := db.QueryRow(`SELECT count(*) FROM crates`).Scan(&crateRows); err != nil {
		t.Fatal(err)
	}
	if crateRows != 1 {
		t.Errorf("crates rows = %d, want 1", crateRows)
	}
}
