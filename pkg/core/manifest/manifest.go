package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/docyard/docyard/pkg/errors"
)

// Info is the manifest-derived metadata for one extracted package version.
//
// Optional text fields are pointers so the store can distinguish "absent"
// (NULL) from "present but empty".
type Info struct {
	Name         string
	TargetName   string // primary build target; names the rustdoc output subdirectory
	Version      string
	Dependencies []Dependency // sorted by name
	Rustdoc      *string      // module doc text extracted from the primary target source
	Readme       *string      // contents of the file named by package.readme
	License      *string
	Repository   *string
	Homepage     *string
	Description  *string
	Authors      []string
	Keywords     []string
	HaveExamples bool // whether the package ships an examples/ directory
}

// Dependency is one declared dependency: name and version requirement as
// written in the manifest. Entries without a version requirement carry "*".
type Dependency struct {
	Name string
	Req  string
}

// LocalDep is a [dependencies] entry that declares a local path. The stager
// only acts on entries that also declare a version; path-only entries are
// reported so callers can see them, but stay untouched.
type LocalDep struct {
	Name    string
	Version string // "" when the entry declares no version requirement
	Path    string // relative directory where the package expects the dependency
}

// Load reads {dir}/Cargo.toml and assembles the package metadata, module
// doc text, and readme for the extracted package rooted at dir.
//
// Manifest open/parse failures and missing required fields return MANIFEST
// errors; failures reading a declared readme or target source file return
// FILESYSTEM errors.
func Load(dir string) (*Info, error) {
	m, err := read(dir)
	if err != nil {
		return nil, err
	}
	if m.Package.Name == "" {
		return nil, errors.New(errors.ErrCodeManifest, "%s: package name missing", dir)
	}
	if m.Package.Version == "" {
		return nil, errors.New(errors.ErrCodeManifest, "%s: package version missing", dir)
	}

	info := &Info{
		Name:         m.Package.Name,
		TargetName:   targetName(m, dir),
		Version:      m.Package.Version,
		Dependencies: declaredDeps(m),
		License:      m.Package.License,
		Repository:   m.Package.Repository,
		Homepage:     m.Package.Homepage,
		Description:  m.Package.Description,
		Authors:      m.Package.Authors,
		Keywords:     m.Package.Keywords,
	}

	if src := docSource(m, dir); src != "" {
		doc, err := readModuleDoc(src)
		if err != nil {
			return nil, err
		}
		info.Rustdoc = doc
	}

	if m.Package.Readme != nil {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(*m.Package.Readme)))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read readme for %s", m.Package.Name)
		}
		readme := string(data)
		info.Readme = &readme
	}

	if fi, err := os.Stat(filepath.Join(dir, "examples")); err == nil && fi.IsDir() {
		info.HaveExamples = true
	}

	return info, nil
}

// LocalDependencies returns the [dependencies] entries of {dir}/Cargo.toml
// that declare a local path, sorted by name. Only the [dependencies] table
// is considered: dev and build dependencies are never staged.
func LocalDependencies(dir string) ([]LocalDep, error) {
	m, err := read(dir)
	if err != nil {
		return nil, err
	}

	var deps []LocalDep
	for name, value := range m.Dependencies {
		detail, ok := value.(map[string]any)
		if !ok {
			continue
		}
		path, ok := detail["path"].(string)
		if !ok || path == "" {
			continue
		}
		version, _ := detail["version"].(string)
		deps = append(deps, LocalDep{Name: name, Version: version, Path: path})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}

func read(dir string) (*cargoManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifest, err, "read manifest in %s", dir)
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifest, err, "parse manifest in %s", dir)
	}
	return &m, nil
}

func declaredDeps(m *cargoManifest) []Dependency {
	var deps []Dependency
	for _, table := range []map[string]any{m.Dependencies, m.DevDependencies, m.BuildDependencies} {
		for name, value := range table {
			deps = append(deps, Dependency{Name: name, Req: requirement(value)})
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}

// requirement extracts the version requirement string from a dependency
// value, which is either a bare string ("1.0") or a detail table that may
// carry a "version" key. Entries without one match any version.
func requirement(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if version, ok := v["version"].(string); ok && version != "" {
			return version
		}
	}
	return "*"
}

// targetName mirrors the build tool's target layout rules: an explicit
// [lib] name wins; a library target otherwise takes the package name with
// hyphens mapped to underscores; packages without a library keep their
// first binary's name, falling back to the package name.
func targetName(m *cargoManifest, dir string) string {
	if m.Lib != nil && m.Lib.Name != nil {
		return *m.Lib.Name
	}
	if m.Lib != nil || fileExists(filepath.Join(dir, "src", "lib.rs")) {
		return strings.ReplaceAll(m.Package.Name, "-", "_")
	}
	if len(m.Bin) > 0 && m.Bin[0].Name != nil {
		return *m.Bin[0].Name
	}
	return m.Package.Name
}

// docSource resolves the source file of the primary target, the file whose
// leading "//!" lines become the long description.
func docSource(m *cargoManifest, dir string) string {
	if m.Lib != nil && m.Lib.Path != nil {
		return filepath.Join(dir, filepath.FromSlash(*m.Lib.Path))
	}
	if p := filepath.Join(dir, "src", "lib.rs"); fileExists(p) {
		return p
	}
	if len(m.Bin) > 0 && m.Bin[0].Path != nil {
		return filepath.Join(dir, filepath.FromSlash(*m.Bin[0].Path))
	}
	if p := filepath.Join(dir, "src", "main.rs"); fileExists(p) {
		return p
	}
	return ""
}

// readModuleDoc collects the module doc comment: every line starting with
// "//!" contributes its text after the comment marker and following space,
// plus a newline. Bare "//!" lines contribute just the newline, preserving
// paragraph breaks. Returns nil when the file has no module doc at all.
func readModuleDoc(path string) (*string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read target source %s", path)
	}
	defer f.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "//!") {
			continue
		}
		if len(line) > 3 {
			b.WriteString(line[4:])
		}
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read target source %s", path)
	}

	if b.Len() == 0 {
		return nil, nil
	}
	doc := b.String()
	return &doc, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type cargoManifest struct {
	Package struct {
		Name        string   `toml:"name"`
		Version     string   `toml:"version"`
		License     *string  `toml:"license"`
		Repository  *string  `toml:"repository"`
		Homepage    *string  `toml:"homepage"`
		Description *string  `toml:"description"`
		Readme      *string  `toml:"readme"`
		Authors     []string `toml:"authors"`
		Keywords    []string `toml:"keywords"`
	} `toml:"package"`
	Lib *struct {
		Name *string `toml:"name"`
		Path *string `toml:"path"`
	} `toml:"lib"`
	Bin []struct {
		Name *string `toml:"name"`
		Path *string `toml:"path"`
	} `toml:"bin"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}
