// Package archive extracts the gzip-compressed tar archives served by the
// artifact store. Extraction is in-process (archive/tar, compress/gzip)
// rather than shelling out, so every failure carries a typed error and no
// external tool is required.
//
// Archives are expected to unpack under a single "{name}-{version}/" root
// directory, but the extractor does not enforce that: it only refuses
// entries that would escape the destination directory.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/docyard/docyard/pkg/errors"
)

// Extract unpacks the gzip+tar archive at archivePath into dir. Directory
// entries are created with mode 0755; regular files keep the mode recorded
// in their header. Entries with absolute paths or ".." components fail with
// an ARCHIVE error; other entry types (symlinks, devices) are skipped, as
// published package archives contain only files and directories.
func Extract(archivePath, dir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "open archive %s", archivePath)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeArchive, err, "decompress %s", archivePath)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeArchive, err, "read %s", archivePath)
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeFilesystem, err, "create directory %s", target)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, fs.FileMode(hdr.Mode)); err != nil {
				return err
			}
		}
	}
}

func writeEntry(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create directory %s", filepath.Dir(target))
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create file %s", target)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return errors.Wrap(errors.ErrCodeFilesystem, err, "write file %s", target)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "close file %s", target)
	}
	return nil
}

func safeJoin(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeArchive, "unsafe entry path %q", name)
	}
	return filepath.Join(dir, cleaned), nil
}
