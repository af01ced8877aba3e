package fshelper

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when a file exceeds the in-memory buffering limit
var ErrTooLarge = errors.New("file too large")

// NameFS is a filesystem that has a name
type NameFS interface {
	fs.FS
	Name() string
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// ParsePath expands globs and returns one filesystem per directory or zip
// archive. A plain image file becomes a filesystem holding just that file.
func ParsePath(paths []string) ([]NameFS, error) {
	var fsyss []NameFS

	for _, path := range paths {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %s: %w", path, err)
		}

		if len(matches) == 0 {
			// No matches, try as a direct path
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("path does not exist: %s", path)
				}
				return nil, fmt.Errorf("error accessing path %s: %w", path, err)
			}
			matches = []string{path}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("error accessing path %s: %w", match, err)
			}

			switch {
			case info.IsDir():
				fsyss = append(fsyss, &DirFS{
					FS:   os.DirFS(match),
					name: filepath.Base(match),
				})
			case strings.EqualFold(filepath.Ext(match), ".zip"):
				zipFS, err := OpenZip(match)
				if err != nil {
					return nil, fmt.Errorf("error opening zip file %s: %w", match, err)
				}
				fsyss = append(fsyss, zipFS)
			default:
				fsyss = append(fsyss, &singleFS{
					DirFS: DirFS{FS: os.DirFS(filepath.Dir(match)), name: filepath.Base(filepath.Dir(match))},
					file:  filepath.Base(match),
				})
			}
		}
	}

	return fsyss, nil
}

// singleFS exposes one file of a directory
type singleFS struct {
	DirFS
	file string
}

// Open only serves the root and the selected file
func (s *singleFS) Open(name string) (fs.File, error) {
	if name != "." && name != s.file {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return s.DirFS.Open(name)
}

// ReadDir lists only the selected file
func (s *singleFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	info, err := fs.Stat(s.DirFS.FS, s.file)
	if err != nil {
		return nil, err
	}
	return []fs.DirEntry{fs.FileInfoToDirEntry(info)}, nil
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   filepath.Base(path),
		rc:     zipFile,
	}, nil
}

// Close releases every filesystem that holds an open handle
func Close(fsyss []NameFS) error {
	var errs []error
	for _, fsys := range fsyss {
		if c, ok := fsys.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ReadSeekCloser is a seekable file handle
type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }

// OpenSeeker opens name for random access. Files that cannot seek, such as
// zip members, are buffered in memory up to limit bytes.
func OpenSeeker(fsys fs.FS, name string, limit int64) (ReadSeekCloser, int64, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	if rs, ok := f.(ReadSeekCloser); ok {
		return rs, info.Size(), nil
	}
	defer f.Close()

	if limit > 0 && info.Size() > limit {
		return nil, 0, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, name, info.Size())
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, err
	}
	return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
}
