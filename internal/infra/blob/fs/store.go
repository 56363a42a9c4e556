// Package fs keeps blob objects as files in one directory. It is the default
// home of the table files.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sspdb/internal/blob/core"
)

const (
	tmpPrefix = ".tmp-"
	fileMode  = 0o644
)

// Store maps each key to a file directly under root. Put goes through a synced
// temporary file renamed over the target, so a crash leaves either the old or
// the new content. Two writers replacing the same key race and the last
// rename wins.
type Store struct {
	root string
}

// New returns a store rooted at root, creating the directory if needed. An
// empty root means ./data.
func New(root string) (*Store, error) {
	if root == "" {
		root = "data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// checkKey accepts plain file names only.
func checkKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return errors.New("empty key")
	case key == "." || key == "..":
		return fmt.Errorf("invalid key %q", key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("key %q must be a file name", key)
	case strings.HasPrefix(key, tmpPrefix):
		return fmt.Errorf("key %q uses the reserved %s prefix", key, tmpPrefix)
	}
	return nil
}

func (s *Store) path(key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, key), nil
}

// Put writes r to a temporary file in root and renames it over key.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	target, err := s.path(key)
	if err != nil {
		return core.Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	tmp, err := os.CreateTemp(s.root, tmpPrefix+"*")
	if err != nil {
		return core.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := writeSynced(tmp, r); err != nil {
		return core.Info{}, err
	}
	if err := os.Chmod(tmp.Name(), fileMode); err != nil {
		return core.Info{}, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return core.Info{}, err
	}
	info, err := stat(key, target)
	if err != nil {
		return core.Info{}, err
	}
	info.ContentType = opts.ContentType
	return info, nil
}

// Append writes r at the end of an existing file.
func (s *Store) Append(ctx context.Context, key string, r io.Reader) (core.Info, error) {
	target, err := s.path(key)
	if err != nil {
		return core.Info{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Info{}, err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, core.NotFound(key)
	}
	if err != nil {
		return core.Info{}, err
	}
	if err := writeSynced(f, r); err != nil {
		return core.Info{}, err
	}
	return stat(key, target)
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	target, err := s.path(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, nil, core.NotFound(key)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return core.Info{}, nil, err
	}
	return infoOf(key, st), f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	target, err := s.path(key)
	if err != nil {
		return core.Info{}, err
	}
	return stat(key, target)
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	target, err := s.path(key)
	if err != nil {
		return false, err
	}
	err = os.Remove(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// writeSynced copies r into f, fsyncs and closes it.
func writeSynced(f *os.File, r io.Reader) error {
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func stat(key, path string) (core.Info, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, core.NotFound(key)
	}
	if err != nil {
		return core.Info{}, err
	}
	return infoOf(key, st), nil
}

func infoOf(key string, st fs.FileInfo) core.Info {
	return core.Info{Key: key, Size: st.Size(), LastModified: st.ModTime().UTC()}
}
