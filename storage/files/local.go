// Package files stores uploaded video blobs on the local disk, rooted at
// the configured media directory.
package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var errPathOutsideRoot = errors.New("files: path escapes media root")

type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating media root")
	}
	return &LocalStore{root: root}, nil
}

// abs resolves a stored path against the root and rejects traversal.
func (store *LocalStore) abs(path string) (string, error) {
	full := filepath.Join(store.root, filepath.FromSlash(path))
	if !strings.HasPrefix(full, filepath.Clean(store.root)+string(os.PathSeparator)) {
		return "", errPathOutsideRoot
	}
	return full, nil
}

// Save writes src under a fresh name derived from filename's extension and
// returns the relative path to persist alongside the video row.
func (store *LocalStore) Save(filename string, src io.Reader) (string, error) {
	path := "videos/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	full, err := store.abs(path)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "creating upload dir")
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		_ = os.Remove(full)
		return "", errors.Wrap(err, "writing upload file")
	}
	return path, nil
}

func (store *LocalStore) Remove(path string) error {
	full, err := store.abs(path)
	if err != nil {
		return err
	}
	if err = os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing upload file")
	}
	return nil
}
