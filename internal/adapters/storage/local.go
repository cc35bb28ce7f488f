package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
	"github.com/vncsmyrnk/evaluation/internal/core/ports"
)

// LocalStorage keeps uploaded images on disk. Files are named after the
// sha256 of their content and served under urlPrefix.
type LocalStorage struct {
	dir       string
	rootURL   string
	urlPrefix string
}

func NewLocalStorage(dir, rootURL, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image folder %s: %w", dir, err)
	}
	return &LocalStorage{
		dir:       dir,
		rootURL:   strings.TrimRight(rootURL, "/"),
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

func (s *LocalStorage) Save(_ context.Context, name string, body io.Reader) (ports.StoredFile, error) {
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return ports.StoredFile{}, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), body); err != nil {
		tmp.Close()
		return ports.StoredFile{}, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return ports.StoredFile{}, fmt.Errorf("failed to write upload: %w", err)
	}

	hash := hex.EncodeToString(h.Sum(nil))
	filename := hash + strings.ToLower(filepath.Ext(name))
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filename)); err != nil {
		return ports.StoredFile{}, fmt.Errorf("failed to store upload: %w", err)
	}

	return ports.StoredFile{
		URL:  s.rootURL + path.Join(s.urlPrefix, filename),
		Hash: hash,
	}, nil
}

// Remove deletes the file behind url. Default images and URLs outside the
// storage prefix are left alone.
func (s *LocalStorage) Remove(_ context.Context, url string) error {
	if (domain.Image{URL: url}).IsProtected() {
		return nil
	}
	rel := strings.TrimPrefix(url, s.rootURL)
	if !strings.HasPrefix(rel, s.urlPrefix+"/") {
		return nil
	}
	filename := path.Base(rel)
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove image %s: %w", filename, err)
	}
	return nil
}
