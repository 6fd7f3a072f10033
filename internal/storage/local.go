package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs under a root directory, mirroring the remote path
// scheme. Used for development and tests.
type LocalStore struct {
	root   string
	logger *slog.Logger
}

func NewLocalStore(root string, logger *slog.Logger) *LocalStore {
	return &LocalStore{root: root, logger: logger}
}

func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.resolve(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *LocalStore) Download(ctx context.Context, path, localPath string) error {
	src, err := os.Open(s.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	defer src.Close()

	return writeFileFrom(src, localPath)
}

func (s *LocalStore) Upload(ctx context.Context, localPath, path string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open upload source: %w", err)
	}
	defer src.Close()

	dst := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := writeFileFrom(src, dst); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Debug("blob stored locally", "path", path)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{Path: rel, Size: info.Size(), Updated: info.ModTime()})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return objects, err
}

func (s *LocalStore) resolve(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

func writeFileFrom(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
