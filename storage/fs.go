package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/venicegeo/bf-s2reader/model"
)

// FS is a Store backed by a local directory
type FS struct {
	root string
}

// NewFS returns a store rooted at an existing directory
func NewFS(root string) (*FS, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", model.ErrInvalidArgument, root)
	}
	return &FS{root: root}, nil
}

// Root returns the directory the store reads from
func (f *FS) Root() string {
	return f.root
}

// Get opens the file at key
func (f *FS) Get(_ context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := f.safePathForFile(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrNotFound, key)
		}
		return nil, err
	}
	return file, nil
}

// Exists checks whether a file exists at key
func (f *FS) Exists(_ context.Context, key string) (bool, error) {
	fullPath, err := f.safePathForFile(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// List returns every file under prefix, relative to the root and slash separated
func (f *FS) List(_ context.Context, prefix string) ([]string, error) {
	searchPath, err := f.safePathForPrefix(prefix)
	if err != nil {
		return nil, err
	}
	var paths []string

	err = filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			relPath, err := filepath.Rel(f.root, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(relPath))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (f *FS) safePathForFile(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if key == "" || cleaned == "." {
		return "", fmt.Errorf("%w: empty path", model.ErrInvalidArgument)
	}
	return f.underRoot(cleaned, key)
}

func (f *FS) safePathForPrefix(prefix string) (string, error) {
	if prefix == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(prefix))
	if cleaned == "." {
		return f.root, nil
	}
	return f.underRoot(cleaned, prefix)
}

func (f *FS) underRoot(cleaned string, original string) (string, error) {
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes product root: %s", model.ErrInvalidArgument, original)
	}
	fullPath := filepath.Join(f.root, cleaned)

	absRoot, err := filepath.Abs(f.root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes product root: %s", model.ErrInvalidArgument, original)
	}
	return fullPath, nil
}
