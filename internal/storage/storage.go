package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/formbuilder/internal/models"
)

// RootID is the identifier of the store's root directory
const RootID = "."

// Local is a storage provider backed by a directory tree.
// Identifiers are slash separated paths relative to the root directory.
type Local struct {
	root string
}

// New returns a Local store rooted at dir
func New(dir string) (*Local, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", dir)
	}
	return &Local{root: dir}, nil
}

func (l *Local) Folder(_ context.Context, id string) (models.Folder, error) {
	p, err := l.resolve(id)
	if err != nil {
		return models.Folder{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return models.Folder{}, fmt.Errorf("failed to open folder %s: %w", id, err)
	}
	if !info.IsDir() {
		return models.Folder{}, fmt.Errorf("%s is not a folder", id)
	}
	name := path.Base(id)
	if id == RootID || id == "" {
		id = RootID
		name = filepath.Base(l.root)
	}
	return models.Folder{ID: id, Name: name}, nil
}

func (l *Local) FindFolder(_ context.Context, parentID, name string) (models.Folder, bool, error) {
	id, err := childID(parentID, name)
	if err != nil {
		return models.Folder{}, false, err
	}
	p, err := l.resolve(id)
	if err != nil {
		return models.Folder{}, false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Folder{}, false, nil
	}
	if err != nil {
		return models.Folder{}, false, fmt.Errorf("failed to stat folder %s: %w", id, err)
	}
	if !info.IsDir() {
		return models.Folder{}, false, nil
	}
	return models.Folder{ID: id, Name: name}, true, nil
}

func (l *Local) CreateFolder(_ context.Context, parentID, name string) (models.Folder, error) {
	id, err := childID(parentID, name)
	if err != nil {
		return models.Folder{}, err
	}
	p, err := l.resolve(id)
	if err != nil {
		return models.Folder{}, err
	}
	if err := os.Mkdir(p, 0755); err != nil {
		return models.Folder{}, fmt.Errorf("failed to create folder %s: %w", id, err)
	}
	return models.Folder{ID: id, Name: name}, nil
}

func (l *Local) ListFiles(_ context.Context, folderID string) ([]models.File, error) {
	p, err := l.resolve(folderID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}

	var files []models.File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, models.File{
			ID:       path.Join(folderID, entry.Name()),
			Name:     entry.Name(),
			MIMEType: mime.TypeByExtension(filepath.Ext(entry.Name())),
		})
	}
	return files, nil
}

func (l *Local) FindFile(_ context.Context, folderID, name string) (models.File, bool, error) {
	id, err := childID(folderID, name)
	if err != nil {
		return models.File{}, false, err
	}
	p, err := l.resolve(id)
	if err != nil {
		return models.File{}, false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return models.File{}, false, nil
	}
	if err != nil {
		return models.File{}, false, fmt.Errorf("failed to stat file %s: %w", id, err)
	}
	if info.IsDir() {
		return models.File{}, false, nil
	}
	return models.File{ID: id, Name: name, MIMEType: mime.TypeByExtension(filepath.Ext(name))}, true, nil
}

func (l *Local) CreateFile(_ context.Context, folderID, name, mimeType string, content []byte) (models.File, error) {
	id, err := childID(folderID, name)
	if err != nil {
		return models.File{}, err
	}
	p, err := l.resolve(id)
	if err != nil {
		return models.File{}, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to create file %s: %w", id, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return models.File{}, fmt.Errorf("failed to write file %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return models.File{}, fmt.Errorf("failed to close file %s: %w", id, err)
	}
	return models.File{ID: id, Name: name, MIMEType: mimeType}, nil
}

func (l *Local) WriteFile(_ context.Context, fileID, _ string, content []byte) error {
	p, err := l.resolve(fileID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("failed to open file %s: %w", fileID, err)
	}
	if err := os.WriteFile(p, content, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", fileID, err)
	}
	return nil
}

func (l *Local) ReadFile(_ context.Context, fileID string) ([]byte, error) {
	p, err := l.resolve(fileID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

// resolve maps an identifier to a path below the root, rejecting escapes
func (l *Local) resolve(id string) (string, error) {
	if id == "" {
		id = RootID
	}
	if !fs.ValidPath(id) {
		return "", fmt.Errorf("invalid storage identifier %q", id)
	}
	return filepath.Join(l.root, filepath.FromSlash(id)), nil
}

func childID(parentID, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid name %q", name)
	}
	if parentID == "" {
		parentID = RootID
	}
	return path.Join(parentID, name), nil
}
