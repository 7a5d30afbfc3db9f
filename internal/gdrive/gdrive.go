package gdrive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMIMEType = "application/vnd.google-apps.folder"

// Storage is a storage provider backed by Google Drive
type Storage struct {
	srv *drive.Service
}

// New creates a Drive client from the given client options
func New(ctx context.Context, opts ...option.ClientOption) (*Storage, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &Storage{srv: srv}, nil
}

func (s *Storage) Folder(ctx context.Context, id string) (models.Folder, error) {
	f, err := s.srv.Files.Get(id).
		Fields("id, name, mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return models.Folder{}, fmt.Errorf("failed to get folder %s: %w", id, err)
	}
	if f.MimeType != folderMIMEType {
		return models.Folder{}, fmt.Errorf("%s is not a folder (%s)", id, f.MimeType)
	}
	return models.Folder{ID: f.Id, Name: f.Name}, nil
}

func (s *Storage) FindFolder(ctx context.Context, parentID, name string) (models.Folder, bool, error) {
	q := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(parentID), escapeQuery(name), folderMIMEType)
	files, err := s.find(ctx, q)
	if err != nil {
		return models.Folder{}, false, fmt.Errorf("failed to search for folder %s: %w", name, err)
	}
	if len(files) == 0 {
		return models.Folder{}, false, nil
	}
	if len(files) > 1 {
		slog.Warn("Multiple folders share a name, using the first", "name", name, "parent", parentID, "count", len(files))
	}
	return models.Folder{ID: files[0].Id, Name: files[0].Name}, true, nil
}

func (s *Storage) CreateFolder(ctx context.Context, parentID, name string) (models.Folder, error) {
	f, err := s.srv.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMIMEType,
		Parents:  []string{parentID},
	}).
		Fields("id, name").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return models.Folder{}, fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return models.Folder{ID: f.Id, Name: f.Name}, nil
}

func (s *Storage) ListFiles(ctx context.Context, folderID string) ([]models.File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false",
		escapeQuery(folderID), folderMIMEType)

	var files []models.File
	err := s.srv.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, mimeType)").
		PageSize(1000).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, models.File{ID: f.Id, Name: f.Name, MIMEType: f.MimeType})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	return files, nil
}

func (s *Storage) FindFile(ctx context.Context, folderID, name string) (models.File, bool, error) {
	q := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType != '%s' and trashed = false",
		escapeQuery(folderID), escapeQuery(name), folderMIMEType)
	files, err := s.find(ctx, q)
	if err != nil {
		return models.File{}, false, fmt.Errorf("failed to search for file %s: %w", name, err)
	}
	if len(files) == 0 {
		return models.File{}, false, nil
	}
	return models.File{ID: files[0].Id, Name: files[0].Name, MIMEType: files[0].MimeType}, true, nil
}

func (s *Storage) CreateFile(ctx context.Context, folderID, name, mimeType string, content []byte) (models.File, error) {
	f, err := s.srv.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{folderID},
	}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id, name, mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return models.File{}, fmt.Errorf("failed to create file %s: %w", name, err)
	}
	return models.File{ID: f.Id, Name: f.Name, MIMEType: f.MimeType}, nil
}

func (s *Storage) WriteFile(ctx context.Context, fileID, mimeType string, content []byte) error {
	_, err := s.srv.Files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeType)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update file %s: %w", fileID, err)
	}
	return nil
}

func (s *Storage) ReadFile(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := s.srv.Files.Get(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}

func (s *Storage) find(ctx context.Context, q string) ([]*drive.File, error) {
	list, err := s.srv.Files.List().
		Q(q).
		Fields("files(id, name, mimeType)").
		PageSize(10).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return list.Files, nil
}

// escapeQuery quotes a value for use inside a single-quoted Drive query string
func escapeQuery(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
