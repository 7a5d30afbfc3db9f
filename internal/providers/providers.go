package providers

import (
	"context"

	"github.com/lehigh-university-libraries/formbuilder/internal/models"
)

// Storage defines the hierarchical file store the survey images live in
type Storage interface {
	// Folder resolves a folder by its identifier
	Folder(ctx context.Context, id string) (models.Folder, error)
	// FindFolder looks up a direct child folder by name
	FindFolder(ctx context.Context, parentID, name string) (models.Folder, bool, error)
	CreateFolder(ctx context.Context, parentID, name string) (models.Folder, error)
	// ListFiles lists the non-folder children of a folder
	ListFiles(ctx context.Context, folderID string) ([]models.File, error)
	FindFile(ctx context.Context, folderID, name string) (models.File, bool, error)
	CreateFile(ctx context.Context, folderID, name, mimeType string, content []byte) (models.File, error)
	// WriteFile replaces the full content of an existing file
	WriteFile(ctx context.Context, fileID, mimeType string, content []byte) error
	ReadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Forms defines the questionnaire builder the surveys are created in.
// Items are appended in call order.
type Forms interface {
	CreateForm(ctx context.Context, title, description string) (models.FormRef, error)
	AddTextItem(ctx context.Context, formID, title string, required bool) (models.ItemRef, error)
	AddImageItem(ctx context.Context, formID, title string, image models.ImageContent) (models.ItemRef, error)
	AddChoiceItem(ctx context.Context, formID, title string, choices []string, required bool) (models.ItemRef, error)
	AddPageBreak(ctx context.Context, formID string) (models.ItemRef, error)
}

// ResponseSource lists the responses submitted to a form
type ResponseSource interface {
	ListResponses(ctx context.Context, formID string) ([]models.Response, error)
}
