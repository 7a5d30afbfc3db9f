package surveycmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/lehigh-university-libraries/formbuilder/internal/folder"
	"github.com/lehigh-university-libraries/formbuilder/internal/formfile"
	"github.com/lehigh-university-libraries/formbuilder/internal/gdrive"
	"github.com/lehigh-university-libraries/formbuilder/internal/gforms"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
	"github.com/lehigh-university-libraries/formbuilder/internal/storage"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

const (
	backendGoogle = "google"
	backendLocal  = "local"
)

// backendOptions selects and configures the storage and form providers
type backendOptions struct {
	Name        string
	FolderURL   string
	Credentials string
	LocalRoot   string
	LocalForms  string
}

type backend struct {
	name      string
	rootID    string
	formsDir  string
	storage   providers.Storage
	forms     providers.Forms
	responses providers.ResponseSource
}

func openBackend(ctx context.Context, opts backendOptions) (*backend, error) {
	switch opts.Name {
	case backendGoogle:
		rootID, err := folder.MustExtractID(opts.FolderURL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve folder URL %q: %w", opts.FolderURL, err)
		}
		clientOpts := googleOptions(opts.Credentials)
		store, err := gdrive.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		client, err := gforms.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		return &backend{name: opts.Name, rootID: rootID, storage: store, forms: client, responses: client}, nil

	case backendLocal:
		if opts.LocalRoot == "" {
			return nil, fmt.Errorf("--local-root is required for the local backend")
		}
		store, err := storage.New(opts.LocalRoot)
		if err != nil {
			return nil, err
		}
		formsDir := opts.LocalForms
		if formsDir == "" {
			formsDir = filepath.Join(opts.LocalRoot, "_forms")
		}
		formsDir, err = filepath.Abs(formsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve forms directory: %w", err)
		}
		files, err := formfile.New(formsDir)
		if err != nil {
			return nil, err
		}
		return &backend{
			name:      opts.Name,
			rootID:    storage.RootID,
			formsDir:  formsDir,
			storage:   store,
			forms:     files,
			responses: files,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: google, local)", opts.Name)
	}
}

// googleOptions uses the given service account file, or application default
// credentials when it is empty
func googleOptions(credentials string) []option.ClientOption {
	opts := []option.ClientOption{
		option.WithScopes(drive.DriveScope, forms.FormsBodyScope, forms.FormsResponsesReadonlyScope),
	}
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	return opts
}
