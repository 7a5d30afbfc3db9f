package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
)

// ErrFolderNotFound is returned when an expected subfolder does not exist
var ErrFolderNotFound = errors.New("folder not found")

const (
	downloadURLPrefix = "https://drive.google.com/uc?id="
	downloadURLSuffix = "&export=download"
)

// Enumerate walks path below root and returns one record per file in the last folder
func Enumerate(ctx context.Context, store providers.Storage, root models.Folder, path []string) ([]models.ImageRecord, error) {
	current := root
	for _, name := range path {
		next, ok, err := store.FindFolder(ctx, current.ID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up folder %s: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrFolderNotFound, name, current.Name)
		}
		current = next
	}

	files, err := store.ListFiles(ctx, current.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images in %s: %w", current.Name, err)
	}

	records := make([]models.ImageRecord, 0, len(files))
	for _, f := range files {
		records = append(records, models.ImageRecord{Name: f.Name, ID: f.ID})
	}
	slog.Info("Enumerated images", "folder", current.Name, "count", len(records))
	return records, nil
}

// NewRand returns a generator seeded with seed, or randomly when seed is 0
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffle permutes records uniformly in place
func Shuffle(records []models.ImageRecord, rng *rand.Rand) {
	rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// DownloadURL is the direct download link for a stored image
func DownloadURL(id string) string {
	return downloadURLPrefix + id + downloadURLSuffix
}
