package manifest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
)

const mimeType = "text/csv"

// Header is the first row of every manifest
var Header = []string{"image_name", "image_ID"}

// Encode renders records as manifest CSV in the given order
func Encode(records []models.ImageRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := writer.Write([]string{r.Name, r.ID}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses manifest CSV produced by Encode
func Decode(r io.Reader) ([]models.ImageRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("manifest is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}
	if header[0] != Header[0] || header[1] != Header[1] {
		return nil, fmt.Errorf("unexpected manifest header %v", header)
	}

	var records []models.ImageRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest row: %w", err)
		}
		records = append(records, models.ImageRecord{Name: row[0], ID: row[1]})
	}
	return records, nil
}

// Write stores the manifest as folderName/fileName below root, creating the
// folder and file when missing and replacing any previous content.
func Write(ctx context.Context, store providers.Storage, root models.Folder, records []models.ImageRecord, folderName, fileName string) (models.File, error) {
	content, err := Encode(records)
	if err != nil {
		return models.File{}, err
	}

	out, ok, err := store.FindFolder(ctx, root.ID, folderName)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to look up output folder: %w", err)
	}
	if !ok {
		slog.Info("Creating output folder", "name", folderName)
		out, err = store.CreateFolder(ctx, root.ID, folderName)
		if err != nil {
			return models.File{}, fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	file, ok, err := store.FindFile(ctx, out.ID, fileName)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to look up manifest: %w", err)
	}
	if ok {
		if err := store.WriteFile(ctx, file.ID, mimeType, content); err != nil {
			return models.File{}, fmt.Errorf("failed to overwrite manifest: %w", err)
		}
	} else {
		file, err = store.CreateFile(ctx, out.ID, fileName, mimeType, content)
		if err != nil {
			return models.File{}, fmt.Errorf("failed to create manifest: %w", err)
		}
	}

	slog.Info("Wrote manifest", "file", fileName, "id", file.ID, "rows", len(records))
	return file, nil
}
