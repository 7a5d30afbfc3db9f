package images

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/formbuilder/internal/metrics"
	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
	"golang.org/x/time/rate"
)

// Fetcher retrieves image content from the storage provider
type Fetcher struct {
	store   providers.Storage
	limiter *rate.Limiter
	metrics *metrics.RunMetrics
}

// NewFetcher creates a fetcher sharing the caller's rate limiter.
// A nil limiter disables pacing.
func NewFetcher(store providers.Storage, limiter *rate.Limiter, m *metrics.RunMetrics) *Fetcher {
	return &Fetcher{
		store:   store,
		limiter: limiter,
		metrics: m,
	}
}

// Fetch downloads the bytes of one image
func (f *Fetcher) Fetch(ctx context.Context, record models.ImageRecord) (models.ImageContent, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return models.ImageContent{}, err
		}
	}

	start := time.Now()
	data, err := f.store.ReadFile(ctx, record.ID)
	f.metrics.ObserveCall("read_image", start, err)
	if err != nil {
		return models.ImageContent{}, fmt.Errorf("failed to fetch image %s: %w", record.Name, err)
	}
	if len(data) == 0 {
		return models.ImageContent{}, fmt.Errorf("image %s is empty", record.Name)
	}

	slog.Debug("Fetched image", "name", record.Name, "id", record.ID, "bytes", len(data))
	return models.ImageContent{
		Record:   record,
		URL:      DownloadURL(record.ID),
		Data:     data,
		MIMEType: http.DetectContentType(data),
	}, nil
}
