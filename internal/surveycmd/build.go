package surveycmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/formbuilder/internal/builder"
	"github.com/lehigh-university-libraries/formbuilder/internal/config"
	"github.com/lehigh-university-libraries/formbuilder/internal/images"
	"github.com/lehigh-university-libraries/formbuilder/internal/manifest"
	"github.com/lehigh-university-libraries/formbuilder/internal/metrics"
	"github.com/lehigh-university-libraries/formbuilder/internal/report"
	"github.com/lehigh-university-libraries/formbuilder/internal/resilience"
	"golang.org/x/time/rate"
)

type buildOptions struct {
	Backend     backendOptions
	ConfigPath  string
	PerPage     int
	PerForm     int
	Seed        uint64
	ReportDir   string
	MetricsFile string
}

// loadSurvey reads the survey file and applies command line overrides
func loadSurvey(opts buildOptions) (config.Survey, error) {
	survey, err := config.Load(opts.ConfigPath)
	if err != nil {
		return survey, err
	}
	if opts.PerPage > 0 {
		survey.PerPage = opts.PerPage
	}
	if opts.PerForm > 0 {
		survey.PerForm = opts.PerForm
	}
	return survey, survey.Validate()
}

// executeBuild runs one build. The run report is saved even when the build
// aborts part way, and the partial run is returned with the error.
func executeBuild(ctx context.Context, opts buildOptions) (*report.Run, string, error) {
	survey, err := loadSurvey(opts)
	if err != nil {
		return nil, "", err
	}

	runID := uuid.NewString()
	logger := slog.Default()
	slog.SetDefault(logger.With("run_id", runID))
	defer slog.SetDefault(logger)

	be, err := openBackend(ctx, opts.Backend)
	if err != nil {
		return nil, "", err
	}
	slog.Info("Starting build", "backend", be.name, "folder", be.rootID)

	m := metrics.NewRunMetrics(runID)

	root, err := be.storage.Folder(ctx, be.rootID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open root folder: %w", err)
	}

	records, err := images.Enumerate(ctx, be.storage, root, survey.ImagePath)
	if err != nil {
		return nil, "", err
	}
	m.ImagesEnumerated(len(records))

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	images.Shuffle(records, images.NewRand(seed))
	slog.Info("Shuffled images", "count", len(records), "seed", seed)

	manifestFile, err := manifest.Write(ctx, be.storage, root, records, survey.OutputFolder, survey.ManifestName)
	if err != nil {
		return nil, "", err
	}

	run := &report.Run{
		RunID:     runID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    report.StatusComplete,
		Backend:   be.name,
		FolderID:  root.ID,
		FormsDir:  be.formsDir,
		Seed:      seed,
		Survey:    survey,
		Manifest:  manifestFile,
	}

	limiter := rate.NewLimiter(rate.Every(survey.RequestSpacing.Duration), 1)
	retry := resilience.DefaultConfig()
	retry.InitialBackoff = survey.RetryDelay.Duration

	b, err := builder.New(builder.Config{
		Forms:   be.forms,
		Images:  images.NewFetcher(be.storage, limiter, m),
		Retry:   retry,
		Limiter: limiter,
		Metrics: m,
	}, survey.BuilderOptions())
	if err != nil {
		return nil, "", err
	}

	result, buildErr := b.Build(ctx, records)
	if result != nil {
		run.Forms = result.Forms
	}
	if buildErr != nil {
		run.Status = report.StatusAborted
		run.Error = buildErr.Error()
		slog.Error("Build aborted", "forms", len(run.Forms), "questions", len(run.Questions()), "err", buildErr)
	}

	path, err := report.Save(opts.ReportDir, run)
	if err != nil {
		if buildErr != nil {
			slog.Error("Unable to save run report", "err", err)
			return run, "", buildErr
		}
		return run, "", err
	}
	slog.Info("Saved run report", "path", path)

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			slog.Error("Unable to write metrics", "path", opts.MetricsFile, "err", err)
		}
	}

	if buildErr != nil {
		return run, path, fmt.Errorf("build aborted after %d forms: %w", len(run.Forms), buildErr)
	}
	return run, path, nil
}

func printBuildSummary(w io.Writer, run *report.Run, reportPath string) {
	fmt.Fprintf(w, "Run:       %s\n", run.RunID)
	fmt.Fprintf(w, "Status:    %s\n", run.Status)
	fmt.Fprintf(w, "Questions: %d\n", len(run.Questions()))
	fmt.Fprintf(w, "Manifest:  %s (%s)\n", run.Manifest.Name, run.Manifest.ID)
	fmt.Fprintf(w, "Report:    %s\n", reportPath)
	if len(run.Forms) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, f := range run.Forms {
		fmt.Fprintf(w, "  %-28s %3d questions  %s\n", f.Title, len(f.Questions), f.ResponderURL)
	}
}
