package surveycmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/formbuilder/internal/formfile"
	"github.com/lehigh-university-libraries/formbuilder/internal/gforms"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
	"github.com/lehigh-university-libraries/formbuilder/internal/report"
	"github.com/lehigh-university-libraries/formbuilder/internal/responses"
)

type collectOptions struct {
	ReportPath  string
	Format      string
	Output      string
	Credentials string
	LocalForms  string
	Summary     bool
}

// openResponses picks the response source matching the backend that built the run
func openResponses(ctx context.Context, run *report.Run, opts collectOptions) (providers.ResponseSource, error) {
	switch run.Backend {
	case backendGoogle:
		return gforms.New(ctx, googleOptions(opts.Credentials)...)
	case backendLocal:
		dir := opts.LocalForms
		if dir == "" {
			dir = run.FormsDir
		}
		if dir == "" {
			return nil, fmt.Errorf("--local-forms is required: run %s does not record its forms directory", run.RunID)
		}
		return formfile.New(dir)
	default:
		return nil, fmt.Errorf("run %s has unknown backend %q", run.RunID, run.Backend)
	}
}

func executeCollect(ctx context.Context, w io.Writer, opts collectOptions) (int, error) {
	run, err := report.Load(opts.ReportPath)
	if err != nil {
		return 0, err
	}
	slog.Info("Collecting responses", "run", run.RunID, "forms", len(run.Forms), "status", run.Status)

	src, err := openResponses(ctx, run, opts)
	if err != nil {
		return 0, err
	}

	rows, err := responses.Collect(ctx, src, run)
	if err != nil {
		return 0, err
	}

	output := opts.Output
	if output == "" {
		output = run.RunID + "_responses." + opts.Format
	}
	if err := responses.Export(output, opts.Format, rows); err != nil {
		return 0, err
	}
	slog.Info("Wrote responses", "path", output, "rows", len(rows))

	if opts.Summary {
		responses.PrintSummary(w, responses.Summarize(rows, run.Survey.Choices), run.Survey.Choices)
	}
	return len(rows), nil
}
