package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/formbuilder/internal/metrics"
	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
	"github.com/lehigh-university-libraries/formbuilder/internal/resilience"
	"golang.org/x/time/rate"
)

// ErrAttachFailed is returned when an image could not be attached after all attempts
var ErrAttachFailed = errors.New("image attachment failed")

// ImageSource fetches the content of an image record
type ImageSource interface {
	Fetch(ctx context.Context, record models.ImageRecord) (models.ImageContent, error)
}

// Config wires a Builder to its collaborators
type Config struct {
	Forms   providers.Forms
	Images  ImageSource
	Retry   resilience.Config
	Limiter *rate.Limiter
	Metrics *metrics.RunMetrics
}

// Builder turns shuffled image records into survey forms
type Builder struct {
	forms    providers.Forms
	images   ImageSource
	executor *resilience.Executor
	limiter  *rate.Limiter
	metrics  *metrics.RunMetrics
	opts     Options
}

// Result lists the forms created, including a partially built last form
// when the build was aborted.
type Result struct {
	Forms []models.FormDocument
}

// QuestionCount is the number of image questions across all forms
func (r *Result) QuestionCount() int {
	n := 0
	for _, f := range r.Forms {
		n += len(f.Questions)
	}
	return n
}

func New(cfg Config, opts Options) (*Builder, error) {
	if cfg.Forms == nil || cfg.Images == nil {
		return nil, fmt.Errorf("builder requires a form provider and an image source")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b := &Builder{
		forms:    cfg.Forms,
		images:   cfg.Images,
		executor: resilience.NewExecutor(cfg.Retry),
		limiter:  cfg.Limiter,
		metrics:  cfg.Metrics,
		opts:     opts,
	}
	b.executor.OnRetry(func(string, int, error) {
		b.metrics.AttachRetried()
	})
	return b, nil
}

// Build creates every planned form in order. Forms created before a
// failure are left in place and returned alongside the error.
func (b *Builder) Build(ctx context.Context, records []models.ImageRecord) (*Result, error) {
	plans := Plan(len(records), b.opts)
	slog.Info("Building forms", "questions", len(records), "forms", len(plans), "per_form", b.opts.PerForm, "per_page", b.opts.PerPage)

	result := &Result{}
	for _, plan := range plans {
		doc, err := b.startForm(ctx, plan)
		if doc.ID != "" {
			result.Forms = append(result.Forms, doc)
		}
		if err != nil {
			return result, err
		}
		current := len(result.Forms) - 1

		for _, item := range plan.Items {
			q, err := b.addQuestion(ctx, doc.ID, item, records[item.Index])
			if err != nil {
				return result, err
			}
			result.Forms[current].Questions = append(result.Forms[current].Questions, q)
		}
		slog.Info("Finished form", "number", plan.Number, "id", doc.ID, "questions", len(plan.Items))
	}
	return result, nil
}

func (b *Builder) startForm(ctx context.Context, plan FormPlan) (models.FormDocument, error) {
	if err := b.wait(ctx); err != nil {
		return models.FormDocument{}, err
	}
	start := time.Now()
	ref, err := b.forms.CreateForm(ctx, plan.Title, b.opts.Description)
	b.metrics.ObserveCall("create_form", start, err)
	if err != nil {
		return models.FormDocument{}, fmt.Errorf("failed to create form %q: %w", plan.Title, err)
	}
	b.metrics.FormCreated()
	slog.Info("Created form", "number", plan.Number, "title", plan.Title, "id", ref.ID)

	doc := models.FormDocument{
		ID:           ref.ID,
		Number:       plan.Number,
		Title:        plan.Title,
		ResponderURL: ref.ResponderURL,
	}

	if err := b.wait(ctx); err != nil {
		return doc, err
	}
	start = time.Now()
	name, err := b.forms.AddTextItem(ctx, ref.ID, b.opts.NamePrompt, true)
	b.metrics.ObserveCall("add_text", start, err)
	if err != nil {
		return doc, fmt.Errorf("failed to add name field to form %q: %w", plan.Title, err)
	}
	b.metrics.ItemCreated("text")
	doc.NameQuestionID = name.QuestionID
	return doc, nil
}

func (b *Builder) addQuestion(ctx context.Context, formID string, item PlannedItem, record models.ImageRecord) (models.Question, error) {
	q := models.Question{
		Number: item.Number,
		Title:  item.Title,
		Image:  record,
	}

	var image models.ItemRef
	attach := func(ctx context.Context) error {
		content, err := b.images.Fetch(ctx, record)
		if err != nil {
			return err
		}
		if err := b.wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		image, err = b.forms.AddImageItem(ctx, formID, "", content)
		b.metrics.ObserveCall("add_image", start, err)
		return err
	}
	if err := b.executor.Execute(ctx, "attach_image", attach, resilience.RetryAll); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return q, err
		}
		b.metrics.AttachFailed()
		return q, fmt.Errorf("%w: %s for Q%d: %w", ErrAttachFailed, record.Name, item.Number, err)
	}
	b.metrics.ItemCreated("image")
	q.ImageItemID = image.ItemID

	if err := b.wait(ctx); err != nil {
		return q, err
	}
	start := time.Now()
	choice, err := b.forms.AddChoiceItem(ctx, formID, item.Title, b.opts.Choices, true)
	b.metrics.ObserveCall("add_choice", start, err)
	if err != nil {
		return q, fmt.Errorf("failed to add choices for Q%d: %w", item.Number, err)
	}
	b.metrics.ItemCreated("choice")
	q.ChoiceItemID = choice.ItemID
	q.QuestionID = choice.QuestionID

	if item.PageBreakAfter {
		if err := b.wait(ctx); err != nil {
			return q, err
		}
		start := time.Now()
		_, err := b.forms.AddPageBreak(ctx, formID)
		b.metrics.ObserveCall("add_page_break", start, err)
		if err != nil {
			return q, fmt.Errorf("failed to add page break after Q%d: %w", item.Number, err)
		}
		b.metrics.ItemCreated("page_break")
		q.PageBreakAfter = true
	}

	slog.Debug("Added question", "number", item.Number, "image", record.Name, "form", formID)
	return q, nil
}

func (b *Builder) wait(ctx context.Context) error {
	if b.limiter == nil {
		return ctx.Err()
	}
	return b.limiter.Wait(ctx)
}
