package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/formbuilder/internal/formfile"
	"github.com/lehigh-university-libraries/formbuilder/internal/metrics"
	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
	"github.com/lehigh-university-libraries/formbuilder/internal/resilience"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type memoryImages struct{}

func (memoryImages) Fetch(_ context.Context, r models.ImageRecord) (models.ImageContent, error) {
	return models.ImageContent{
		Record:   r,
		URL:      "https://example.com/" + r.ID,
		Data:     []byte("data-" + r.ID),
		MIMEType: "image/jpeg",
	}, nil
}

// flakyForms fails AddImageItem for the listed record IDs a set number of times
type flakyForms struct {
	providers.Forms
	failures map[string]int
	calls    map[string]int
}

func (f *flakyForms) AddImageItem(ctx context.Context, formID, title string, image models.ImageContent) (models.ItemRef, error) {
	id := image.Record.ID
	f.calls[id]++
	if f.failures[id] > 0 {
		f.failures[id]--
		return models.ItemRef{}, errors.New("service unavailable")
	}
	return f.Forms.AddImageItem(ctx, formID, title, image)
}

func records(n int) []models.ImageRecord {
	out := make([]models.ImageRecord, n)
	for i := range out {
		out[i] = models.ImageRecord{Name: fmt.Sprintf("img%02d.jpg", i), ID: fmt.Sprintf("id%02d", i)}
	}
	return out
}

func fastRetry() resilience.Config {
	return resilience.Config{MaxAttempts: 2, InitialBackoff: time.Millisecond}
}

func TestBuildCreatesFormsInOrder(t *testing.T) {
	dir := t.TempDir()
	store, err := formfile.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	b, err := New(Config{Forms: store, Images: memoryImages{}, Retry: fastRetry()}, testOptions(3, 4))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	recs := records(10)
	result, err := b.Build(context.Background(), recs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(result.Forms) != 3 {
		t.Fatalf("Expected 3 forms, got %d", len(result.Forms))
	}
	if result.QuestionCount() != len(recs) {
		t.Fatalf("Expected %d questions, got %d", len(recs), result.QuestionCount())
	}

	// every record appears exactly once, in order, across the forms
	n := 0
	for _, form := range result.Forms {
		for _, q := range form.Questions {
			if q.Image != recs[n] {
				t.Errorf("Question %d: expected %v, got %v", q.Number, recs[n], q.Image)
			}
			if q.Number != n+1 {
				t.Errorf("Expected question number %d, got %d", n+1, q.Number)
			}
			n++
		}
	}

	// layout of the second form: name, then Q5..Q8 with a break after Q6
	doc, err := formfile.Load(dir, result.Forms[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Small Mammals(2)" {
		t.Errorf("Unexpected title %s", doc.Title)
	}
	var kinds []string
	for _, item := range doc.Items {
		kinds = append(kinds, item.Kind)
	}
	want := "[text image choice image choice page_break image choice image choice]"
	if fmt.Sprint(kinds) != want {
		t.Errorf("Expected items %s, got %v", want, kinds)
	}
	if doc.Items[0].Kind != formfile.KindText || !doc.Items[0].Required {
		t.Errorf("Expected a required name field first, got %+v", doc.Items[0])
	}
	if doc.Items[2].Title != "Q5: How confident are you?" {
		t.Errorf("Unexpected choice title %q", doc.Items[2].Title)
	}
	if result.Forms[1].NameQuestionID != doc.Items[0].QuestionID {
		t.Errorf("Expected name question ID %s, got %s", doc.Items[0].QuestionID, result.Forms[1].NameQuestionID)
	}
}

func TestBuildWithNoImagesCreatesNothing(t *testing.T) {
	store, err := formfile.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Config{Forms: store, Images: memoryImages{}}, testOptions(20, 100))
	if err != nil {
		t.Fatal(err)
	}
	result, err := b.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(result.Forms) != 0 {
		t.Errorf("Expected no forms, got %d", len(result.Forms))
	}
}

func TestBuildRetriesImageOnce(t *testing.T) {
	store, err := formfile.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	forms := &flakyForms{Forms: store, failures: map[string]int{"id01": 1}, calls: map[string]int{}}
	m := metrics.NewRunMetrics("test")

	b, err := New(Config{Forms: forms, Images: memoryImages{}, Retry: fastRetry(), Metrics: m}, testOptions(20, 100))
	if err != nil {
		t.Fatal(err)
	}
	result, err := b.Build(context.Background(), records(3))
	if err != nil {
		t.Fatalf("Expected build to recover, got %v", err)
	}
	if result.QuestionCount() != 3 {
		t.Errorf("Expected 3 questions, got %d", result.QuestionCount())
	}
	if forms.calls["id01"] != 2 {
		t.Errorf("Expected 2 attach attempts, got %d", forms.calls["id01"])
	}

	expected := `
# HELP formbuilder_image_attach_retries_total Image attachments retried after a failed first attempt.
# TYPE formbuilder_image_attach_retries_total counter
formbuilder_image_attach_retries_total{run_id="test"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "formbuilder_image_attach_retries_total"); err != nil {
		t.Errorf("Unexpected retry metric: %v", err)
	}
}

func TestBuildAbortsAfterSecondFailure(t *testing.T) {
	store, err := formfile.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	forms := &flakyForms{Forms: store, failures: map[string]int{"id05": 2}, calls: map[string]int{}}

	b, err := New(Config{Forms: forms, Images: memoryImages{}, Retry: fastRetry()}, testOptions(2, 4))
	if err != nil {
		t.Fatal(err)
	}
	result, err := b.Build(context.Background(), records(8))
	if !errors.Is(err, ErrAttachFailed) {
		t.Fatalf("Expected ErrAttachFailed, got %v", err)
	}
	if forms.calls["id05"] != 2 {
		t.Errorf("Expected exactly 2 attempts, got %d", forms.calls["id05"])
	}

	// the first form is complete and the second holds Q5 only
	if len(result.Forms) != 2 {
		t.Fatalf("Expected 2 forms left in place, got %d", len(result.Forms))
	}
	if len(result.Forms[0].Questions) != 4 {
		t.Errorf("Expected a complete first form, got %d questions", len(result.Forms[0].Questions))
	}
	if len(result.Forms[1].Questions) != 1 {
		t.Errorf("Expected Q5 only in the second form, got %d questions", len(result.Forms[1].Questions))
	}
	if _, ok := forms.calls["id07"]; ok {
		t.Error("Expected the build to stop before later images")
	}
}

// cancellingForms fails the first image attach and cancels the build while
// the retry is still pending
type cancellingForms struct {
	providers.Forms
	cancel context.CancelFunc
	calls  int
}

func (f *cancellingForms) AddImageItem(context.Context, string, string, models.ImageContent) (models.ItemRef, error) {
	f.calls++
	f.cancel()
	return models.ItemRef{}, errors.New("service unavailable")
}

func TestBuildCancelledDuringRetryIsNotAttachFailure(t *testing.T) {
	store, err := formfile.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	forms := &cancellingForms{Forms: store, cancel: cancel}
	m := metrics.NewRunMetrics("test")

	retry := resilience.Config{MaxAttempts: 2, InitialBackoff: time.Hour}
	b, err := New(Config{Forms: forms, Images: memoryImages{}, Retry: retry, Metrics: m}, testOptions(20, 100))
	if err != nil {
		t.Fatal(err)
	}

	result, err := b.Build(ctx, records(3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrAttachFailed) {
		t.Errorf("Expected cancellation not to be reported as an attach failure, got %v", err)
	}
	if forms.calls != 1 {
		t.Errorf("Expected 1 attach attempt, got %d", forms.calls)
	}
	if len(result.Forms) != 1 {
		t.Errorf("Expected the started form to be reported, got %d forms", len(result.Forms))
	}

	expected := `
# HELP formbuilder_image_attach_failures_total Image attachments that failed after all attempts.
# TYPE formbuilder_image_attach_failures_total counter
formbuilder_image_attach_failures_total{run_id="test"} 0
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "formbuilder_image_attach_failures_total"); err != nil {
		t.Errorf("Unexpected attach failure count: %v", err)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	store, err := formfile.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := testOptions(20, 100)
	opts.Choices = []string{"yes", "no"}
	if _, err := New(Config{Forms: store, Images: memoryImages{}}, opts); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}
	if _, err := New(Config{Images: memoryImages{}}, testOptions(20, 100)); err == nil {
		t.Error("Expected missing form provider to fail")
	}
}
