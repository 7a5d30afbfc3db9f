package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunMetricsCounters(t *testing.T) {
	m := NewRunMetrics("run-1")
	m.ImagesEnumerated(47)
	m.FormCreated()
	m.FormCreated()
	m.ItemCreated("image")
	m.ItemCreated("image")
	m.ItemCreated("choice")
	m.AttachRetried()
	m.ObserveCall("create_form", time.Now(), nil)
	m.ObserveCall("add_image", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.imagesEnumerated); got != 47 {
		t.Errorf("Expected 47 images, got %v", got)
	}
	if got := testutil.ToFloat64(m.formsCreated); got != 2 {
		t.Errorf("Expected 2 forms, got %v", got)
	}
	if got := testutil.ToFloat64(m.itemsCreated.WithLabelValues("image")); got != 2 {
		t.Errorf("Expected 2 image items, got %v", got)
	}
	if got := testutil.ToFloat64(m.attachRetries); got != 1 {
		t.Errorf("Expected 1 retry, got %v", got)
	}
	if got := testutil.CollectAndCount(m.callDuration); got != 2 {
		t.Errorf("Expected 2 latency series, got %d", got)
	}
}

func TestNilRunMetricsIsNoop(t *testing.T) {
	var m *RunMetrics
	m.FormCreated()
	m.ItemCreated("image")
	m.ObserveCall("op", time.Now(), nil)
}

func TestWriteTextfile(t *testing.T) {
	m := NewRunMetrics("run-2")
	m.FormCreated()

	path := filepath.Join(t.TempDir(), "formbuilder.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `formbuilder_forms_created_total{run_id="run-2"} 1`) {
		t.Errorf("Expected forms counter in textfile, got:\n%s", data)
	}
}
