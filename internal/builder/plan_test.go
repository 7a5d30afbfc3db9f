package builder

import (
	"errors"
	"fmt"
	"testing"
)

func testOptions(perPage, perForm int) Options {
	return Options{
		Title:      "Small Mammals",
		NamePrompt: "Name",
		Question:   "How confident are you?",
		Choices:    []string{"1", "2", "3", "4", "5"},
		PerPage:    perPage,
		PerForm:    perForm,
	}
}

func TestPlanPartitioning(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		perForm   int
		wantSizes []int
	}{
		{name: "empty", n: 0, perForm: 10, wantSizes: nil},
		{name: "single partial form", n: 7, perForm: 10, wantSizes: []int{7}},
		{name: "exact multiple", n: 20, perForm: 10, wantSizes: []int{10, 10}},
		{name: "remainder", n: 47, perForm: 20, wantSizes: []int{20, 20, 7}},
		{name: "one per form", n: 3, perForm: 1, wantSizes: []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := Plan(tt.n, testOptions(5, tt.perForm))

			wantForms := (tt.n + tt.perForm - 1) / tt.perForm
			if len(plans) != wantForms {
				t.Fatalf("Expected %d forms, got %d", wantForms, len(plans))
			}
			for i, p := range plans {
				if len(p.Items) != tt.wantSizes[i] {
					t.Errorf("Form %d: expected %d items, got %d", i+1, tt.wantSizes[i], len(p.Items))
				}
				if p.Number != i+1 {
					t.Errorf("Expected form number %d, got %d", i+1, p.Number)
				}
				wantTitle := fmt.Sprintf("Small Mammals(%d)", i+1)
				if p.Title != wantTitle {
					t.Errorf("Expected title %q, got %q", wantTitle, p.Title)
				}
			}
		})
	}
}

func TestPlanPageBreaks(t *testing.T) {
	plans := Plan(47, testOptions(20, 100))

	var breaks []int
	for _, p := range plans {
		for _, item := range p.Items {
			if item.PageBreakAfter {
				breaks = append(breaks, item.Number)
			}
		}
	}
	if fmt.Sprint(breaks) != "[20 40]" {
		t.Errorf("Expected breaks after 20 and 40, got %v", breaks)
	}
}

func TestPlanNoBreakAfterLastItem(t *testing.T) {
	plans := Plan(40, testOptions(20, 100))
	last := plans[len(plans)-1].Items
	if last[len(last)-1].PageBreakAfter {
		t.Error("Expected no page break after the final question")
	}
	if !plans[0].Items[19].PageBreakAfter {
		t.Error("Expected a page break after question 20")
	}
}

func TestPlanBreaksAreGlobalAcrossForms(t *testing.T) {
	// Per-form limit not a multiple of the per-page limit: breaks follow the
	// global numbering, not a per-form count.
	plans := Plan(12, testOptions(4, 5))

	var breaks []int
	for _, p := range plans {
		for _, item := range p.Items {
			if item.PageBreakAfter {
				breaks = append(breaks, item.Number)
			}
		}
	}
	if fmt.Sprint(breaks) != "[4 8]" {
		t.Errorf("Expected breaks after 4 and 8, got %v", breaks)
	}
}

func TestPlanSequentialNumbering(t *testing.T) {
	plans := Plan(25, testOptions(10, 10))

	want := 1
	for _, p := range plans {
		for _, item := range p.Items {
			if item.Number != want || item.Index != want-1 {
				t.Fatalf("Expected number %d index %d, got %d/%d", want, want-1, item.Number, item.Index)
			}
			wantTitle := fmt.Sprintf("Q%d: How confident are you?", want)
			if item.Title != wantTitle {
				t.Errorf("Expected %q, got %q", wantTitle, item.Title)
			}
			want++
		}
	}
	if want != 26 {
		t.Errorf("Expected 25 questions, got %d", want-1)
	}
}

func TestQuestionTitleWithoutText(t *testing.T) {
	if got := QuestionTitle(3, ""); got != "Q3" {
		t.Errorf("Expected Q3, got %s", got)
	}
}

func TestOptionsValidate(t *testing.T) {
	valid := testOptions(20, 100)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid options, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"four choices", func(o *Options) { o.Choices = o.Choices[:4] }},
		{"zero per page", func(o *Options) { o.PerPage = 0 }},
		{"negative per form", func(o *Options) { o.PerForm = -1 }},
		{"blank title", func(o *Options) { o.Title = "  " }},
		{"blank name prompt", func(o *Options) { o.NamePrompt = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(20, 100)
			tt.mutate(&opts)
			if err := opts.Validate(); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}
