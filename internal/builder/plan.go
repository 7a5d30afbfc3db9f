package builder

import (
	"errors"
	"fmt"
	"strings"
)

// ChoiceCount is the number of answer options every question offers
const ChoiceCount = 5

// ErrInvalidOptions is returned for options a build cannot run with
var ErrInvalidOptions = errors.New("invalid build options")

// Options describes the content and layout of the generated forms
type Options struct {
	Title       string
	Description string
	NamePrompt  string
	Question    string
	Choices     []string
	PerPage     int
	PerForm     int
}

func (o Options) Validate() error {
	var problems []string
	if strings.TrimSpace(o.Title) == "" {
		problems = append(problems, "title is empty")
	}
	if strings.TrimSpace(o.NamePrompt) == "" {
		problems = append(problems, "name prompt is empty")
	}
	if len(o.Choices) != ChoiceCount {
		problems = append(problems, fmt.Sprintf("expected %d choices, got %d", ChoiceCount, len(o.Choices)))
	}
	if o.PerPage <= 0 {
		problems = append(problems, "questions per page must be positive")
	}
	if o.PerForm <= 0 {
		problems = append(problems, "questions per form must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(problems, "; "))
	}
	return nil
}

// FormPlan is the layout of one form before anything is created
type FormPlan struct {
	Number int
	Title  string
	Items  []PlannedItem
}

// PlannedItem places one image question
type PlannedItem struct {
	// Index is the 0-based position in the shuffled records
	Index int
	// Number is the 1-based question number across all forms
	Number         int
	Title          string
	PageBreakAfter bool
}

// Plan partitions n questions into forms of at most PerForm questions.
// Numbering and page breaks are global: a break follows question i when
// i is a multiple of PerPage and is not the last question.
func Plan(n int, opts Options) []FormPlan {
	if n <= 0 || opts.PerForm <= 0 || opts.PerPage <= 0 {
		return nil
	}

	plans := make([]FormPlan, 0, (n+opts.PerForm-1)/opts.PerForm)
	for i := 0; i < n; i++ {
		if i%opts.PerForm == 0 {
			number := i/opts.PerForm + 1
			plans = append(plans, FormPlan{
				Number: number,
				Title:  FormTitle(opts.Title, number),
			})
		}
		number := i + 1
		current := &plans[len(plans)-1]
		current.Items = append(current.Items, PlannedItem{
			Index:          i,
			Number:         number,
			Title:          QuestionTitle(number, opts.Question),
			PageBreakAfter: number%opts.PerPage == 0 && number != n,
		})
	}
	return plans
}

// FormTitle suffixes the title with the 1-based form number
func FormTitle(title string, number int) string {
	return fmt.Sprintf("%s(%d)", title, number)
}

// QuestionTitle labels a question with its global number
func QuestionTitle(number int, question string) string {
	if question == "" {
		return fmt.Sprintf("Q%d", number)
	}
	return fmt.Sprintf("Q%d: %s", number, question)
}
