package responses

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/formbuilder/internal/providers"
	"github.com/lehigh-university-libraries/formbuilder/internal/report"
)

// AnswerRow is one respondent's answer to one image question
type AnswerRow struct {
	FormNumber     int    `json:"form_number" parquet:"form_number"`
	ResponseID     string `json:"response_id" parquet:"response_id"`
	Respondent     string `json:"respondent" parquet:"respondent"`
	SubmittedAt    string `json:"submitted_at" parquet:"submitted_at"`
	QuestionNumber int    `json:"question_number" parquet:"question_number"`
	ImageName      string `json:"image_name" parquet:"image_name"`
	ImageID        string `json:"image_id" parquet:"image_id"`
	Answer         string `json:"answer" parquet:"answer"`
	// AnswerIndex is the 1-based position of Answer in the choices, 0 when unknown
	AnswerIndex int `json:"answer_index" parquet:"answer_index"`
}

// Header lists the column names in AnswerRow order
var Header = []string{
	"form_number", "response_id", "respondent", "submitted_at",
	"question_number", "image_name", "image_id", "answer", "answer_index",
}

// Collect gathers every response to the forms of a run and correlates each
// answer with the image its question showed. Unanswered questions are skipped.
func Collect(ctx context.Context, src providers.ResponseSource, run *report.Run) ([]AnswerRow, error) {
	choiceIndex := make(map[string]int, len(run.Survey.Choices))
	for i, c := range run.Survey.Choices {
		choiceIndex[c] = i + 1
	}

	var rows []AnswerRow
	for _, form := range run.Forms {
		list, err := src.ListResponses(ctx, form.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list responses for form %d: %w", form.Number, err)
		}
		slog.Info("Collected responses", "form", form.Number, "id", form.ID, "responses", len(list))

		for _, resp := range list {
			respondent := first(resp.Answers[form.NameQuestionID])
			submitted := ""
			if !resp.SubmittedAt.IsZero() {
				submitted = resp.SubmittedAt.UTC().Format(time.RFC3339)
			}

			for _, q := range form.Questions {
				answer := first(resp.Answers[q.QuestionID])
				if q.QuestionID == "" || answer == "" {
					continue
				}
				rows = append(rows, AnswerRow{
					FormNumber:     form.Number,
					ResponseID:     resp.ID,
					Respondent:     respondent,
					SubmittedAt:    submitted,
					QuestionNumber: q.Number,
					ImageName:      q.Image.Name,
					ImageID:        q.Image.ID,
					Answer:         answer,
					AnswerIndex:    choiceIndex[answer],
				})
			}
		}
	}
	return rows, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
