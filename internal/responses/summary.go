package responses

import (
	"fmt"
	"io"
	"sort"
)

// ImageSummary aggregates the answers given for one image
type ImageSummary struct {
	QuestionNumber int
	ImageName      string
	ImageID        string
	Responses      int
	// Counts holds how often each choice was picked, in choice order
	Counts []int
	// MeanIndex is the average 1-based choice index over answers matching a choice
	MeanIndex float64
}

// Summarize groups rows by image, ordered by question number
func Summarize(rows []AnswerRow, choices []string) []ImageSummary {
	byImage := make(map[string]*ImageSummary)
	totals := make(map[string]int)

	for _, r := range rows {
		s, ok := byImage[r.ImageID]
		if !ok {
			s = &ImageSummary{
				QuestionNumber: r.QuestionNumber,
				ImageName:      r.ImageName,
				ImageID:        r.ImageID,
				Counts:         make([]int, len(choices)),
			}
			byImage[r.ImageID] = s
		}
		s.Responses++
		if r.AnswerIndex > 0 && r.AnswerIndex <= len(choices) {
			s.Counts[r.AnswerIndex-1]++
			totals[r.ImageID] += r.AnswerIndex
		}
	}

	out := make([]ImageSummary, 0, len(byImage))
	for id, s := range byImage {
		matched := 0
		for _, c := range s.Counts {
			matched += c
		}
		if matched > 0 {
			s.MeanIndex = float64(totals[id]) / float64(matched)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	return out
}

// PrintSummary writes a plain text table of per-image results
func PrintSummary(w io.Writer, summaries []ImageSummary, choices []string) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Image Survey Response Summary")
	fmt.Fprintln(w, "========================================")
	for i, c := range choices {
		fmt.Fprintf(w, "  %d = %s\n", i+1, c)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-5s %-32s %9s %6s  %s\n", "Q", "Image", "Responses", "Mean", "Counts")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-5d %-32s %9d %6.2f  %v\n", s.QuestionNumber, s.ImageName, s.Responses, s.MeanIndex, s.Counts)
	}
}
