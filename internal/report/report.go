package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/formbuilder/internal/config"
	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	StatusComplete = "complete"
	StatusAborted  = "aborted"
)

// Run records what one build produced, so responses can be traced back
// to the images they were given for.
type Run struct {
	RunID     string                `yaml:"run_id"`
	Timestamp string                `yaml:"timestamp"`
	Status    string                `yaml:"status"`
	Error     string                `yaml:"error,omitempty"`
	Backend   string                `yaml:"backend"`
	FolderID  string                `yaml:"folder_id"`
	FormsDir  string                `yaml:"forms_dir,omitempty"`
	Seed      uint64                `yaml:"seed"`
	Survey    config.Survey         `yaml:"survey"`
	Manifest  models.File           `yaml:"manifest"`
	Forms     []models.FormDocument `yaml:"forms"`
}

// Questions returns every image question across the forms, in order
func (r *Run) Questions() []models.Question {
	var out []models.Question
	for _, f := range r.Forms {
		out = append(out, f.Questions...)
	}
	return out
}

// Save writes the run to dir/<run id>.yaml and returns the path
func Save(dir string, run *Run) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	path := filepath.Join(dir, run.RunID+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return path, nil
}

func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run report: %w", err)
	}
	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &run, nil
}
