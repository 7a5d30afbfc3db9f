package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/formbuilder/internal/builder"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for a survey configuration that cannot be built
var ErrInvalid = errors.New("invalid survey configuration")

// Survey is the full description of one build run
type Survey struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	NamePrompt  string   `yaml:"name_prompt"`
	Question    string   `yaml:"question"`
	Choices     []string `yaml:"choices"`
	PerPage     int      `yaml:"questions_per_page"`
	PerForm     int      `yaml:"questions_per_form"`

	ImagePath      []string `yaml:"image_path"`
	OutputFolder   string   `yaml:"output_folder"`
	ManifestName   string   `yaml:"manifest_name"`
	RequestSpacing Duration `yaml:"request_spacing"`
	RetryDelay     Duration `yaml:"retry_delay"`
}

// Duration reads Go duration strings such as "250ms" from YAML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default is the small mammal image survey
func Default() Survey {
	return Survey{
		Title:       "Small Mammal Image Survey",
		Description: "Look at each image and choose how confident you are that it shows a small mammal.",
		NamePrompt:  "Please enter your name",
		Question:    "How confident are you that this image shows a small mammal?",
		Choices: []string{
			"Not at all confident",
			"Slightly confident",
			"Moderately confident",
			"Very confident",
			"Completely confident",
		},
		PerPage: 20,
		PerForm: 100,

		ImagePath:      []string{"select_images", "small_mammals"},
		OutputFolder:   "forms",
		ManifestName:   "small_mammals_imageID.csv",
		RequestSpacing: Duration{250 * time.Millisecond},
		RetryDelay:     Duration{1 * time.Second},
	}
}

// Load reads a survey file over the defaults; fields absent from the file keep their default.
// The result is not validated so callers can apply overrides first.
func Load(path string) (Survey, error) {
	survey := Default()
	if path == "" {
		return survey, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return survey, fmt.Errorf("failed to read survey config: %w", err)
	}
	if err := yaml.Unmarshal(data, &survey); err != nil {
		return survey, fmt.Errorf("failed to parse survey config: %w", err)
	}
	return survey, nil
}

func (s Survey) Validate() error {
	if err := s.BuilderOptions().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(s.ImagePath) == 0 {
		return fmt.Errorf("%w: image_path is empty", ErrInvalid)
	}
	for _, name := range append(append([]string{}, s.ImagePath...), s.OutputFolder, s.ManifestName) {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: invalid folder or file name %q", ErrInvalid, name)
		}
	}
	if s.RequestSpacing.Duration < 0 || s.RetryDelay.Duration < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalid)
	}
	return nil
}

// BuilderOptions extracts the form layout settings
func (s Survey) BuilderOptions() builder.Options {
	return builder.Options{
		Title:       s.Title,
		Description: s.Description,
		NamePrompt:  s.NamePrompt,
		Question:    s.Question,
		Choices:     s.Choices,
		PerPage:     s.PerPage,
		PerForm:     s.PerForm,
	}
}
