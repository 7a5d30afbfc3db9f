// Package formfile is a form provider that writes each form to a directory
// as a YAML document, with the attached images stored next to it. It lets a
// build run end to end without a forms service, and reads hand-written
// responses back for the collect command.
package formfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	formFile      = "form.yaml"
	responsesFile = "responses.yaml"
	imagesDir     = "images"
)

// Item kinds as written to form.yaml
const (
	KindText      = "text"
	KindImage     = "image"
	KindChoice    = "choice"
	KindPageBreak = "page_break"
)

type Document struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Items       []Item `yaml:"items"`
}

type Item struct {
	ID         string   `yaml:"id"`
	Kind       string   `yaml:"kind"`
	Title      string   `yaml:"title,omitempty"`
	QuestionID string   `yaml:"question_id,omitempty"`
	Required   bool     `yaml:"required,omitempty"`
	Choices    []string `yaml:"choices,omitempty"`
	Image      *Image   `yaml:"image,omitempty"`
}

type Image struct {
	Name     string `yaml:"name"`
	SourceID string `yaml:"source_id"`
	URL      string `yaml:"url"`
	File     string `yaml:"file"`
	MIMEType string `yaml:"mime_type"`
	Bytes    int    `yaml:"bytes"`
}

// ResponseFile is the shape of an optional responses.yaml beside a form
type ResponseFile struct {
	Responses []ResponseEntry `yaml:"responses"`
}

type ResponseEntry struct {
	ID          string              `yaml:"id"`
	SubmittedAt time.Time           `yaml:"submitted_at"`
	Answers     map[string][]string `yaml:"answers"`
}

// Store keeps forms under one directory, one subdirectory per form
type Store struct {
	dir   string
	mu    sync.Mutex
	forms map[string]*Document
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create forms directory: %w", err)
	}
	return &Store{
		dir:   dir,
		forms: make(map[string]*Document),
	}, nil
}

func (s *Store) CreateForm(_ context.Context, title, description string) (models.FormRef, error) {
	doc := &Document{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
	}
	if err := os.MkdirAll(filepath.Join(s.dir, doc.ID, imagesDir), 0755); err != nil {
		return models.FormRef{}, fmt.Errorf("failed to create form directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[doc.ID] = doc
	if err := s.save(doc); err != nil {
		return models.FormRef{}, err
	}
	return models.FormRef{
		ID:           doc.ID,
		ResponderURL: "file://" + filepath.ToSlash(filepath.Join(s.dir, doc.ID, formFile)),
	}, nil
}

func (s *Store) AddTextItem(_ context.Context, formID, title string, required bool) (models.ItemRef, error) {
	return s.append(formID, Item{Kind: KindText, Title: title, Required: required}, true)
}

func (s *Store) AddImageItem(_ context.Context, formID, title string, image models.ImageContent) (models.ItemRef, error) {
	s.mu.Lock()
	doc, ok := s.forms[formID]
	n := 0
	if ok {
		n = len(doc.Items)
	}
	s.mu.Unlock()
	if !ok {
		return models.ItemRef{}, fmt.Errorf("unknown form %s", formID)
	}

	name := fmt.Sprintf("%03d-%s", n, filepath.Base(image.Record.Name))
	if err := os.WriteFile(filepath.Join(s.dir, formID, imagesDir, name), image.Data, 0644); err != nil {
		return models.ItemRef{}, fmt.Errorf("failed to store image %s: %w", image.Record.Name, err)
	}

	return s.append(formID, Item{
		Kind:  KindImage,
		Title: title,
		Image: &Image{
			Name:     image.Record.Name,
			SourceID: image.Record.ID,
			URL:      image.URL,
			File:     filepath.ToSlash(filepath.Join(imagesDir, name)),
			MIMEType: image.MIMEType,
			Bytes:    len(image.Data),
		},
	}, false)
}

func (s *Store) AddChoiceItem(_ context.Context, formID, title string, choices []string, required bool) (models.ItemRef, error) {
	return s.append(formID, Item{
		Kind:     KindChoice,
		Title:    title,
		Required: required,
		Choices:  append([]string(nil), choices...),
	}, true)
}

func (s *Store) AddPageBreak(_ context.Context, formID string) (models.ItemRef, error) {
	return s.append(formID, Item{Kind: KindPageBreak}, false)
}

// ListResponses reads responses.yaml beside the form; a missing file means no responses
func (s *Store) ListResponses(_ context.Context, formID string) ([]models.Response, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, formID, responsesFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read responses for form %s: %w", formID, err)
	}

	var file ResponseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse responses for form %s: %w", formID, err)
	}

	responses := make([]models.Response, 0, len(file.Responses))
	for _, r := range file.Responses {
		responses = append(responses, models.Response{
			ID:          r.ID,
			SubmittedAt: r.SubmittedAt,
			Answers:     r.Answers,
		})
	}
	return responses, nil
}

// Load reads a form document written by a Store rooted at dir
func Load(dir, formID string) (*Document, error) {
	data, err := os.ReadFile(filepath.Join(dir, formID, formFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read form %s: %w", formID, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse form %s: %w", formID, err)
	}
	return &doc, nil
}

func (s *Store) append(formID string, item Item, question bool) (models.ItemRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.forms[formID]
	if !ok {
		return models.ItemRef{}, fmt.Errorf("unknown form %s", formID)
	}
	item.ID = fmt.Sprintf("item-%03d", len(doc.Items))
	if question {
		item.QuestionID = fmt.Sprintf("q-%03d", len(doc.Items))
	}
	doc.Items = append(doc.Items, item)
	if err := s.save(doc); err != nil {
		return models.ItemRef{}, err
	}
	return models.ItemRef{ItemID: item.ID, QuestionID: item.QuestionID}, nil
}

// save must be called with s.mu held
func (s *Store) save(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal form %s: %w", doc.ID, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, doc.ID, formFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write form %s: %w", doc.ID, err)
	}
	return nil
}
