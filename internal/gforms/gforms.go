package gforms

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/formbuilder/internal/models"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/option"
)

// Client is a form provider backed by the Google Forms API.
// Items are always appended, so the client tracks the next item index for
// every form it has created or touched.
type Client struct {
	srv *forms.Service

	mu   sync.Mutex
	next map[string]int64
}

// New creates a Forms client from the given client options
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	srv, err := forms.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create forms client: %w", err)
	}
	return &Client{srv: srv, next: make(map[string]int64)}, nil
}

func (c *Client) CreateForm(ctx context.Context, title, description string) (models.FormRef, error) {
	f, err := c.srv.Forms.Create(&forms.Form{
		Info: &forms.Info{Title: title, DocumentTitle: title},
	}).Context(ctx).Do()
	if err != nil {
		return models.FormRef{}, fmt.Errorf("failed to create form %q: %w", title, err)
	}

	if description != "" {
		req := &forms.BatchUpdateFormRequest{
			Requests: []*forms.Request{descriptionRequest(description)},
		}
		if _, err := c.srv.Forms.BatchUpdate(f.FormId, req).Context(ctx).Do(); err != nil {
			return models.FormRef{}, fmt.Errorf("failed to set description on form %s: %w", f.FormId, err)
		}
	}

	c.mu.Lock()
	c.next[f.FormId] = 0
	c.mu.Unlock()

	return models.FormRef{ID: f.FormId, ResponderURL: f.ResponderUri}, nil
}

func (c *Client) AddTextItem(ctx context.Context, formID, title string, required bool) (models.ItemRef, error) {
	return c.createItem(ctx, formID, textItem(title, required))
}

// AddImageItem attaches the image by URL. Forms fetches the URL itself, so a
// Drive image must be shared with anyone holding the link.
func (c *Client) AddImageItem(ctx context.Context, formID, title string, image models.ImageContent) (models.ItemRef, error) {
	if image.URL == "" {
		return models.ItemRef{}, fmt.Errorf("image %s has no source URL", image.Record.Name)
	}
	return c.createItem(ctx, formID, imageItem(title, image.URL))
}

func (c *Client) AddChoiceItem(ctx context.Context, formID, title string, choices []string, required bool) (models.ItemRef, error) {
	return c.createItem(ctx, formID, choiceItem(title, choices, required))
}

func (c *Client) AddPageBreak(ctx context.Context, formID string) (models.ItemRef, error) {
	return c.createItem(ctx, formID, &forms.Item{PageBreakItem: &forms.PageBreakItem{}})
}

func (c *Client) createItem(ctx context.Context, formID string, item *forms.Item) (models.ItemRef, error) {
	c.mu.Lock()
	index := c.next[formID]
	c.mu.Unlock()

	req := &forms.BatchUpdateFormRequest{
		Requests: []*forms.Request{createItemRequest(item, index)},
	}
	resp, err := c.srv.Forms.BatchUpdate(formID, req).Context(ctx).Do()
	if err != nil {
		return models.ItemRef{}, fmt.Errorf("failed to add item to form %s: %w", formID, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].CreateItem == nil {
		return models.ItemRef{}, fmt.Errorf("form %s returned no item for create request", formID)
	}

	c.mu.Lock()
	c.next[formID] = index + 1
	c.mu.Unlock()

	created := resp.Replies[0].CreateItem
	ref := models.ItemRef{ItemID: created.ItemId}
	if len(created.QuestionId) > 0 {
		ref.QuestionID = created.QuestionId[0]
	}
	return ref, nil
}

// ListResponses returns every submitted response to a form
func (c *Client) ListResponses(ctx context.Context, formID string) ([]models.Response, error) {
	var out []models.Response
	err := c.srv.Forms.Responses.List(formID).Pages(ctx, func(page *forms.ListFormResponsesResponse) error {
		for _, r := range page.Responses {
			out = append(out, convertResponse(r))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list responses for form %s: %w", formID, err)
	}
	return out, nil
}

func descriptionRequest(description string) *forms.Request {
	return &forms.Request{
		UpdateFormInfo: &forms.UpdateFormInfoRequest{
			Info:       &forms.Info{Description: description},
			UpdateMask: "description",
		},
	}
}

// createItemRequest places item at index. Index 0 is a valid location, so it
// is always sent even though it is the zero value.
func createItemRequest(item *forms.Item, index int64) *forms.Request {
	return &forms.Request{
		CreateItem: &forms.CreateItemRequest{
			Item: item,
			Location: &forms.Location{
				Index:           index,
				ForceSendFields: []string{"Index"},
			},
		},
	}
}

func textItem(title string, required bool) *forms.Item {
	return &forms.Item{
		Title: title,
		QuestionItem: &forms.QuestionItem{
			Question: &forms.Question{
				Required:     required,
				TextQuestion: &forms.TextQuestion{},
			},
		},
	}
}

func imageItem(title, sourceURI string) *forms.Item {
	return &forms.Item{
		Title: title,
		ImageItem: &forms.ImageItem{
			Image: &forms.Image{SourceUri: sourceURI},
		},
	}
}

func choiceItem(title string, choices []string, required bool) *forms.Item {
	options := make([]*forms.Option, len(choices))
	for i, c := range choices {
		options[i] = &forms.Option{Value: c}
	}
	return &forms.Item{
		Title: title,
		QuestionItem: &forms.QuestionItem{
			Question: &forms.Question{
				Required: required,
				ChoiceQuestion: &forms.ChoiceQuestion{
					Type:    "RADIO",
					Options: options,
				},
			},
		},
	}
}

func convertResponse(r *forms.FormResponse) models.Response {
	resp := models.Response{
		ID:      r.ResponseId,
		Answers: make(map[string][]string, len(r.Answers)),
	}
	if ts, err := time.Parse(time.RFC3339Nano, r.LastSubmittedTime); err == nil {
		resp.SubmittedAt = ts
	}
	for questionID, answer := range r.Answers {
		if answer.TextAnswers == nil {
			continue
		}
		values := make([]string, 0, len(answer.TextAnswers.Answers))
		for _, a := range answer.TextAnswers.Answers {
			values = append(values, a.Value)
		}
		resp.Answers[questionID] = values
	}
	return resp
}
