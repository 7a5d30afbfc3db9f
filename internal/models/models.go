package models

import "time"

// ImageRecord pairs an image file name with its storage identifier
type ImageRecord struct {
	Name string `yaml:"name" json:"name"`
	ID   string `yaml:"id" json:"id"`
}

// Folder is a handle to a folder in a storage provider
type Folder struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// File is a handle to a file in a storage provider
type File struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	MIMEType string `yaml:"mime_type,omitempty" json:"mime_type,omitempty"`
}

// ImageContent is a fetched image ready to be attached to a form
type ImageContent struct {
	Record   ImageRecord
	URL      string
	Data     []byte
	MIMEType string
}

// FormRef identifies a form created by a form provider
type FormRef struct {
	ID           string
	ResponderURL string
}

// ItemRef identifies an item created inside a form.
// QuestionID is empty for items that are not questions (images, page breaks).
type ItemRef struct {
	ItemID     string
	QuestionID string
}

// FormDocument is one generated survey form
type FormDocument struct {
	ID             string     `yaml:"id"`
	Number         int        `yaml:"number"`
	Title          string     `yaml:"title"`
	ResponderURL   string     `yaml:"responder_url,omitempty"`
	NameQuestionID string     `yaml:"name_question_id,omitempty"`
	Questions      []Question `yaml:"questions"`
}

// Question is one image + choice pair inside a form
type Question struct {
	Number         int         `yaml:"number"`
	Title          string      `yaml:"title"`
	Image          ImageRecord `yaml:"image"`
	ImageItemID    string      `yaml:"image_item_id,omitempty"`
	ChoiceItemID   string      `yaml:"choice_item_id,omitempty"`
	QuestionID     string      `yaml:"question_id,omitempty"`
	PageBreakAfter bool        `yaml:"page_break_after,omitempty"`
}

// Response is one submitted form response
type Response struct {
	ID          string
	SubmittedAt time.Time
	// Answers maps a question ID to the text answers given for it
	Answers map[string][]string
}
