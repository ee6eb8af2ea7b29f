package types

import (
	"slices"
	"strings"
	"time"
)

// SearchRequest is the inbound body of POST /search.
type SearchRequest struct {
	Query        string        `json:"query" validate:"required,notblank,max=5000"`
	Model        string        `json:"model,omitempty"`
	MaxTokens    *int          `json:"maxTokens,omitempty" validate:"omitempty,min=100,max=32768"`
	Temperature  *float64      `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	SystemPrompt string        `json:"systemPrompt,omitempty" validate:"max=10000"`
	Attachments  []Attachment  `json:"attachments,omitempty" validate:"max=10,dive"`
	APIKeys      *ProviderKeys `json:"apiKeys,omitempty"`

	// Internal tracking
	RequestID  string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// Attachment is a file or image the UI extracted client-side.
type Attachment struct {
	Name        string `json:"name" validate:"required,max=255"`
	Type        string `json:"type" validate:"required,max=100"`
	ContentText string `json:"contentText,omitempty" validate:"max=100000"`
	DataURL     string `json:"dataUrl,omitempty" validate:"max=10000000"`
}

// ProviderKeys are caller-supplied credentials. Primary authenticates the
// direct provider, Secondary the search provider.
type ProviderKeys struct {
	Primary   string `json:"primary,omitempty" validate:"max=500"`
	Secondary string `json:"secondary,omitempty" validate:"max=500"`
}

// IsImage reports whether the attachment carries an image mime type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.Type), "image/")
}

// IsDocument reports whether the attachment is text-bearing.
func (a Attachment) IsDocument() bool {
	if a.ContentText != "" {
		return true
	}
	t := strings.ToLower(a.Type)
	return strings.Contains(t, "pdf") || strings.Contains(t, "document")
}

// ImageDataURLs returns the data URIs of image attachments in order.
func (r *SearchRequest) ImageDataURLs() []string {
	var urls []string
	for _, a := range r.Attachments {
		if a.IsImage() && a.DataURL != "" {
			urls = append(urls, a.DataURL)
		}
	}
	return urls
}

// HasImages reports whether any attachment is an image, whether or not the
// client managed to inline it as a data URI.
func (r *SearchRequest) HasImages() bool {
	return slices.ContainsFunc(r.Attachments, Attachment.IsImage)
}

// PrimaryKey returns the caller's direct-provider credential, if any.
func (r *SearchRequest) PrimaryKey() string {
	if r.APIKeys == nil {
		return ""
	}
	return r.APIKeys.Primary
}

// SecondaryKey returns the caller's search-provider credential, if any.
func (r *SearchRequest) SecondaryKey() string {
	if r.APIKeys == nil {
		return ""
	}
	return r.APIKeys.Secondary
}

// RoutedRequest is a validated request after classification and routing.
// Content filters inspect it before anything leaves the process.
type RoutedRequest struct {
	Search   *SearchRequest
	Intent   Intent
	Decision RoutingDecision
}

// Texts returns the query and system prompt, the text the caller typed.
func (r *RoutedRequest) Texts() []string {
	texts := []string{r.Search.Query}
	if r.Search.SystemPrompt != "" {
		texts = append(texts, r.Search.SystemPrompt)
	}
	return texts
}

// AttachmentTexts returns the extracted text of every attachment that has any.
func (r *RoutedRequest) AttachmentTexts() []string {
	var texts []string
	for _, a := range r.Search.Attachments {
		if a.ContentText != "" {
			texts = append(texts, a.ContentText)
		}
	}
	return texts
}
