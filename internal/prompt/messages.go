// Package prompt assembles upstream chat messages and cleans model output.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/af-corp/nova-gateway/internal/types"
)

// MaxAttachmentRunes bounds the extracted text taken from one attachment.
const MaxAttachmentRunes = 50000

// ImagesNote is appended to the user text when images are attached and the
// text does not already mention them.
const ImagesNote = "[Images attached for analysis]"

const (
	personaTemplate = `You are NOVA, a helpful search assistant. Provide comprehensive, well-researched answers with clear structure.

You are currently using the %[1]s model. If asked which model you are, respond with "%[1]s".

Keep your response concise and well-structured, and always complete your final sentence.`

	fileDirective = "FILE ANALYSIS: The user has attached files for you to analyze. Read them carefully and base your insights on their content."

	visionDirective = "VISION MODE: Analyze the attached images in detail. Describe what you see and answer any questions about them."

	formattingNote = `MATHEMATICAL FORMATTING: use LaTeX, $x = 5$ inline and $$\frac{a}{b} = c$$ for display.`
)

// Message is one OpenAI-style chat message. Content is encoded as a plain
// string unless Parts is set.
type Message struct {
	Role  string
	Text  string
	Parts []ContentPart
}

// ContentPart is one element of multi-part message content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.IsMultiPart() {
		return json.Marshal(struct {
			Role    string        `json:"role"`
			Content []ContentPart `json:"content"`
		}{m.Role, m.Parts})
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{m.Role, m.Text})
}

// IsMultiPart reports whether the message carries structured content.
func (m Message) IsMultiPart() bool { return m.Parts != nil }

// Messages is the system and user message pair sent for a chat completion.
type Messages struct {
	System Message
	User   Message
}

func (m Messages) List() []Message { return []Message{m.System, m.User} }

// BuildMessages builds the upstream messages for a search request routed to
// model. The output depends only on its inputs.
func BuildMessages(req *types.SearchRequest, intent types.Intent, model string) Messages {
	var files strings.Builder
	for _, a := range req.Attachments {
		if a.ContentText == "" {
			continue
		}
		files.WriteString("\n\nFile: ")
		files.WriteString(a.Name)
		files.WriteString("\n")
		files.WriteString(truncateRunes(a.ContentText, MaxAttachmentRunes))
	}

	images := req.ImageDataURLs()
	text := req.Query + files.String()
	if len(images) > 0 && !strings.Contains(strings.ToLower(text), "image") {
		text += "\n\n" + ImagesNote
	}

	system := req.SystemPrompt
	if system == "" {
		system = persona(model, files.Len() > 0 || intent == types.IntentFileAnalysis, len(images) > 0 || intent == types.IntentVision)
	}

	user := Message{Role: "user", Text: text}
	if len(images) > 0 {
		user.Parts = make([]ContentPart, 0, len(images)+1)
		user.Parts = append(user.Parts, ContentPart{Type: "text", Text: text})
		for _, u := range images {
			user.Parts = append(user.Parts, ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: u}})
		}
		user.Text = ""
	}

	return Messages{
		System: Message{Role: "system", Text: system},
		User:   user,
	}
}

// ImageGenerationMessages returns the single user message sent to an image model.
func ImageGenerationMessages(query string) []Message {
	return []Message{{Role: "user", Text: query}}
}

func persona(model string, files, vision bool) string {
	sections := []string{fmt.Sprintf(personaTemplate, model)}
	if files {
		sections = append(sections, fileDirective)
	}
	if vision {
		sections = append(sections, visionDirective)
	}
	sections = append(sections, formattingNote)
	return strings.Join(sections, "\n\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
