package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/prompt"
	"github.com/af-corp/nova-gateway/internal/types"
)

const (
	frequencyPenalty = 0.6
	presencePenalty  = 0.1

	// EmptyCompletion replaces a completion without content.
	EmptyCompletion = "Unable to generate response"
	// DefaultImageCaption replaces an image response without text.
	DefaultImageCaption = "Here's your generated image!"
)

var errDecode = errors.New("decode upstream response")

// ChatClient calls one OpenAI-compatible chat-completion endpoint.
type ChatClient struct {
	provider types.Provider
	cfg      config.ProviderConfig
	client   *http.Client
	retry    RetryPolicy
}

// NewChatClient creates a client for provider. A nil client gets one with
// the provider's configured timeout.
func NewChatClient(provider types.Provider, cfg config.ProviderConfig, client *http.Client, retry RetryPolicy) *ChatClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &ChatClient{provider: provider, cfg: cfg, client: client, retry: retry}
}

func (c *ChatClient) Provider() types.Provider { return c.provider }

// HasKey reports whether the client has a configured credential.
func (c *ChatClient) HasKey() bool { return c.cfg.APIKey != "" }

// ChatRequest is one chat completion. APIKey overrides the configured key.
type ChatRequest struct {
	Model       string
	Messages    []prompt.Message
	MaxTokens   int
	Temperature *float64
	APIKey      string
}

type chatRequestBody struct {
	Model            string           `json:"model"`
	Messages         []prompt.Message `json:"messages"`
	MaxTokens        int              `json:"max_tokens,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
	FrequencyPenalty float64          `json:"frequency_penalty"`
	PresencePenalty  float64          `json:"presence_penalty"`
}

type imageRequestBody struct {
	Model      string           `json:"model"`
	Messages   []prompt.Message `json:"messages"`
	Modalities []string         `json:"modalities"`
}

type chatResponseBody struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Images  []struct {
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends a chat completion and returns the first choice's text.
func (c *ChatClient) Complete(ctx context.Context, req ChatRequest) (*types.UpstreamResponse, error) {
	body := chatRequestBody{
		Model:            req.Model,
		Messages:         req.Messages,
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
	}

	var out chatResponseBody
	err := c.retry.do(ctx, func() error {
		return c.post(ctx, body, req.APIKey, &out, func(status int, raw string) error {
			return chatError(c.provider, status, raw, c.cfg.SettingsURL)
		})
	})
	if err != nil {
		return nil, err
	}

	text := ""
	if len(out.Choices) > 0 {
		text = out.Choices[0].Message.Content
	}
	if strings.TrimSpace(text) == "" {
		text = EmptyCompletion
	}
	return &types.UpstreamResponse{Text: text}, nil
}

// GenerateImage asks an image model for image and text output.
func (c *ChatClient) GenerateImage(ctx context.Context, query, model string) (*types.UpstreamResponse, error) {
	body := imageRequestBody{
		Model:      model,
		Messages:   prompt.ImageGenerationMessages(query),
		Modalities: []string{"image", "text"},
	}

	var out chatResponseBody
	err := c.retry.do(ctx, func() error {
		return c.post(ctx, body, "", &out, func(status int, raw string) error {
			return imageError(status, raw)
		})
	})
	if err != nil {
		return nil, err
	}

	resp := &types.UpstreamResponse{Text: DefaultImageCaption, GeneratedImageURLs: []string{}}
	if len(out.Choices) == 0 {
		return resp, nil
	}
	msg := out.Choices[0].Message
	if msg.Content != "" {
		resp.Text = msg.Content
	}
	for _, img := range msg.Images {
		if img.ImageURL.URL != "" {
			resp.GeneratedImageURLs = append(resp.GeneratedImageURLs, img.ImageURL.URL)
		}
	}
	return resp, nil
}

// post sends body to the chat-completions endpoint and decodes a 2xx reply
// into out. Other statuses are turned into errors by onStatus.
func (c *ChatClient) post(ctx context.Context, body any, apiKey string, out any, onStatus func(int, string) error) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", c.provider, err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}

	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	for k, v := range c.cfg.Headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send %s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return onStatus(resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w from %s: %w", errDecode, c.provider, err)
	}
	return nil
}
