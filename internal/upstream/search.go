package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/af-corp/nova-gateway/internal/config"
	"github.com/af-corp/nova-gateway/internal/types"
)

// MaxSources is the number of search results requested and returned.
const MaxSources = 3

// ErrNoSearchKey is returned when neither the request nor the config
// carries a search credential.
var ErrNoSearchKey = errors.New("no search credential")

// SearchClient queries the web-search provider.
type SearchClient struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func NewSearchClient(cfg config.ProviderConfig, client *http.Client) *SearchClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SearchClient{cfg: cfg, client: client}
}

// HasKey reports whether a default search credential is configured.
func (c *SearchClient) HasKey() bool { return c.cfg.APIKey != "" }

// SearchResult is what augmentation adds to a response.
type SearchResult struct {
	Sources []types.Source
	Images  []string
}

type searchRequestBody struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeImages bool   `json:"include_images"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponseBody struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
	Images []searchImage `json:"images"`
}

// searchImage accepts either a bare URL or an object with a url field.
type searchImage string

func (s *searchImage) UnmarshalJSON(data []byte) error {
	var u string
	if err := json.Unmarshal(data, &u); err == nil {
		*s = searchImage(u)
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = searchImage(obj.URL)
	return nil
}

// Search runs one basic-depth query. apiKey overrides the configured key.
func (c *SearchClient) Search(ctx context.Context, query, apiKey string) (*SearchResult, error) {
	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}
	if apiKey == "" {
		return nil, ErrNoSearchKey
	}

	data, err := json.Marshal(searchRequestBody{
		APIKey:        apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeImages: true,
		IncludeAnswer: false,
		MaxResults:    MaxSources,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search provider returned status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var out searchResponseBody
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w", err)
	}

	result := &SearchResult{Sources: []types.Source{}, Images: []string{}}
	for _, r := range out.Results {
		if len(result.Sources) == MaxSources {
			break
		}
		result.Sources = append(result.Sources, types.Source{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
			Domain:  hostname(r.URL),
		})
	}
	for _, img := range out.Images {
		if img != "" {
			result.Images = append(result.Images, string(img))
		}
	}
	return result, nil
}

// hostname returns the host of rawURL without port, or "" when it does not parse.
func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
