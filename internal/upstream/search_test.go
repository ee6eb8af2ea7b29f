package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/af-corp/nova-gateway/internal/config"
)

func TestSearchClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "caller-key", body["api_key"])
		assert.Equal(t, "What is quantum computing?", body["query"])
		assert.Equal(t, "basic", body["search_depth"])
		assert.Equal(t, true, body["include_images"])
		assert.Equal(t, false, body["include_answer"])
		assert.EqualValues(t, 3, body["max_results"])

		w.Write([]byte(`{
			"results": [
				{"title": "Quantum computing", "url": "https://en.wikipedia.org/wiki/Quantum_computing", "content": "A quantum computer..."},
				{"title": "IBM", "url": "https://www.ibm.com:443/topics/quantum", "content": "IBM explains"},
				{"title": "Broken", "url": "::not a url", "content": "x"},
				{"title": "Extra", "url": "https://extra.example", "content": "dropped"}
			],
			"images": ["https://img.example/a.png", {"url": "https://img.example/b.png", "description": "b"}, ""]
		}`))
	}))
	defer srv.Close()

	c := NewSearchClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "configured"}, srv.Client())
	res, err := c.Search(context.Background(), "What is quantum computing?", "caller-key")
	require.NoError(t, err)

	require.Len(t, res.Sources, MaxSources)
	assert.Equal(t, "en.wikipedia.org", res.Sources[0].Domain)
	assert.Equal(t, "A quantum computer...", res.Sources[0].Snippet)
	assert.Equal(t, "www.ibm.com", res.Sources[1].Domain)
	assert.Equal(t, "", res.Sources[2].Domain)
	assert.Equal(t, []string{"https://img.example/a.png", "https://img.example/b.png"}, res.Images)
}

func TestSearchClient_UsesConfiguredKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "configured", body["api_key"])
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewSearchClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "configured"}, srv.Client())
	res, err := c.Search(context.Background(), "q", "")
	require.NoError(t, err)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)
	assert.Empty(t, res.Images)
}

func TestSearchClient_NoKey(t *testing.T) {
	c := NewSearchClient(config.ProviderConfig{BaseURL: "http://unused"}, nil)
	assert.False(t, c.HasKey())
	_, err := c.Search(context.Background(), "q", "")
	assert.ErrorIs(t, err, ErrNoSearchKey)
}

func TestSearchClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			c := NewSearchClient(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"}, srv.Client())
			_, err := c.Search(context.Background(), "q", "")
			assert.Error(t, err)
		})
	}
}
