package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	tavilySearchURL  = "https://api.tavily.com/search"
	tavilyExtractURL = "https://api.tavily.com/extract"
)

// SearchResult is one hit returned by the search API.
type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchClient is the web retrieval surface the ingestor needs: find source
// URLs for a query, then pull the raw page text for one of them.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
	Extract(ctx context.Context, url string) (string, error)
}

// TavilyClient calls the Tavily search and extract APIs.
type TavilyClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewTavilyClient(apiKey string) *TavilyClient {
	return &TavilyClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	payload := map[string]any{
		"query":       query,
		"max_results": maxResults,
	}

	respBody, err := t.post(ctx, tavilySearchURL, payload)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	var response struct {
		Results []SearchResult `json:"results"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("tavily search: decode response: %w", err)
	}
	if len(response.Results) > maxResults {
		response.Results = response.Results[:maxResults]
	}
	return response.Results, nil
}

func (t *TavilyClient) Extract(ctx context.Context, url string) (string, error) {
	payload := map[string]any{
		"urls": []string{url},
	}

	respBody, err := t.post(ctx, tavilyExtractURL, payload)
	if err != nil {
		return "", fmt.Errorf("tavily extract: %w", err)
	}

	var response struct {
		Results []struct {
			URL        string `json:"url"`
			RawContent string `json:"raw_content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("tavily extract: decode response: %w", err)
	}
	if len(response.Results) == 0 {
		return "", fmt.Errorf("tavily extract: no content for %s", url)
	}
	return response.Results[0].RawContent, nil
}

// post sends one Tavily API call, backing off and retrying on 429 with the
// delay doubling each attempt up to 30 s.
func (t *TavilyClient) post(ctx context.Context, url string, payload map[string]any) ([]byte, error) {
	if t.apiKey == "" {
		return nil, errors.New("API key is missing")
	}
	payload["api_key"] = t.apiKey

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		_ = resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
