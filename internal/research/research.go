// Package research turns a company website URL into a business profile by
// asking a web-search-capable model to read the site.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/moona3k/website-to-voice-agent/internal/business"
	"github.com/moona3k/website-to-voice-agent/internal/prompt"
	"github.com/moona3k/website-to-voice-agent/internal/sanitize"
)

const responsesURL = "https://api.openai.com/v1/responses"

type Client struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		HTTPClient: &http.Client{},
		APIKey:     apiKey,
		Model:      model,
	}
}

type responsesRequest struct {
	Model string          `json:"model"`
	Tools []responsesTool `json:"tools,omitempty"`
	Input string          `json:"input"`
}

type responsesTool struct {
	Type string `json:"type"`
}

type responsesResponse struct {
	Output []outputItem `json:"output"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Research reads the given website with the model's web_search tool and
// returns the extracted business profile, with empty fields filled from the
// built-in defaults. Callers fall back to business.Defaults on error.
func (c *Client) Research(ctx context.Context, url string) (business.Config, error) {
	if c.APIKey == "" {
		return business.Config{}, fmt.Errorf("openai api key missing")
	}
	reqBody, _ := json.Marshal(responsesRequest{
		Model: c.Model,
		Tools: []responsesTool{{Type: "web_search"}},
		Input: prompt.BuildResearchPrompt(url),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responsesURL, bytes.NewReader(reqBody))
	if err != nil {
		return business.Config{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return business.Config{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return business.Config{}, fmt.Errorf("openai responses error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var rr responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return business.Config{}, err
	}

	text := outputText(rr)
	cleaned, err := sanitize.Clean(text)
	if err != nil {
		return business.Config{}, fmt.Errorf("research output: %w", err)
	}
	var cfg business.Config
	if err := json.Unmarshal([]byte(cleaned), &cfg); err != nil {
		return business.Config{}, fmt.Errorf("research output not valid json: %w", err)
	}
	cfg.WebsiteURL = url
	return cfg.MergeDefaults(), nil
}

// outputText joins the model's message text parts, skipping tool-use items
// like the web_search call records that precede the answer.
func outputText(rr responsesResponse) string {
	var b strings.Builder
	for _, item := range rr.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}
