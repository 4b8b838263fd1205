// Package llm is the OpenAI chat-completions client used for both the live
// conversation and the post-call qualification pass.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/moona3k/website-to-voice-agent/internal/agent"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

type OpenAIClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
}

// NewOpenAIClient builds a client with no request timeout of its own; calls
// are bounded by the caller's context.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		HTTPClient: &http.Client{},
		APIKey:     apiKey,
		Model:      model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []tool        `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type responseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls"`
}

type chatChoice struct {
	Index        int             `json:"index"`
	FinishReason string          `json:"finish_reason"`
	Message      responseMessage `json:"message"`
}

type chatCompletionsResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

// endConversationTool lets the model hang up deliberately instead of hoping
// a goodbye phrase gets string-matched.
var endConversationTool = tool{
	Type: "function",
	Function: toolFunction{
		Name:        "end_conversation",
		Description: "End the phone call. Use only after the caller indicates the conversation is over.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
	},
}

// Respond generates the agent's next conversational reply. The end
// conversation tool is always offered; a tool call of that name maps to
// Reply.EndCall.
func (c *OpenAIClient) Respond(ctx context.Context, history []agent.Message) (agent.Reply, error) {
	messages := make([]chatMessage, len(history))
	for i, m := range history {
		messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	cr, err := c.do(ctx, chatCompletionsRequest{
		Model:    c.Model,
		Messages: messages,
		Tools:    []tool{endConversationTool},
	})
	if err != nil {
		return agent.Reply{}, err
	}
	msg := cr.Choices[0].Message
	reply := agent.Reply{Text: strings.TrimSpace(msg.Content)}
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == endConversationTool.Function.Name {
			reply.EndCall = true
		}
	}
	return reply, nil
}

// Complete runs a single-shot prompt with explicit sampling bounds. Used for
// the qualification pass, which wants deterministic, capped output.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	cr, err := c.do(ctx, chatCompletionsRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) do(ctx context.Context, body chatCompletionsRequest) (*chatCompletionsResponse, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	reqBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatCompletionsURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai error: status=%d body=%s", resp.StatusCode, string(b))
	}
	var cr chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices")
	}
	return &cr, nil
}
