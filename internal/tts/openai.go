package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const speechURL = "https://api.openai.com/v1/audio/speech"

// readChunkSize keeps chunks small enough to start playback before the
// whole utterance is synthesized.
const readChunkSize = 4096

// OpenAIClient streams synthesis from OpenAI's speech endpoint. Output is
// raw 24 kHz mono 16-bit PCM when response_format is "pcm".
type OpenAIClient struct {
	HTTPClient *http.Client
	APIKey     string
	Model      string
	Voice      string
}

func NewOpenAIClient(apiKey, model, voice string) *OpenAIClient {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAIClient{
		HTTPClient: &http.Client{},
		APIKey:     apiKey,
		Model:      model,
		Voice:      voice,
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// StreamPCM synthesizes text and forwards the response body in chunks as it
// downloads. Both channels are closed when the stream ends.
func (c *OpenAIClient) StreamPCM(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	pcmCh := make(chan []byte, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(pcmCh)
		defer close(errCh)

		if c.APIKey == "" {
			errCh <- fmt.Errorf("openai tts: API key missing")
			return
		}
		if text == "" {
			return
		}

		reqBody, _ := json.Marshal(speechRequest{
			Model:          c.Model,
			Input:          text,
			Voice:          c.Voice,
			ResponseFormat: "pcm",
		})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, speechURL, bytes.NewReader(reqBody))
		if err != nil {
			errCh <- err
			return
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			errCh <- fmt.Errorf("openai tts: %w", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			errCh <- fmt.Errorf("openai tts error: status=%d body=%s", resp.StatusCode, string(b))
			return
		}

		buf := make([]byte, readChunkSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case pcmCh <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- fmt.Errorf("openai tts read: %w", err)
				return
			}
		}
	}()

	return pcmCh, errCh
}
