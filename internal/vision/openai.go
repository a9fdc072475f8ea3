package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAI speaks the chat completions wire format. Any compatible gateway works
// as long as the model accepts image_url content parts.
type OpenAI struct {
	apiURL string
	apiKey string
	model  string
	http   *http.Client
}

func NewOpenAI(apiURL, apiKey, model string, client *http.Client) *OpenAI {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAI{apiURL: apiURL, apiKey: apiKey, model: model, http: client}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Classify(ctx context.Context, imageURL, prompt string) (string, error) {
	return o.complete(ctx, prompt, imageURL)
}

func (o *OpenAI) Compare(ctx context.Context, imageURL1, imageURL2, prompt string) (string, error) {
	return o.complete(ctx, prompt, imageURL1, imageURL2)
}

func (o *OpenAI) complete(ctx context.Context, prompt string, imageURLs ...string) (string, error) {
	parts := []chatContentPart{{Type: "text", Text: prompt}}
	for _, u := range imageURLs {
		parts = append(parts, chatContentPart{Type: "image_url", ImageURL: &chatImageURL{URL: u, Detail: "auto"}})
	}

	payload, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, truncate(string(body), 200))
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrProvider)
	}

	switch v := completion.Choices[0].Message.Content.(type) {
	case string:
		return v, nil
	case []interface{}:
		var sb strings.Builder
		for _, p := range v {
			if m, ok := p.(map[string]interface{}); ok {
				if text, ok := m["text"].(string); ok {
					sb.WriteString(text)
				}
			}
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("%w: unexpected content type %T", ErrProvider, v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
