package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Gemini calls generateContent with the photos inlined as base64. Image URLs
// are fetched by the server first since the API does not pull remote URLs.
type Gemini struct {
	baseURL  string
	apiKey   string
	model    string
	maxImage int64
	http     *http.Client
}

func NewGemini(baseURL, apiKey, model string, maxImageBytes int, client *http.Client) *Gemini {
	if client == nil {
		client = http.DefaultClient
	}
	if maxImageBytes <= 0 {
		maxImageBytes = 10 << 20
	}
	return &Gemini{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		maxImage: int64(maxImageBytes),
		http:     client,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	Text       string            `json:"text,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Classify(ctx context.Context, imageURL, prompt string) (string, error) {
	img, err := g.fetchImage(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return g.generate(ctx, prompt, img)
}

// Compare fetches both photos concurrently; the first failure cancels the other.
func (g *Gemini) Compare(ctx context.Context, imageURL1, imageURL2, prompt string) (string, error) {
	images := make([]*geminiInlineData, 2)
	eg, egCtx := errgroup.WithContext(ctx)
	for i, u := range []string{imageURL1, imageURL2} {
		i, u := i, u
		eg.Go(func() error {
			img, err := g.fetchImage(egCtx, u)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return "", err
	}
	return g.generate(ctx, prompt, images...)
}

func (g *Gemini) generate(ctx context.Context, prompt string, images ...*geminiInlineData) (string, error) {
	parts := make([]geminiPart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, geminiPart{InlineData: img})
	}
	parts = append(parts, geminiPart{Text: prompt})

	payload, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrProvider, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, redactKey(err.Error(), g.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrProvider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, truncate(string(body), 200))
	}

	var out geminiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrProvider, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrProvider)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Gemini) fetchImage(ctx context.Context, imageURL string) (*geminiInlineData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: image request: %v", ErrProvider, err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch image: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch image: status %d", ErrProvider, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %v", ErrProvider, err)
	}
	if int64(len(data)) > g.maxImage {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrProvider, g.maxImage)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return &geminiInlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(data)}, nil
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(key), "REDACTED")
}
