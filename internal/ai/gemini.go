// Package ai talks to the generative-text provider and renders the marketing prompts.
package ai

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
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-2.0-flash"
)

// Generator produces text for a system instruction and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// GeminiConfig configures the Gemini generateContent endpoint.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// GeminiClient is a Generator backed by the Gemini REST API.
type GeminiClient struct {
	cfg GeminiConfig
}

// NewGeminiClient builds a client. An empty API key is rejected; callers that
// want a degraded assistant pass a nil Generator instead.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultGeminiModel
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &GeminiClient{cfg: cfg}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

func (g *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is required")
	}

	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if system = strings.TrimSpace(system); system != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, url.PathEscape(g.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels only in this header and never appears in errors.
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw[:min(len(raw), 4096)]))
		}
		return "", fmt.Errorf("generate request status %d: %s", res.StatusCode, msg)
	}

	if reason := gjson.GetBytes(raw, "promptFeedback.blockReason").String(); reason != "" {
		return "", fmt.Errorf("prompt blocked: %s", reason)
	}
	var sb strings.Builder
	for _, part := range gjson.GetBytes(raw, "candidates.0.content.parts.#.text").Array() {
		sb.WriteString(part.String())
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("generate response contained no text")
	}
	return text, nil
}
