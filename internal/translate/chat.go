package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/local/pdftranslate/internal/apperr"
)

// chat-completions wire format shared by the OpenAI-compatible providers.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func translationPrompt(targetLanguage string) string {
	return fmt.Sprintf("You are a professional translation assistant. Translate the following text into %s, preserving the original formatting and tone. The translation must be accurate, natural and fluent. Return only the translation, with no explanations or extra content.", languageName(targetLanguage))
}

// chatTranslate performs one chat-completions call and returns the
// assistant's text.
func chatTranslate(ctx context.Context, endpoint, name, model, apiKey string, req Request) (string, error) {
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: translationPrompt(req.TargetLanguage)},
			{Role: "user", Content: req.Text},
		},
		Temperature: 0.3,
		MaxTokens:   4000,
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", &apperr.UpstreamError{Source: name, Body: redact(err.Error(), apiKey)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.UpstreamError{Source: name, StatusCode: resp.StatusCode, Body: excerpt(raw, apiKey)}
	}
	var r chatResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &apperr.UpstreamError{Source: name, Body: "unparsable response: " + excerpt(raw, apiKey)}
	}
	if len(r.Choices) == 0 {
		return "", &apperr.UpstreamError{Source: name, Body: "no choices in response"}
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}

// excerpt truncates an upstream payload for error messages and strips any
// credential that might have been echoed back.
func excerpt(raw []byte, secrets ...string) string {
	s := string(raw)
	if len(s) > 500 {
		s = s[:500] + "..."
	}
	return redact(s, secrets...)
}

func redact(s string, secrets ...string) string {
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, "[redacted]")
	}
	return s
}
