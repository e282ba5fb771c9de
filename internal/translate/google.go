package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/local/pdftranslate/internal/apperr"
)

type GoogleClient struct{}

func (c *GoogleClient) Name() string { return "google" }

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GoogleClient) Translate(ctx context.Context, req Request) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"q":      req.Text,
		"target": codeFor(googleCodes, req.TargetLanguage, "en"),
		"format": "text",
	})
	endpoint := "https://translation.googleapis.com/language/translate/v2?key=" + url.QueryEscape(req.Key)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: redact(err.Error(), req.Key)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.UpstreamError{Source: c.Name(), StatusCode: resp.StatusCode, Body: excerpt(raw, req.Key)}
	}
	var r googleResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "unparsable response: " + excerpt(raw, req.Key)}
	}
	if r.Error != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: redact(r.Error.Message, req.Key)}
	}
	if len(r.Data.Translations) == 0 {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "empty translations"}
	}
	return r.Data.Translations[0].TranslatedText, nil
}
