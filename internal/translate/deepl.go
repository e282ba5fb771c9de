package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/local/pdftranslate/internal/apperr"
)

type DeepLClient struct{}

func (c *DeepLClient) Name() string { return "deepl" }

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (c *DeepLClient) Translate(ctx context.Context, req Request) (string, error) {
	form := url.Values{
		"text":        {req.Text},
		"target_lang": {codeFor(deeplCodes, req.TargetLanguage, "EN-US")},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api-free.deepl.com/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+req.Key)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: redact(err.Error(), req.Key)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.UpstreamError{Source: c.Name(), StatusCode: resp.StatusCode, Body: excerpt(raw, req.Key)}
	}
	var r deeplResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "unparsable response: " + excerpt(raw, req.Key)}
	}
	if len(r.Translations) == 0 {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "empty translations"}
	}
	return r.Translations[0].Text, nil
}
