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

type AzureClient struct{}

func (c *AzureClient) Name() string { return "azure" }

type azureResponse []struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (c *AzureClient) Translate(ctx context.Context, req Request) (string, error) {
	body, _ := json.Marshal([]map[string]string{{"Text": req.Text}})
	endpoint := "https://api.cognitive.microsofttranslator.com/translate?api-version=3.0&to=" +
		url.QueryEscape(codeFor(azureCodes, req.TargetLanguage, "en"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", req.Key)
	if req.Region != "" {
		httpReq.Header.Set("Ocp-Apim-Subscription-Region", req.Region)
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
	var r azureResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "unparsable response: " + excerpt(raw, req.Key)}
	}
	if len(r) == 0 || len(r[0].Translations) == 0 {
		return "", &apperr.UpstreamError{Source: c.Name(), Body: "empty translations"}
	}
	return r[0].Translations[0].Text, nil
}
