package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/apperr"
	"github.com/local/pdftranslate/internal/config"
	"github.com/local/pdftranslate/internal/metrics"
)

// UserKeys carries per-provider credentials supplied with a request. They
// take precedence over server configuration.
type UserKeys struct {
	OpenAI      string `json:"openai,omitempty"`
	DeepSeek    string `json:"deepseek,omitempty"`
	BaiduAppID  string `json:"baidu_app_id,omitempty"`
	BaiduAppKey string `json:"baidu_app_key,omitempty"`
	Google      string `json:"google,omitempty"`
	Azure       string `json:"azure,omitempty"`
	DeepL       string `json:"deepl,omitempty"`
}

// Service resolves credentials and dispatches to the registered provider
// clients. A failed call surfaces immediately; there is no retry.
type Service struct {
	conf    config.ProvidersConfig
	timeout time.Duration
}

func NewService(conf config.ProvidersConfig) *Service {
	timeout := conf.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{conf: conf, timeout: timeout}
}

// Translate performs one translation through the selected provider.
func (s *Service) Translate(ctx context.Context, text, provider, targetLanguage string, keys UserKeys) (Result, error) {
	client, ok := Lookup(provider)
	if !ok {
		return Result{}, &apperr.ValidationError{Message: fmt.Sprintf("unsupported provider: %s", provider)}
	}

	req, err := s.buildRequest(client.Name(), text, targetLanguage, keys)
	if err != nil {
		return Result{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	translated, err := client.Translate(cctx, req)
	dur := time.Since(start)

	if err != nil {
		result := "error"
		if cctx.Err() == context.DeadlineExceeded {
			result = "timeout"
			err = &apperr.UpstreamError{Source: provider, Body: fmt.Sprintf("request timed out after %s", s.timeout)}
		}
		metrics.ObserveTranslation(provider, result, dur)
		log.Warn().Err(err).Str("provider", provider).Dur("duration", dur).Msg("translation failed")
		return Result{}, err
	}

	metrics.ObserveTranslation(provider, "success", dur)
	return Result{
		ID:             uuid.NewString(),
		OriginalText:   text,
		TranslatedText: translated,
		Provider:       provider,
		TargetLanguage: targetLanguage,
		Timestamp:      time.Now().UnixMilli(),
	}, nil
}

// buildRequest resolves the credential for provider, preferring user keys
// over server configuration. DeepSeek is exempt: it ships a fallback key.
func (s *Service) buildRequest(provider, text, targetLanguage string, keys UserKeys) (Request, error) {
	req := Request{Text: text, TargetLanguage: targetLanguage, Timeout: s.timeout}
	switch provider {
	case "openai":
		req.Key = firstNonEmpty(keys.OpenAI, s.conf.OpenAIKey)
	case "deepseek":
		req.Key = firstNonEmpty(keys.DeepSeek, s.conf.DeepSeekKey)
		return req, nil // built-in fallback key
	case "baidu":
		req.AppID = firstNonEmpty(keys.BaiduAppID, s.conf.BaiduAppID)
		req.AppSecret = firstNonEmpty(keys.BaiduAppKey, s.conf.BaiduAppKey)
		if req.AppID == "" || req.AppSecret == "" {
			return Request{}, &apperr.MissingCredentialError{Provider: provider}
		}
		return req, nil
	case "google":
		req.Key = firstNonEmpty(keys.Google, s.conf.GoogleKey)
	case "azure":
		req.Key = firstNonEmpty(keys.Azure, s.conf.AzureKey)
		req.Region = s.conf.AzureRegion
	case "deepl":
		req.Key = firstNonEmpty(keys.DeepL, s.conf.DeepLKey)
	}
	if req.Key == "" {
		return Request{}, &apperr.MissingCredentialError{Provider: provider}
	}
	return req, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
