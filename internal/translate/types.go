package translate

import (
	"context"
	"sort"
	"time"
)

// Request is what a provider client needs to perform one translation call.
// Credentials are resolved by the Service before the client runs.
type Request struct {
	Text           string
	TargetLanguage string
	Key            string // single-key providers
	AppID          string // baidu
	AppSecret      string // baidu
	Region         string // azure
	Timeout        time.Duration
}

// Result is the normalized translation record returned to callers.
type Result struct {
	ID             string `json:"id"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Provider       string `json:"provider"`
	TargetLanguage string `json:"targetLanguage"`
	FileName       string `json:"fileName,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// Client is implemented once per provider. Translate performs exactly one
// outbound call; no retries.
type Client interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// registry maps provider ids to clients. Adding a provider means adding a
// file with an implementation and a Register call, not touching dispatch.
var registry = map[string]Client{}

func Register(c Client) { registry[c.Name()] = c }

func Lookup(provider string) (Client, bool) {
	c, ok := registry[provider]
	return c, ok
}

// Providers lists registered provider ids, sorted.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register(&OpenAIClient{})
	Register(&DeepSeekClient{})
	Register(&BaiduClient{})
	Register(&GoogleClient{})
	Register(&AzureClient{})
	Register(&DeepLClient{})
}
