package translate

import (
	"context"
	"testing"
	"time"

	"github.com/local/pdftranslate/internal/apperr"
	"github.com/local/pdftranslate/internal/config"
)

func TestRegistryHasAllProviders(t *testing.T) {
	for _, name := range []string{"openai", "deepseek", "baidu", "google", "azure", "deepl"} {
		c, ok := Lookup(name)
		if !ok {
			t.Fatalf("provider %s not registered", name)
		}
		if c.Name() != name {
			t.Fatalf("provider %s reports name %s", name, c.Name())
		}
	}
	if _, ok := Lookup("nonexistent"); ok {
		t.Fatal("unknown provider must not resolve")
	}
}

func TestBuildRequestCredentialResolution(t *testing.T) {
	svc := NewService(config.ProvidersConfig{
		OpenAIKey:      "server-openai",
		AzureKey:       "server-azure",
		AzureRegion:    "westeurope",
		RequestTimeout: 10 * time.Second,
	})

	tests := []struct {
		name     string
		provider string
		keys     UserKeys
		wantKey  string
		wantErr  bool
	}{
		{name: "user key wins", provider: "openai", keys: UserKeys{OpenAI: "user-openai"}, wantKey: "user-openai"},
		{name: "server key fallback", provider: "openai", wantKey: "server-openai"},
		{name: "no key at all", provider: "google", wantErr: true},
		{name: "deepseek needs no key", provider: "deepseek", wantKey: ""},
		{name: "azure server key", provider: "azure", wantKey: "server-azure"},
		{name: "baidu needs both halves", provider: "baidu", keys: UserKeys{BaiduAppID: "id"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := svc.buildRequest(tc.provider, "hello", "zh-CN", tc.keys)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !apperr.IsMissingCredential(err) {
					t.Fatalf("want MissingCredentialError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildRequest: %v", err)
			}
			if req.Key != tc.wantKey {
				t.Fatalf("key = %q, want %q", req.Key, tc.wantKey)
			}
		})
	}
}

func TestBaiduCredentialsResolved(t *testing.T) {
	svc := NewService(config.ProvidersConfig{BaiduAppID: "sid", BaiduAppKey: "skey"})
	req, err := svc.buildRequest("baidu", "hi", "zh-CN", UserKeys{})
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.AppID != "sid" || req.AppSecret != "skey" {
		t.Fatalf("got appid=%q secret=%q", req.AppID, req.AppSecret)
	}

	req, err = svc.buildRequest("baidu", "hi", "zh-CN", UserKeys{BaiduAppID: "uid", BaiduAppKey: "ukey"})
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if req.AppID != "uid" || req.AppSecret != "ukey" {
		t.Fatalf("user keys must win: appid=%q secret=%q", req.AppID, req.AppSecret)
	}
}

func TestTranslateUnknownProvider(t *testing.T) {
	svc := NewService(config.ProvidersConfig{})
	_, err := svc.Translate(context.Background(), "hi", "unknown", "zh-CN", UserKeys{})
	if err == nil || !apperr.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}
