package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/local/pdftranslate/internal/apperr"
)

func TestChatTranslateSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  你好世界  "}},
			},
		})
	}))
	defer srv.Close()

	out, err := chatTranslate(context.Background(), srv.URL, "openai", "gpt-3.5-turbo", "sk-test",
		Request{Text: "hello world", TargetLanguage: "zh-CN"})
	if err != nil {
		t.Fatalf("chatTranslate: %v", err)
	}
	if out != "你好世界" {
		t.Fatalf("content = %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "gpt-3.5-turbo" {
		t.Fatalf("model = %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.3 {
		t.Fatalf("temperature = %v", gotReq.Temperature)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "hello world" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "Simplified Chinese") {
		t.Fatalf("system prompt should name the target language: %q", gotReq.Messages[0].Content)
	}
}

func TestChatTranslateUpstreamErrorRedacted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key sk-secret-key"}`))
	}))
	defer srv.Close()

	_, err := chatTranslate(context.Background(), srv.URL, "openai", "gpt-3.5-turbo", "sk-secret-key",
		Request{Text: "hi", TargetLanguage: "zh-CN"})
	var ue *apperr.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", ue.StatusCode)
	}
	if strings.Contains(ue.Body, "sk-secret-key") {
		t.Fatalf("credential leaked into error body: %s", ue.Body)
	}
	if !strings.Contains(ue.Body, "[redacted]") {
		t.Fatalf("expected redaction marker in %q", ue.Body)
	}
}

func TestChatTranslateUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	_, err := chatTranslate(context.Background(), srv.URL, "deepseek", "deepseek-chat", "k",
		Request{Text: "hi", TargetLanguage: "en-US"})
	var ue *apperr.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if !strings.Contains(ue.Body, "unparsable response") {
		t.Fatalf("body = %q", ue.Body)
	}
}

func TestExcerptTruncates(t *testing.T) {
	long := strings.Repeat("a", 1000)
	got := excerpt([]byte(long))
	if len(got) != 503 {
		t.Fatalf("len = %d, want 503", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix")
	}
}
