package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/local/pdftranslate/internal/config"
	"github.com/local/pdftranslate/internal/extract"
	"github.com/local/pdftranslate/internal/kv"
	"github.com/local/pdftranslate/internal/pipeline"
	"github.com/local/pdftranslate/internal/session"
	"github.com/local/pdftranslate/internal/translate"
	"github.com/local/pdftranslate/internal/upload"
	"github.com/local/pdftranslate/internal/usage"
)

func newTestServer(t *testing.T, dailyLimit int) (*httptest.Server, *http.Client) {
	t.Helper()
	store := kv.NewMemory()
	cfg := config.Config{
		Quota: config.QuotaConfig{DailyLimit: dailyLimit, ShareBase: "http://example.test"},
	}
	srv := New(Dependencies{
		Config:     cfg,
		Sessions:   session.NewManager(0),
		History:    session.NewHistory(store),
		Tracker:    usage.New(store, usage.Options{DailyLimit: dailyLimit}),
		Translator: translate.NewService(config.ProvidersConfig{RequestTimeout: time.Second}),
		Pipeline:   pipeline.New(pipeline.Dependencies{Native: &extract.Native{}, OutputDir: t.TempDir()}),
		Acceptor:   upload.New(1<<20, t.TempDir()),
	})
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return ts, &http.Client{Jar: jar}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return m
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestUsageEndpoint(t *testing.T) {
	ts, client := newTestServer(t, 5)

	resp, err := client.Get(ts.URL + "/api/usage")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	userID, _ := body["user_id"].(string)
	if userID == "" {
		t.Fatal("user_id missing")
	}
	quota := body["quota"].(map[string]any)
	if quota["limit"].(float64) != 5 || quota["remaining"].(float64) != 5 {
		t.Fatalf("quota = %+v", quota)
	}
	link, _ := body["share_link"].(string)
	if !strings.Contains(link, userID) {
		t.Fatalf("share link %q should carry the user id", link)
	}

	// Second call reuses the cookie and the same identity.
	resp2, err := client.Get(ts.URL + "/api/usage")
	if err != nil {
		t.Fatal(err)
	}
	body2 := decodeBody(t, resp2)
	if body2["user_id"] != userID {
		t.Fatalf("user id changed: %v -> %v", userID, body2["user_id"])
	}
}

func TestTranslateMissingKeyConsumesQuota(t *testing.T) {
	ts, client := newTestServer(t, 2)

	resp := postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"text":     "hello world",
		"provider": "google",
		"language": "zh-CN",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	result := body["result"].(map[string]any)
	translated, _ := result["translatedText"].(string)
	if !strings.HasPrefix(translated, "[error]") {
		t.Fatalf("translatedText = %q", translated)
	}
	quota := body["quota"].(map[string]any)
	if quota["used"].(float64) != 1 {
		t.Fatalf("quota after failed-key attempt = %+v", quota)
	}
}

func TestTranslateQuotaExhausted(t *testing.T) {
	ts, client := newTestServer(t, 1)

	// First call consumes the single free slot.
	resp := postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"text": "hello", "provider": "google", "language": "zh-CN",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"text": "again", "provider": "google", "language": "zh-CN",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("second status = %d, want 403", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["kind"] != "quota_exceeded" {
		t.Fatalf("kind = %v", body["kind"])
	}
	if link, _ := body["share_link"].(string); !strings.HasPrefix(link, "http://example.test/?ref=") {
		t.Fatalf("share_link = %v", body["share_link"])
	}
}

func TestTranslateRejectsUnknownLanguage(t *testing.T) {
	ts, client := newTestServer(t, 5)
	resp := postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"text": "hello", "provider": "google", "language": "xx-YY",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTranslateNothingToTranslate(t *testing.T) {
	ts, client := newTestServer(t, 5)
	resp := postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"provider": "google", "language": "zh-CN",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestShareClickRejectsSelf(t *testing.T) {
	ts, client := newTestServer(t, 5)

	resp, err := client.Get(ts.URL + "/api/usage")
	if err != nil {
		t.Fatal(err)
	}
	userID := decodeBody(t, resp)["user_id"].(string)

	r := postJSON(t, client, ts.URL+"/api/share/click", map[string]any{"ref": userID})
	if r.StatusCode != http.StatusBadRequest {
		t.Fatalf("self click status = %d", r.StatusCode)
	}
	r.Body.Close()

	// A click on someone else's link is accepted and raises their quota.
	r = postJSON(t, client, ts.URL+"/api/share/click", map[string]any{"ref": "other-user"})
	if r.StatusCode != http.StatusOK {
		t.Fatalf("other click status = %d", r.StatusCode)
	}
	r.Body.Close()
}

func TestHistoryLifecycle(t *testing.T) {
	ts, client := newTestServer(t, 5)

	// One translation (missing-key path) lands in history.
	resp := postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"text": "hello", "provider": "google", "language": "zh-CN",
	})
	result := decodeBody(t, resp)["result"].(map[string]any)
	resultID := result["id"].(string)

	resp, err := client.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	items := decodeBody(t, resp)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("history len = %d", len(items))
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/history/"+resultID, nil)
	dresp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if dresp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", dresp.StatusCode)
	}
	dresp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatal(err)
	}
	items = decodeBody(t, resp)["items"].([]any)
	if len(items) != 0 {
		t.Fatalf("history after delete = %d", len(items))
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	ts, client := newTestServer(t, 5)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "page.pdf")
	fmt.Fprint(fw, "<html><body>not a pdf</body></html>")
	mw.Close()

	resp, err := client.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["kind"] != "validation" {
		t.Fatalf("kind = %v", body["kind"])
	}
}

func TestDownloadNotFound(t *testing.T) {
	ts, client := newTestServer(t, 5)
	resp, err := client.Get(ts.URL + "/api/download/nonexistent?format=txt")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDownloadFromHistory(t *testing.T) {
	ts, client := newTestServer(t, 5)

	resp := postJSON(t, client, ts.URL+"/api/translate", map[string]any{
		"text": "hello", "provider": "google", "language": "zh-CN", "file_name": "doc.pdf",
	})
	result := decodeBody(t, resp)["result"].(map[string]any)
	resultID := result["id"].(string)

	resp, err := client.Get(ts.URL + "/api/download/" + resultID + "?format=txt")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "doc_zh-CN.txt") {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestCapabilityListings(t *testing.T) {
	ts, client := newTestServer(t, 5)

	resp, err := client.Get(ts.URL + "/api/languages")
	if err != nil {
		t.Fatal(err)
	}
	langs := decodeBody(t, resp)["languages"].([]any)
	if len(langs) == 0 {
		t.Fatal("no languages listed")
	}

	resp, err = client.Get(ts.URL + "/api/providers")
	if err != nil {
		t.Fatal(err)
	}
	provs := decodeBody(t, resp)["providers"].([]any)
	if len(provs) != 6 {
		t.Fatalf("providers = %v", provs)
	}
}
