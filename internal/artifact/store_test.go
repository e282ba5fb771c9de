package artifact

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/local/pdftranslate/internal/config"
	"github.com/local/pdftranslate/internal/extract"
)

func TestLocalStorePlain(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(config.ArtifactConfig{LocalDir: dir})

	doc := &extract.Document{Text: "hello", PageCount: 2}
	path, err := store.Store(context.Background(), "sess-1", doc)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got extract.Document
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Text != "hello" || got.PageCount != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestLocalStoreEncrypted(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(config.ArtifactConfig{LocalDir: dir, EncPassphrase: "pp"})

	doc := &extract.Document{Text: "sensitive", PageCount: 1}
	path, err := store.Store(context.Background(), "sess-1", doc)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if json.Valid(data) {
		t.Fatal("encrypted artifact must not be plain JSON")
	}

	plain, err := Decrypt(data, "pp")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	var got extract.Document
	if err := json.Unmarshal(plain, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Text != "sensitive" {
		t.Fatalf("got %+v", got)
	}
}
