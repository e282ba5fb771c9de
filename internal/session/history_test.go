package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/local/pdftranslate/internal/kv"
	"github.com/local/pdftranslate/internal/translate"
)

func TestHistoryRoundTrip(t *testing.T) {
	h := NewHistory(kv.NewMemory())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		err := h.Add(ctx, "u1", translate.Result{
			ID:             fmt.Sprintf("r%d", i),
			OriginalText:   "src",
			TranslatedText: fmt.Sprintf("out %d", i),
			Provider:       "deepseek",
			TargetLanguage: "zh-CN",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	items, err := h.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d", len(items))
	}
	// Most recent first.
	if items[0].ID != "r3" || items[2].ID != "r1" {
		t.Fatalf("order = %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}

	// Another user sees nothing.
	other, err := h.List(ctx, "u2")
	if err != nil || len(other) != 0 {
		t.Fatalf("other user history = %v, %v", other, err)
	}
}

func TestHistoryFindAndDelete(t *testing.T) {
	h := NewHistory(kv.NewMemory())
	ctx := context.Background()

	_ = h.Add(ctx, "u1", translate.Result{ID: "a"})
	_ = h.Add(ctx, "u1", translate.Result{ID: "b"})

	got, err := h.Find(ctx, "u1", "a")
	if err != nil || got == nil || got.ID != "a" {
		t.Fatalf("find = %v, %v", got, err)
	}
	if got, _ := h.Find(ctx, "u1", "zzz"); got != nil {
		t.Fatal("missing id must return nil")
	}

	found, err := h.Delete(ctx, "u1", "a")
	if err != nil || !found {
		t.Fatalf("delete = %v, %v", found, err)
	}
	found, err = h.Delete(ctx, "u1", "a")
	if err != nil || found {
		t.Fatal("second delete must report not found")
	}

	items, _ := h.List(ctx, "u1")
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("items = %+v", items)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(kv.NewMemory())
	ctx := context.Background()

	_ = h.Add(ctx, "u1", translate.Result{ID: "a"})
	if err := h.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	items, _ := h.List(ctx, "u1")
	if len(items) != 0 {
		t.Fatalf("items = %+v", items)
	}
}

func TestHistoryCap(t *testing.T) {
	h := NewHistory(kv.NewMemory())
	ctx := context.Background()

	for i := 0; i < historyMax+10; i++ {
		_ = h.Add(ctx, "u1", translate.Result{ID: fmt.Sprintf("r%d", i)})
	}
	items, _ := h.List(ctx, "u1")
	if len(items) != historyMax {
		t.Fatalf("len = %d, want %d", len(items), historyMax)
	}
	if items[0].ID != fmt.Sprintf("r%d", historyMax+9) {
		t.Fatalf("newest = %s", items[0].ID)
	}
}
