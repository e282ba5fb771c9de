package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/local/pdftranslate/internal/kv"
	"github.com/local/pdftranslate/internal/translate"
)

// historyMax caps the retained entries per user; the oldest fall off.
const historyMax = 50

// historyTTL keeps abandoned histories from accumulating forever.
const historyTTL = 90 * 24 * time.Hour

// History persists completed translation results per user, most recent
// first. Every mutation re-serializes the full list so the backing store
// always holds a consistent snapshot.
type History struct {
	mu    sync.Mutex
	store kv.Store
}

func NewHistory(store kv.Store) *History {
	return &History{store: store}
}

func historyKey(userID string) string {
	return fmt.Sprintf("history:%s", userID)
}

func (h *History) load(ctx context.Context, userID string) ([]translate.Result, error) {
	raw, ok, err := h.store.Get(ctx, historyKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var items []translate.Result
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// A corrupt snapshot is unrecoverable; start over rather than fail
		// every request.
		return nil, nil
	}
	return items, nil
}

func (h *History) save(ctx context.Context, userID string, items []translate.Result) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.store.Set(ctx, historyKey(userID), string(data), historyTTL); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Add prepends a result and persists the updated list.
func (h *History) Add(ctx context.Context, userID string, r translate.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	items, err := h.load(ctx, userID)
	if err != nil {
		return err
	}
	items = append([]translate.Result{r}, items...)
	if len(items) > historyMax {
		items = items[:historyMax]
	}
	return h.save(ctx, userID, items)
}

// List returns the user's history, most recent first.
func (h *History) List(ctx context.Context, userID string) ([]translate.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx, userID)
}

// Find returns the entry with the given result id.
func (h *History) Find(ctx context.Context, userID, resultID string) (*translate.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	items, err := h.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == resultID {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Delete removes one entry by result id. Returns whether it existed.
func (h *History) Delete(ctx context.Context, userID, resultID string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	items, err := h.load(ctx, userID)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	found := false
	for _, it := range items {
		if it.ID == resultID {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	if !found {
		return false, nil
	}
	return true, h.save(ctx, userID, kept)
}

// Clear drops the whole history for a user.
func (h *History) Clear(ctx context.Context, userID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Delete(ctx, historyKey(userID)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
