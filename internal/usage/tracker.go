package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/kv"
)

// Quota is the outcome of a limit check.
type Quota struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
}

// Tracker keeps per-user daily translation counters and referral bonuses in
// an injected kv.Store. The server-side store is the single authoritative
// counter; clients only mirror what it reports.
type Tracker struct {
	store      kv.Store
	dailyLimit int
	usageTTL   time.Duration
	bonusTTL   time.Duration
	now        func() time.Time
}

type Options struct {
	DailyLimit int
	UsageTTL   time.Duration
	BonusTTL   time.Duration
}

func New(store kv.Store, opts Options) *Tracker {
	if opts.DailyLimit <= 0 {
		opts.DailyLimit = 5
	}
	if opts.UsageTTL <= 0 {
		opts.UsageTTL = 7 * 24 * time.Hour
	}
	if opts.BonusTTL <= 0 {
		opts.BonusTTL = 30 * 24 * time.Hour
	}
	return &Tracker{
		store:      store,
		dailyLimit: opts.DailyLimit,
		usageTTL:   opts.UsageTTL,
		bonusTTL:   opts.BonusTTL,
		now:        time.Now,
	}
}

// SetClock overrides the time source, used by tests for day rollover.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

func (t *Tracker) day() string { return t.now().UTC().Format("2006-01-02") }

func (t *Tracker) usageKey(userID string) string {
	return fmt.Sprintf("usage:%s:%s", userID, t.day())
}

func bonusKey(userID string) string { return "bonus:" + userID }

func clickKey(refID string) string { return "clicks:" + refID }

// UserID returns a stable identifier, minting a new one when existing is
// empty. The second return reports whether a new id was created (the HTTP
// layer then persists it in a long-lived cookie).
func (t *Tracker) UserID(existing string) (string, bool) {
	if existing != "" {
		return existing, false
	}
	return uuid.NewString(), true
}

// TodayUsage reads the counter keyed by today's date, 0 when absent or
// unparsable.
func (t *Tracker) TodayUsage(ctx context.Context, userID string) int {
	v, ok, err := t.store.Get(ctx, t.usageKey(userID))
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ShareBonus reads the cumulative referral bonus counter.
func (t *Tracker) ShareBonus(ctx context.Context, userID string) int {
	v, ok, err := t.store.Get(ctx, bonusKey(userID))
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// AddShareBonus grants count extra translations to userID.
func (t *Tracker) AddShareBonus(ctx context.Context, userID string, count int) error {
	if count <= 0 {
		return nil
	}
	cur := t.ShareBonus(ctx, userID)
	return t.store.Set(ctx, bonusKey(userID), strconv.Itoa(cur+count), t.bonusTTL)
}

// Check computes the quota state without mutating anything.
func (t *Tracker) Check(ctx context.Context, userID string) Quota {
	used := t.TodayUsage(ctx, userID)
	limit := t.dailyLimit + t.ShareBonus(ctx, userID)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Quota{
		Allowed:   used < limit,
		Remaining: remaining,
		Used:      used,
		Limit:     limit,
	}
}

// Record increments today's counter. Enforcement happens at Check time, not
// retroactively.
func (t *Tracker) Record(ctx context.Context, userID string) error {
	_, err := t.store.Incr(ctx, t.usageKey(userID), t.usageTTL)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("usage record failed")
	}
	return err
}

// RecordShareClick counts a referral visit and grants the referrer one bonus
// translation. Self-clicks are rejected.
func (t *Tracker) RecordShareClick(ctx context.Context, refID, visitorID string) error {
	if refID == "" {
		return fmt.Errorf("missing referrer id")
	}
	if refID == visitorID {
		return fmt.Errorf("cannot use own share link")
	}
	if _, err := t.store.Incr(ctx, clickKey(refID), t.bonusTTL); err != nil {
		return err
	}
	return t.AddShareBonus(ctx, refID, 1)
}

// ShareClicks returns how many referral visits refID has accumulated.
func (t *Tracker) ShareClicks(ctx context.Context, refID string) int {
	v, ok, err := t.store.Get(ctx, clickKey(refID))
	if err != nil || !ok {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}
