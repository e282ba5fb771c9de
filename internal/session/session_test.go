package session

import (
	"testing"

	"github.com/local/pdftranslate/internal/extract"
)

func TestResetPreservesPreferences(t *testing.T) {
	m := NewManager(0)
	s := m.Get("")

	s.SetPreferences("openai", "ja-JP", extract.StrategyLayout)
	s.SetFile(&File{Name: "doc.pdf", Size: 100, Pages: 2})
	run := s.BeginRun()
	s.SetDocument(run, &extract.Document{Text: "hello", PageCount: 2})

	s.Reset()

	if s.File() != nil || s.Document() != nil || s.Result() != nil {
		t.Fatal("reset must clear file, document and result")
	}
	if p := s.Progress(); p.Status != StatusIdle || p.Percent != 0 {
		t.Fatalf("progress after reset = %+v", p)
	}
	provider, language, strategy := s.Preferences()
	if provider != "openai" || language != "ja-JP" || strategy != extract.StrategyLayout {
		t.Fatalf("preferences lost: %s %s %s", provider, language, strategy)
	}
}

func TestEmptyPreferenceKeepsCurrent(t *testing.T) {
	m := NewManager(0)
	s := m.Get("")

	s.SetPreferences("baidu", "", "")
	provider, language, strategy := s.Preferences()
	if provider != "baidu" {
		t.Fatalf("provider = %s", provider)
	}
	if language != "zh-CN" || strategy != extract.StrategyNative {
		t.Fatalf("defaults lost: %s %s", language, strategy)
	}
}

func TestStaleRunWritesDropped(t *testing.T) {
	m := NewManager(0)
	s := m.Get("")

	old := s.BeginRun()
	current := s.BeginRun()

	if s.SetProgress(old, Progress{Status: StatusExtracting, Percent: 50}) {
		t.Fatal("stale progress write must be dropped")
	}
	if s.SetDocument(old, &extract.Document{Text: "stale"}) {
		t.Fatal("stale document write must be dropped")
	}
	if s.Document() != nil {
		t.Fatal("stale document leaked")
	}

	if !s.SetProgress(current, Progress{Status: StatusExtracting, Percent: 30}) {
		t.Fatal("current run write must succeed")
	}
}

func TestProgressMonotonicWithinRun(t *testing.T) {
	m := NewManager(0)
	s := m.Get("")
	run := s.BeginRun()

	s.SetProgress(run, Progress{Status: StatusExtracting, Percent: 60})
	s.SetProgress(run, Progress{Status: StatusExtracting, Percent: 40, Message: "later but lower"})

	p := s.Progress()
	if p.Percent != 60 {
		t.Fatalf("percent regressed to %d", p.Percent)
	}
	if p.Message != "later but lower" {
		t.Fatalf("message should still update: %q", p.Message)
	}
}

func TestErrorWriteKeepsReachedPercent(t *testing.T) {
	m := NewManager(0)
	s := m.Get("")
	run := s.BeginRun()

	s.SetProgress(run, Progress{Status: StatusExtracting, Percent: 60})
	s.SetProgress(run, Progress{Status: StatusError, Message: "extraction failed"})

	p := s.Progress()
	if p.Status != StatusError {
		t.Fatalf("status = %s", p.Status)
	}
	if p.Percent != 60 {
		t.Fatalf("percent regressed within one run: 60 -> %d on error write", p.Percent)
	}
}

func TestBeginRunResetsPercentBaseline(t *testing.T) {
	m := NewManager(0)
	s := m.Get("")

	run := s.BeginRun()
	s.SetProgress(run, Progress{Status: StatusExtracting, Percent: 90})

	next := s.BeginRun()
	if !s.SetProgress(next, Progress{Status: StatusExtracting, Percent: 20}) {
		t.Fatal("new run write must succeed")
	}
	if p := s.Progress(); p.Percent != 20 {
		t.Fatalf("new run inherited old percent: %d", p.Percent)
	}
}

func TestManagerGetStableByID(t *testing.T) {
	m := NewManager(0)
	a := m.Get("")
	if a.ID == "" {
		t.Fatal("new session needs an id")
	}
	b := m.Get(a.ID)
	if a != b {
		t.Fatal("same id must return same session")
	}
	c := m.Get("unknown-id")
	if c == a {
		t.Fatal("unknown id must mint a fresh session")
	}
}
