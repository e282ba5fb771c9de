// Package session holds the per-user mutable state the HTTP surface
// observes: the accepted file, extraction progress, the extracted document,
// provider/language preferences, the current translation result and the
// history log. It is the single source of truth; setters are atomic and
// guarded by the session mutex.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/local/pdftranslate/internal/extract"
	"github.com/local/pdftranslate/internal/translate"
)

// Status values of the processing state machine.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusUploading   Status = "uploading"
	StatusExtracting  Status = "extracting"
	StatusTranslating Status = "translating"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Progress is mutated repeatedly during one processing run. Percent is
// monotonically non-decreasing within a run and reaches 100 only on success.
type Progress struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
}

// File describes the accepted upload. Immutable once accepted.
type File struct {
	Path  string `json:"-"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	MIME  string `json:"mime"`
	Pages int    `json:"pages"`
}

// Session is one user's processing state.
type Session struct {
	ID string

	mu       sync.Mutex
	file     *File
	progress Progress
	document *extract.Document
	result   *translate.Result

	// preferences survive Reset
	provider string
	language string
	strategy string

	runToken uint64
	touched  time.Time
}

func newSession(id string) *Session {
	return &Session{
		ID:       id,
		progress: Progress{Status: StatusIdle},
		provider: "deepseek",
		language: "zh-CN",
		strategy: extract.StrategyNative,
		touched:  time.Now(),
	}
}

// BeginRun supersedes any in-flight run and returns the new run token.
// Completions carrying an older token are dropped at write time. The
// percent baseline resets so the new run starts counting from zero.
func (s *Session) BeginRun() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runToken++
	s.progress.Percent = 0
	s.touched = time.Now()
	return s.runToken
}

// CurrentRun returns the active run token.
func (s *Session) CurrentRun() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runToken
}

// SetFile stores the accepted upload and resets run state.
func (s *Session) SetFile(f *File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.file = f
	s.document = nil
	s.result = nil
	s.progress = Progress{Status: StatusUploading, Message: "file accepted", Percent: 0}
	s.touched = time.Now()
}

func (s *Session) File() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// SetProgress writes progress for the given run. Stale runs are ignored, and
// percent never moves backwards within a run; an error write keeps the last
// reached percent.
func (s *Session) SetProgress(run uint64, p Progress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run != s.runToken {
		return false
	}
	if p.Percent < s.progress.Percent {
		p.Percent = s.progress.Percent
	}
	s.progress = p
	s.touched = time.Now()
	return true
}

func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// SetDocument stores the extraction product for the given run.
func (s *Session) SetDocument(run uint64, doc *extract.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run != s.runToken {
		return false
	}
	s.document = doc
	s.touched = time.Now()
	return true
}

func (s *Session) Document() *extract.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

func (s *Session) SetResult(r *translate.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
	s.touched = time.Now()
}

func (s *Session) Result() *translate.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SetPreferences replaces provider/language/strategy selection atomically.
// Empty values keep the current selection.
func (s *Session) SetPreferences(provider, language, strategy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if provider != "" {
		s.provider = provider
	}
	if language != "" {
		s.language = language
	}
	if strategy != "" {
		s.strategy = strategy
	}
	s.touched = time.Now()
}

// Preferences returns the current provider, language and strategy selection.
func (s *Session) Preferences() (provider, language, strategy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider, s.language, s.strategy
}

// Reset clears file, progress, document and result but preserves the user's
// provider/language/strategy preferences. A reset supersedes any in-flight
// run.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runToken++
	s.file = nil
	s.document = nil
	s.result = nil
	s.progress = Progress{Status: StatusIdle}
	s.touched = time.Now()
}

// Manager owns sessions keyed by id and sweeps idle ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxIdle  time.Duration
}

func NewManager(maxIdle time.Duration) *Manager {
	if maxIdle <= 0 {
		maxIdle = 24 * time.Hour
	}
	return &Manager{sessions: map[string]*Session{}, maxIdle: maxIdle}
}

// Get returns the session for id, creating one when id is empty or unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := newSession(id)
	m.sessions[id] = s
	return s
}

// Sweep drops sessions idle longer than maxIdle and reports how many.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-m.maxIdle)
	n := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
