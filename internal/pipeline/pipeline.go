// Package pipeline drives a processing run from accepted upload to
// extracted document. Runs are asynchronous; the HTTP surface polls the
// session for progress. At most one run per session is live: starting a new
// run supersedes the previous one via the session run token, and writes
// from superseded runs are dropped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/apperr"
	"github.com/local/pdftranslate/internal/extract"
	"github.com/local/pdftranslate/internal/metrics"
	"github.com/local/pdftranslate/internal/session"
	"github.com/local/pdftranslate/internal/tool"
)

// Progress band boundaries. Upload acceptance owns 0-20, page extraction
// 20-80, finalization 80-100.
const (
	pctExtractStart = 20
	pctExtractEnd   = 80
	pctFinalize     = 90
	pctDone         = 100
)

// Archiver persists the finished document somewhere durable. Optional; a
// nil archiver skips the step.
type Archiver interface {
	Store(ctx context.Context, sessionID string, doc *extract.Document) (string, error)
}

// Dependencies wires the pipeline to its collaborators.
type Dependencies struct {
	Native    *extract.Native
	MathTool  tool.Tool
	LayoutTool tool.Tool
	OutputDir string
	Archiver  Archiver
}

type runHandle struct {
	run    uint64
	cancel context.CancelFunc
}

type Pipeline struct {
	deps Dependencies

	mu      sync.Mutex
	cancels map[string]runHandle
}

func New(deps Dependencies) *Pipeline {
	return &Pipeline{deps: deps, cancels: map[string]runHandle{}}
}

// Start kicks off an asynchronous extraction run for the session's accepted
// file using its selected strategy. Returns a ValidationError when no file
// has been accepted.
func (p *Pipeline) Start(s *session.Session) error {
	f := s.File()
	if f == nil {
		return &apperr.ValidationError{Message: "no file uploaded"}
	}
	_, language, strategy := s.Preferences()
	if !validStrategy(strategy) {
		return &apperr.ValidationError{Message: fmt.Sprintf("unknown extraction strategy %q", strategy)}
	}

	run := s.BeginRun()
	ctx, cancel := context.WithCancel(context.Background())
	p.setCancel(s.ID, run, cancel)

	s.SetProgress(run, session.Progress{
		Status:  session.StatusExtracting,
		Message: "starting extraction",
		Percent: pctExtractStart,
	})

	go func() {
		defer cancel()
		defer p.clearCancel(s.ID, run)
		p.run(ctx, s, run, f, strategy, language)
	}()
	return nil
}

// Cancel aborts the session's in-flight run, if any.
func (p *Pipeline) Cancel(s *session.Session) bool {
	p.mu.Lock()
	h, ok := p.cancels[s.ID]
	if ok {
		delete(p.cancels, s.ID)
	}
	p.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	// Supersede the run so any writes racing the cancel are dropped.
	run := s.BeginRun()
	s.SetProgress(run, session.Progress{Status: session.StatusIdle, Message: "cancelled"})
	log.Info().Str("session", s.ID).Msg("run cancelled")
	return true
}

func (p *Pipeline) setCancel(id string, run uint64, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.cancels[id]; ok {
		prev.cancel()
	}
	p.cancels[id] = runHandle{run: run, cancel: cancel}
}

func (p *Pipeline) clearCancel(id string, run uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.cancels[id]; ok && h.run == run {
		delete(p.cancels, id)
	}
}

func (p *Pipeline) run(ctx context.Context, s *session.Session, run uint64, f *session.File, strategy, language string) {
	chain := p.strategyChain(strategy, language, s)
	var doc extract.Document
	var lastErr error

	for i, st := range chain {
		if ctx.Err() != nil {
			return
		}
		name := st.Name()
		s.SetProgress(run, session.Progress{
			Status:  session.StatusExtracting,
			Message: fmt.Sprintf("extracting (%s)", name),
			Percent: pctExtractStart,
		})

		progress := func(done, total int) {
			pct := pctExtractStart
			if total > 0 {
				pct = pctExtractStart + (pctExtractEnd-pctExtractStart)*done/total
			}
			s.SetProgress(run, session.Progress{
				Status:  session.StatusExtracting,
				Message: fmt.Sprintf("%s: page %d of %d", name, done, total),
				Percent: pct,
			})
		}

		d, err := st.Extract(ctx, f.Path, progress)
		if err == nil {
			metrics.ObserveExtraction(name, "ok")
			metrics.ObservePages(d.PageCount)
			doc = d
			lastErr = nil
			break
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			return
		}
		metrics.ObserveExtraction(name, "error")
		log.Warn().Err(err).Str("session", s.ID).Str("strategy", name).Msg("extraction failed")
		if i < len(chain)-1 {
			s.SetProgress(run, session.Progress{
				Status:  session.StatusExtracting,
				Message: fmt.Sprintf("%s failed, trying %s", name, chain[i+1].Name()),
				Percent: pctExtractStart,
			})
		}
	}

	if lastErr != nil {
		s.SetProgress(run, session.Progress{
			Status:  session.StatusError,
			Message: userMessage(lastErr),
		})
		return
	}

	s.SetProgress(run, session.Progress{
		Status:  session.StatusExtracting,
		Message: "finalizing",
		Percent: pctFinalize,
	})

	if p.deps.Archiver != nil {
		if loc, err := p.deps.Archiver.Store(ctx, s.ID, &doc); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("archive failed")
		} else if loc != "" {
			doc.ArchiveRef = loc
		}
	}

	if !s.SetDocument(run, &doc) {
		return // superseded during finalization
	}
	s.SetProgress(run, session.Progress{
		Status:  session.StatusCompleted,
		Message: fmt.Sprintf("extracted %d pages", doc.PageCount),
		Percent: pctDone,
	})
	log.Info().Str("session", s.ID).Int("pages", doc.PageCount).Msg("extraction completed")
}

// strategyChain returns the strategies to attempt in order. Only the native
// strategy carries a fallback chain (native, then math, then layout); an
// explicit math or layout selection runs alone.
func (p *Pipeline) strategyChain(strategy, language string, s *session.Session) []extract.Strategy {
	provider, _, _ := s.Preferences()
	math := extract.NewMath(p.deps.MathTool, p.deps.OutputDir, language, provider)
	layout := extract.NewLayout(p.deps.LayoutTool, p.deps.OutputDir, language, provider)
	switch strategy {
	case extract.StrategyMath:
		return []extract.Strategy{math}
	case extract.StrategyLayout:
		return []extract.Strategy{layout}
	default:
		return []extract.Strategy{p.deps.Native, math, layout}
	}
}

func validStrategy(s string) bool {
	switch s {
	case extract.StrategyNative, extract.StrategyMath, extract.StrategyLayout:
		return true
	}
	return false
}

// userMessage maps internal errors to the message shown in progress.
func userMessage(err error) string {
	var v *apperr.ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	if apperr.IsToolUnavailable(err) {
		return "required extraction tool is not installed"
	}
	var u *apperr.UpstreamError
	if errors.As(err, &u) {
		return fmt.Sprintf("%s failed: %s", u.Source, u.Body)
	}
	return "extraction failed"
}
