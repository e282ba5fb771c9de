// Package extract turns a PDF file into plain text through one of three
// interchangeable strategies: in-process page-by-page extraction (MuPDF via
// go-fitz), and two external Python tools reached through subprocess
// clients (pdf2zh for math-heavy documents, babeldoc for layout
// preservation).
package extract

import (
	"context"
	"regexp"
	"strings"
)

// Document is the immutable product of one successful extraction run.
type Document struct {
	Text      string   `json:"text"`
	PageCount int      `json:"pageCount"`
	Pages     []string `json:"pages,omitempty"`
	// MonoPath/DualPath are set when a tool strategy produced translated
	// document artifacts alongside the text.
	MonoPath string `json:"monoPath,omitempty"`
	DualPath string `json:"dualPath,omitempty"`
	// ArchiveRef points at the durable copy of the document, when one was
	// stored (s3 URL or local path).
	ArchiveRef string `json:"archiveRef,omitempty"`
}

// Progress reports page-level advancement during a run. done/total are page
// counts; total may be 0 when the strategy cannot report pages up front.
type Progress func(done, total int)

// Strategy is one way of turning a PDF into text.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string, progress Progress) (Document, error)
}

// Strategy names used at the request boundary.
const (
	StrategyNative = "native"
	StrategyMath   = "math"
	StrategyLayout = "layout"
)

var (
	whitespaceRun = regexp.MustCompile(`[ \t]+`)
	footerArtifact = regexp.MustCompile(`(?m)^\s*\d+\s*\|\s*Page\s*$`)
)

// CleanPageText collapses whitespace runs and strips "N | Page" footer
// artifacts that text layers commonly carry.
func CleanPageText(s string) string {
	s = footerArtifact.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// JoinPages concatenates per-page text with a blank-line separator,
// preserving page order.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n\n")
}
