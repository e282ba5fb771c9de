package extract

import (
	"fmt"
	"regexp"

	ledongthuc "github.com/ledongthuc/pdf"
)

// DefaultProbePageChars is the minimum average of non-whitespace characters
// per sampled page for a PDF to count as text-extractable. Scanned pages
// carry at most stray metadata characters; sparse documents such as slide
// decks still clear this.
const DefaultProbePageChars = 40

var allWhitespace = regexp.MustCompile(`\s+`)

// HasExtractableText samples a handful of pages with a pure-Go reader and
// checks whether the document carries a usable text layer. Scanned PDFs
// come back false. perPage is the required character average per sampled
// page; 0 uses the default.
func HasExtractableText(path string, perPage int) (bool, error) {
	f, r, err := ledongthuc.Open(path)
	if err != nil {
		return false, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	if total <= 0 {
		return false, nil
	}

	sampled := samplePages(total)
	need := probeThreshold(perPage, len(sampled))
	chars := 0
	for _, p := range sampled {
		page := r.Page(p)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		chars += len(allWhitespace.ReplaceAllString(text, ""))
		if chars >= need {
			return true, nil
		}
	}
	return chars >= need, nil
}

// probeThreshold scales the per-page requirement by the sample size, so a
// two-page document is not held to a five-page bar.
func probeThreshold(perPage, pages int) int {
	if perPage <= 0 {
		perPage = DefaultProbePageChars
	}
	if pages < 1 {
		pages = 1
	}
	return perPage * pages
}

// samplePages picks up to five 1-based page indices spread across the
// document: first two, middle, last two.
func samplePages(total int) []int {
	if total <= 5 {
		out := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			out = append(out, i)
		}
		return out
	}
	seen := map[int]bool{}
	out := []int{}
	for _, p := range []int{1, 2, (total + 1) / 2, total - 1, total} {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
