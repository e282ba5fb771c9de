// Package download renders a translation result into the formats offered
// for download: a plain-text bundle and a generated PDF.
package download

import (
	"fmt"
	"strings"
	"time"

	"github.com/local/pdftranslate/internal/translate"
)

// Format names accepted at the request boundary.
const (
	FormatText = "txt"
	FormatPDF  = "pdf"
)

// TextBundle renders the result as a plain-text document with original and
// translated sections.
func TextBundle(r *translate.Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Translation Result\n")
	fmt.Fprintf(&b, "==================\n\n")
	if r.FileName != "" {
		fmt.Fprintf(&b, "File:      %s\n", r.FileName)
	}
	fmt.Fprintf(&b, "Provider:  %s\n", r.Provider)
	fmt.Fprintf(&b, "Language:  %s\n", r.TargetLanguage)
	fmt.Fprintf(&b, "Date:      %s\n\n", time.UnixMilli(r.Timestamp).Format(time.RFC3339))
	fmt.Fprintf(&b, "--- Original ---\n\n%s\n\n", r.OriginalText)
	fmt.Fprintf(&b, "--- Translation ---\n\n%s\n", r.TranslatedText)
	return []byte(b.String())
}

// FileName builds the suggested download filename for a result.
func FileName(r *translate.Result, format string) string {
	base := "translation"
	if r.FileName != "" {
		base = strings.TrimSuffix(r.FileName, ".pdf")
	}
	return fmt.Sprintf("%s_%s.%s", base, r.TargetLanguage, format)
}
