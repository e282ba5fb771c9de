package download

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/local/pdftranslate/internal/translate"
)

// Candidate system fonts with CJK coverage, tried in order. Core fonts
// cannot render CJK glyphs, so a unicode TTF is loaded when one exists.
var unicodeFontPaths = []string{
	"/usr/share/fonts/truetype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/wqy/wqy-zenhei.ttc",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/PingFang.ttc",
	"C:\\Windows\\Fonts\\simhei.ttf",
}

// PDF renders the result as a paginated A4 document.
func PDF(r *translate.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	font := "Helvetica"
	for _, path := range fontCandidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		pdf.AddUTF8Font(name, "", path)
		if pdf.Error() != nil {
			// gofpdf errors are sticky and would poison the whole document.
			pdf.ClearError()
			continue
		}
		font = name
		break
	}

	pdf.AddPage()
	pdf.SetFont(font, "", 16)
	pdf.CellFormat(0, 10, "Translation Result", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 10)
	if r.FileName != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("File: %s", r.FileName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Provider: %s   Language: %s", r.Provider, r.TargetLanguage), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section := func(title, body string) {
		pdf.SetFont(font, "", 12)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetFont(font, "", 10)
		for _, para := range strings.Split(body, "\n") {
			if strings.TrimSpace(para) == "" {
				pdf.Ln(3)
				continue
			}
			pdf.MultiCell(0, 5, para, "", "L", false)
		}
		pdf.Ln(4)
	}
	section("Original", r.OriginalText)
	section("Translation", r.TranslatedText)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func fontCandidates() []string {
	if p := os.Getenv("DOWNLOAD_PDF_FONT"); p != "" {
		return append([]string{p}, unicodeFontPaths...)
	}
	return unicodeFontPaths
}
