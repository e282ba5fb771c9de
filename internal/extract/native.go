package extract

import (
	"context"
	"fmt"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/local/pdftranslate/internal/apperr"
)

// Native extracts the text layer in-process with MuPDF, page by page in
// order. Deterministic for identical input bytes.
type Native struct {
	// ProbeThreshold is the minimum character average per sampled page for
	// a PDF to count as text-extractable; 0 uses the default.
	ProbeThreshold int
}

func (n *Native) Name() string { return StrategyNative }

func (n *Native) Extract(ctx context.Context, path string, progress Progress) (Document, error) {
	// Fail fast on scanned PDFs before paying for a full pass.
	ok, err := HasExtractableText(path, n.ProbeThreshold)
	if err == nil && !ok {
		return Document{}, &apperr.ValidationError{Message: "PDF has no extractable text layer (scanned or protected document)"}
	}

	doc, err := fitz.New(path)
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		text, err := doc.Text(i)
		if err != nil {
			return Document{}, fmt.Errorf("text page %d: %w", i+1, err)
		}
		pages = append(pages, CleanPageText(text))
		if progress != nil {
			progress(i+1, total)
		}
	}

	return Document{
		Text:      JoinPages(pages),
		PageCount: total,
		Pages:     pages,
	}, nil
}
