// Package upload validates and persists incoming PDF files. Validation is
// by content, not filename: the file must sniff as application/pdf via
// magic bytes, fit the size ceiling, and carry at least one parseable page.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/apperr"
	"github.com/local/pdftranslate/internal/extract"
	"github.com/local/pdftranslate/internal/metrics"
	"github.com/local/pdftranslate/internal/session"
)

// Acceptor validates uploads and writes accepted files to the upload dir.
type Acceptor struct {
	MaxSize int64
	Dir     string
}

func New(maxSize int64, dir string) *Acceptor {
	return &Acceptor{MaxSize: maxSize, Dir: dir}
}

// Accept streams the upload to disk, validates it, and returns the accepted
// file record. The temp file is removed on any rejection.
func (a *Acceptor) Accept(r io.Reader, filename string) (*session.File, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := sanitizeName(filename)
	path := filepath.Join(a.Dir, fmt.Sprintf("%s_%s", uuid.NewString(), name))
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	// Copy one byte past the ceiling so an oversized stream is detectable
	// without buffering it whole.
	written, err := io.Copy(out, io.LimitReader(r, a.MaxSize+1))
	closeErr := out.Close()
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if closeErr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close upload: %w", closeErr)
	}
	if written > a.MaxSize {
		os.Remove(path)
		metrics.IncUploadRejection("too_large")
		return nil, &apperr.ValidationError{
			Message: fmt.Sprintf("file exceeds the %d MB limit", a.MaxSize>>20),
		}
	}
	if written == 0 {
		os.Remove(path)
		metrics.IncUploadRejection("empty")
		return nil, &apperr.ValidationError{Message: "uploaded file is empty"}
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	if !mtype.Is("application/pdf") {
		os.Remove(path)
		metrics.IncUploadRejection("not_pdf")
		return nil, &apperr.ValidationError{
			Message: fmt.Sprintf("only PDF files are accepted (got %s)", mtype.String()),
		}
	}

	pages, err := extract.PageCount(path)
	if err != nil || pages < 1 {
		os.Remove(path)
		metrics.IncUploadRejection("unreadable")
		return nil, &apperr.ValidationError{Message: "PDF could not be parsed"}
	}

	log.Info().Str("file", name).Int64("size", written).Int("pages", pages).Msg("upload accepted")
	return &session.File{
		Path:  path,
		Name:  name,
		Size:  written,
		MIME:  mtype.String(),
		Pages: pages,
	}, nil
}

// sanitizeName strips path components and oddities from a client-supplied
// filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload.pdf"
	}
	return name
}
