package upload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/local/pdftranslate/internal/apperr"
)

func TestAcceptRejectsOversizedFile(t *testing.T) {
	a := New(1<<10, t.TempDir()) // 1 KiB ceiling
	big := bytes.Repeat([]byte("x"), 2<<10)

	_, err := a.Accept(bytes.NewReader(big), "big.pdf")
	if err == nil || !apperr.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Fatalf("error should mention the limit: %v", err)
	}
}

func TestAcceptRejectsEmptyFile(t *testing.T) {
	a := New(1<<20, t.TempDir())
	_, err := a.Accept(bytes.NewReader(nil), "empty.pdf")
	if err == nil || !apperr.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestAcceptRejectsNonPDFContent(t *testing.T) {
	a := New(1<<20, t.TempDir())
	// A .pdf name does not make it a PDF; content decides.
	_, err := a.Accept(strings.NewReader("<html><body>hi</body></html>"), "page.pdf")
	if err == nil || !apperr.IsValidation(err) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Fatalf("error should name the expected type: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"  spaced.pdf  ", "spaced.pdf"},
		{"", "upload.pdf"},
		{".", "upload.pdf"},
	}
	for _, tc := range tests {
		if got := sanitizeName(tc.in); got != tc.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
