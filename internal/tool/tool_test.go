package tool

import (
	"strings"
	"testing"
)

func TestParseOutputLastObjectWins(t *testing.T) {
	stdout := strings.Join([]string{
		"loading model...",
		`{"text": "partial", "pages": 1}`,
		"progress 50%",
		`{"text": "final text", "pages": 3, "mono_path": "/out/mono.pdf", "dual_path": "/out/dual.pdf"}`,
	}, "\n")

	out, err := ParseOutput([]byte(stdout))
	if err != nil {
		t.Fatalf("ParseOutput: %v", err)
	}
	if out.Text != "final text" || out.Pages != 3 {
		t.Fatalf("out = %+v", out)
	}
	if out.MonoPath != "/out/mono.pdf" || out.DualPath != "/out/dual.pdf" {
		t.Fatalf("paths = %q %q", out.MonoPath, out.DualPath)
	}
}

func TestParseOutputErrorObject(t *testing.T) {
	out, err := ParseOutput([]byte(`{"error": "pdf2zh is not installed"}`))
	if err != nil {
		t.Fatalf("ParseOutput: %v", err)
	}
	if out.Error != "pdf2zh is not installed" {
		t.Fatalf("error = %q", out.Error)
	}
}

func TestParseOutputPrettyPrinted(t *testing.T) {
	stdout := "{\n  \"text\": \"hello\",\n  \"pages\": 2\n}\n"
	out, err := ParseOutput([]byte(stdout))
	if err != nil {
		t.Fatalf("ParseOutput: %v", err)
	}
	if out.Text != "hello" || out.Pages != 2 {
		t.Fatalf("out = %+v", out)
	}
}

func TestParseOutputProtocolViolations(t *testing.T) {
	cases := []string{
		"",
		"no json here at all",
		"{}",           // object with neither text nor error
		`{"pages": 3}`, // still no text/error key
		`{"text": }`,   // malformed
	}
	for _, in := range cases {
		if _, err := ParseOutput([]byte(in)); err == nil {
			t.Errorf("ParseOutput(%q) should fail", in)
		}
	}
}

func TestParseOutputIgnoresBracesInLogs(t *testing.T) {
	stdout := strings.Join([]string{
		`{"level": "info", "msg": "starting"}`, // log line, lacks text/error
		`{"text": "result"}`,
	}, "\n")
	out, err := ParseOutput([]byte(stdout))
	if err != nil {
		t.Fatalf("ParseOutput: %v", err)
	}
	if out.Text != "result" {
		t.Fatalf("text = %q", out.Text)
	}
}
