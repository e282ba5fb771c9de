// Package tool runs the external PDF translation tools (pdf2zh, babeldoc)
// as capability-checked subprocess clients. A tool that cannot be located,
// even after an attempted install, fails with a typed ToolUnavailableError
// rather than degrading silently.
package tool

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdftranslate/internal/apperr"
)

// Invocation describes one tool run.
type Invocation struct {
	InputPath      string
	OutputDir      string
	TargetLanguage string
	Service        string
	PreserveFormat bool
}

// Output is the single JSON object a tool must print on stdout. Any other
// output shape is a protocol violation.
type Output struct {
	Text     string `json:"text"`
	Pages    int    `json:"pages"`
	MonoPath string `json:"mono_path,omitempty"`
	DualPath string `json:"dual_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Tool is an external extraction/translation backend.
type Tool interface {
	Name() string
	IsAvailable(ctx context.Context) bool
	EnsureInstalled(ctx context.Context) error
	Run(ctx context.Context, inv Invocation) (Output, error)
}

// PythonTool runs a Python wrapper script around a pip-installable package.
type PythonTool struct {
	name        string
	pipPackage  string
	script      string
	timeout     time.Duration
	autoInstall bool
}

type PythonToolOptions struct {
	Name        string
	PipPackage  string
	Script      string
	Timeout     time.Duration
	AutoInstall bool
}

func NewPythonTool(opts PythonToolOptions) *PythonTool {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &PythonTool{
		name:        opts.Name,
		pipPackage:  opts.PipPackage,
		script:      opts.Script,
		timeout:     opts.Timeout,
		autoInstall: opts.AutoInstall,
	}
}

func (t *PythonTool) Name() string { return t.name }

// IsAvailable reports whether the interpreter and the package are present.
func (t *PythonTool) IsAvailable(ctx context.Context) bool {
	py, err := FindPython(ctx)
	if err != nil {
		return false
	}
	pip, err := FindPip(ctx, py)
	if err != nil {
		return false
	}
	return pipShow(ctx, pip, t.pipPackage) == nil
}

// EnsureInstalled installs the pip package when it is missing.
func (t *PythonTool) EnsureInstalled(ctx context.Context) error {
	py, err := FindPython(ctx)
	if err != nil {
		return &apperr.ToolUnavailableError{Tool: t.name, Detail: err.Error()}
	}
	pip, err := FindPip(ctx, py)
	if err != nil {
		return &apperr.ToolUnavailableError{Tool: t.name, Detail: err.Error()}
	}
	if pipShow(ctx, pip, t.pipPackage) == nil {
		return nil
	}
	if !t.autoInstall {
		return &apperr.ToolUnavailableError{Tool: t.name, Detail: t.pipPackage + " not installed"}
	}
	log.Info().Str("tool", t.name).Str("package", t.pipPackage).Msg("installing tool package")
	if err := pipInstall(ctx, pip, t.pipPackage); err != nil {
		return &apperr.ToolUnavailableError{Tool: t.name, Detail: fmt.Sprintf("install %s: %v", t.pipPackage, err)}
	}
	return nil
}

// Run invokes the wrapper script and parses its stdout protocol.
func (t *PythonTool) Run(ctx context.Context, inv Invocation) (Output, error) {
	py, err := FindPython(ctx)
	if err != nil {
		return Output{}, &apperr.ToolUnavailableError{Tool: t.name, Detail: err.Error()}
	}
	if err := t.EnsureInstalled(ctx); err != nil {
		return Output{}, err
	}
	if _, err := os.Stat(t.script); err != nil {
		return Output{}, &apperr.ToolUnavailableError{Tool: t.name, Detail: "wrapper script missing: " + t.script}
	}
	if err := os.MkdirAll(inv.OutputDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	args := []string{t.script, inv.InputPath,
		"--output-dir", inv.OutputDir,
		"--lang-out", inv.TargetLanguage,
		"--service", inv.Service,
	}
	if inv.PreserveFormat {
		args = append(args, "--preserve-format")
	}

	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, py, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	dur := time.Since(start)
	log.Debug().Str("tool", t.name).Dur("duration", dur).Int("stdout_bytes", stdout.Len()).Msg("tool run finished")

	if cctx.Err() == context.DeadlineExceeded {
		return Output{}, &apperr.UpstreamError{Source: t.name, Body: fmt.Sprintf("timed out after %s", t.timeout)}
	}

	out, perr := ParseOutput(stdout.Bytes())
	if perr != nil {
		if runErr != nil {
			return Output{}, &apperr.UpstreamError{Source: t.name, Body: firstLines(stderr.String(), 5)}
		}
		return Output{}, &apperr.UpstreamError{Source: t.name, Body: perr.Error()}
	}
	if out.Error != "" {
		return Output{}, &apperr.UpstreamError{Source: t.name, Body: out.Error}
	}
	if runErr != nil {
		return Output{}, &apperr.UpstreamError{Source: t.name, Body: fmt.Sprintf("exit error: %v", runErr)}
	}
	return out, nil
}

// ParseOutput extracts the single JSON object from tool stdout. Tools log to
// stderr; the last decodable line on stdout wins. An object carrying neither
// text nor error is a protocol violation.
func ParseOutput(stdout []byte) (Output, error) {
	var out Output
	found := false
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		if candidate, ok := decodeOutput([]byte(line)); ok {
			out = candidate
			found = true
		}
	}
	if !found {
		// a pretty-printed object spanning the whole stream is also accepted
		if candidate, ok := decodeOutput(bytes.TrimSpace(stdout)); ok {
			return candidate, nil
		}
		return Output{}, fmt.Errorf("no JSON result object on stdout")
	}
	return out, nil
}

func decodeOutput(raw []byte) (Output, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Output{}, false
	}
	_, hasText := fields["text"]
	_, hasErr := fields["error"]
	if !hasText && !hasErr {
		return Output{}, false
	}
	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return Output{}, false
	}
	return out, true
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
