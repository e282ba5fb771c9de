package tool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// pythonCandidates are tried in order; the first that answers --version wins.
var pythonCandidates = []string{"python3", "python", "py"}

// FindPython locates a usable Python interpreter on PATH.
func FindPython(ctx context.Context) (string, error) {
	for _, cmd := range pythonCandidates {
		out, err := exec.CommandContext(ctx, cmd, "--version").CombinedOutput()
		if err == nil {
			log.Debug().Str("python", cmd).Str("version", strings.TrimSpace(string(out))).Msg("found python")
			return cmd, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found on PATH (tried %s)", strings.Join(pythonCandidates, ", "))
}

// FindPip locates a usable pip invocation, preferring `<python> -m pip`.
func FindPip(ctx context.Context, python string) ([]string, error) {
	candidates := [][]string{{python, "-m", "pip"}, {"pip3"}, {"pip"}}
	for _, argv := range candidates {
		args := append(argv[1:], "--version")
		if err := exec.CommandContext(ctx, argv[0], args...).Run(); err == nil {
			return argv, nil
		}
	}
	return nil, fmt.Errorf("no pip found on PATH")
}

func pipShow(ctx context.Context, pip []string, pkg string) error {
	args := append(pip[1:], "show", pkg)
	return exec.CommandContext(ctx, pip[0], args...).Run()
}

func pipInstall(ctx context.Context, pip []string, pkg string) error {
	args := append(pip[1:], "install", pkg)
	out, err := exec.CommandContext(ctx, pip[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, firstLines(string(out), 3))
	}
	return nil
}
