package uvx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the uvx executable name.
const DefaultBinary = "uvx"

// ExecFunc runs name with args and env, returning captured stdout and stderr.
// It exists so tests can substitute the subprocess.
type ExecFunc func(ctx context.Context, name string, args, env []string) (stdout, stderr []byte, err error)

// Runner executes embedded Python scripts through uvx with ephemeral
// dependencies. Scripts print a JSON document on stdout on success and a JSON
// object with an "error" key on stderr on failure.
type Runner struct {
	Binary string
	// Packages are passed as --with arguments.
	Packages []string
	// IndexURL and ExtraIndexURL select a wheel index (CUDA builds of torch).
	IndexURL      string
	ExtraIndexURL string
	Env           []string
	WorkDir       string
	exec          ExecFunc
}

// WithExec replaces the subprocess implementation.
func (r *Runner) WithExec(fn ExecFunc) {
	r.exec = fn
}

// Script writes body to a temporary file, runs it with args, and decodes stdout into out.
func (r *Runner) Script(ctx context.Context, name, body string, args []string, out any) error {
	dir := r.WorkDir
	cleanup := func() {}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "meetnotes-uvx-")
		if err != nil {
			return fmt.Errorf("uvx: create work dir: %w", err)
		}
		dir = tmp
		cleanup = func() { _ = os.RemoveAll(tmp) }
	}
	defer cleanup()

	scriptPath := filepath.Join(dir, name)
	if err := os.WriteFile(scriptPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("uvx: write script: %w", err)
	}

	full := []string{"--quiet"}
	for _, pkg := range r.Packages {
		full = append(full, "--with", pkg)
	}
	if r.IndexURL != "" {
		full = append(full, "--index-url", r.IndexURL)
	}
	if r.ExtraIndexURL != "" {
		full = append(full, "--extra-index-url", r.ExtraIndexURL)
	}
	full = append(full, "python", scriptPath)
	full = append(full, args...)

	env := append(os.Environ(), r.Env...)
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	run := r.exec
	if run == nil {
		run = defaultExec
	}
	stdout, stderr, err := run(ctx, binary, full, env)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return scriptError(name, stderr, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(lastJSONLine(stdout), out); err != nil {
		return fmt.Errorf("%s: decode output: %w", name, err)
	}
	return nil
}

func defaultExec(ctx context.Context, name string, args, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ErrModelAccess reports a gated Hugging Face model the token cannot download.
var ErrModelAccess = errors.New("hugging face model access denied")

func scriptError(name string, stderr []byte, runErr error) error {
	text := strings.TrimSpace(string(stderr))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(lastJSONLine(stderr), &payload) == nil && payload.Error != "" {
		text = payload.Error
	}
	if strings.Contains(text, "GatedRepoError") || strings.Contains(text, "401 Client Error") {
		return fmt.Errorf("%s: %w; accept the model terms on huggingface.co and retry", name, ErrModelAccess)
	}
	if text == "" {
		return fmt.Errorf("%s: %w", name, runErr)
	}
	if idx := strings.LastIndex(text, "\n"); idx >= 0 && payload.Error == "" {
		text = strings.TrimSpace(text[idx+1:])
	}
	return fmt.Errorf("%s: %w: %s", name, runErr, text)
}

// lastJSONLine returns the final non-empty line so stray library output
// printed before the result does not break decoding.
func lastJSONLine(data []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && (line[0] == '{' || line[0] == '[') {
			return line
		}
	}
	return bytes.TrimSpace(data)
}
