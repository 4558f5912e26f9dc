package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/process"
)

// isolateConfig keeps the loader away from the developer's own config.
func isolateConfig(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	isolateConfig(t)

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-level", "disabled"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_SubstitutesVariables(t *testing.T) {
	out, err := execute(t, "", "run", "--var", "name=world", "--", "echo", "hello", "${name}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello world\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_Template(t *testing.T) {
	out, err := execute(t, "", "run", "--template", "sh -c 'echo \"$0 $1\"' first", "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first second\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_Stdin(t *testing.T) {
	out, err := execute(t, "piped input", "run", "--", "cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "piped input" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_EnvAndDir(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "run", "--dir", dir, "--env", "GREETING=hi", "--",
		"sh", "-c", `printf '%s %s' "$GREETING" "$(pwd)"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "hi ") || !strings.Contains(out, dir) {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_Async(t *testing.T) {
	out, err := execute(t, "", "run", "--async", "--", "echo", "later")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "later\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  errors.ErrorCode
	}{
		{
			name:     "unacceptable exit code passes through",
			args:     []string{"run", "--", "sh", "-c", "exit 3"},
			wantCode: 3,
			wantErr:  errors.ErrCodeUnacceptableExitCode,
		},
		{
			name:     "accepted non-zero still passes through",
			args:     []string{"run", "--exit-value", "3", "--", "sh", "-c", "exit 3"},
			wantCode: 3,
		},
		{
			name:     "ignored exit value",
			args:     []string{"run", "--ignore-exit-value", "--", "sh", "-c", "exit 4"},
			wantCode: 4,
		},
		{
			name:     "watchdog kill",
			args:     []string{"run", "--timeout", "100ms", "--", "sleep", "5"},
			wantCode: 137,
			wantErr:  errors.ErrCodeWatchdogTermination,
		},
		{
			name:     "spawn failure",
			args:     []string{"run", "--", "/definitely/not/here"},
			wantCode: ExitSpawnFailure,
			wantErr:  errors.ErrCodeSpawnFailure,
		},
		{
			name:     "missing variable",
			args:     []string{"run", "--", "echo", "${who}"},
			wantCode: ExitUsage,
			wantErr:  errors.ErrCodeMissingVariable,
		},
		{
			name:     "malformed template",
			args:     []string{"run", "--template", "sh -c 'oops"},
			wantCode: ExitUsage,
			wantErr:  errors.ErrCodeMalformedCommand,
		},
		{
			name:     "bad variable flag",
			args:     []string{"run", "--var", "novalue", "--", "echo"},
			wantCode: ExitUsage,
			wantErr:  errors.ErrCodeInvalidInput,
		},
		{
			name:     "no executable",
			args:     []string{"run"},
			wantCode: ExitUsage,
			wantErr:  errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			if got := ExitCode(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (err: %v)", got, tt.wantCode, err)
			}
			if tt.wantErr != "" && !errors.HasCode(err, tt.wantErr) {
				t.Errorf("expected %s, got %v", tt.wantErr, err)
			}
			if tt.wantErr == "" {
				var ee *ExitError
				if !stderrors.As(err, &ee) || ee.Err != nil {
					t.Errorf("expected a bare exit status, got %v", err)
				}
			}
		})
	}
}

func TestRun_WatchdogKillReported(t *testing.T) {
	_, err := execute(t, "", "run", "--timeout", "100ms", "--", "sleep", "5")
	if !process.KilledByWatchdog(err) {
		t.Errorf("expected watchdog kill, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{&ExitError{Code: 42}, 42},
		{errors.SpawnFailure("x", io.EOF), ExitSpawnFailure},
		{errors.MalformedCommand("bad"), ExitUsage},
		{errors.Internal(io.EOF), ExitFailure},
		{io.EOF, ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
	if got := (&ExitError{Code: 5}).Error(); got != "exit status 5" {
		t.Errorf("Error() = %q", got)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "execkit ") {
		t.Errorf("stdout = %q", out)
	}

	out, err = execute(t, "", "version", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if info["version"] == nil {
		t.Errorf("missing version in %v", info)
	}
}

func TestServe(t *testing.T) {
	isolateConfig(t)

	pr, pw := io.Pipe()
	root := NewRootCmd()
	root.SetOut(pw)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--log-level", "disabled", "serve", "--addr", "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- root.ExecuteContext(ctx) }()

	lineCh := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(pr).ReadString('\n')
		lineCh <- line
	}()

	var line string
	select {
	case line = <-lineCh:
	case err := <-errCh:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not report its address")
	}
	addr := strings.TrimSpace(line[strings.LastIndex(line, " ")+1:])

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
