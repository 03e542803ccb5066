package code

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell tests require a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.Timeout = 10 * time.Second
	return cfg
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "tmp_code_*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileName(t *testing.T) {
	// md5("print(1)")
	assert.Equal(t, "tmp_code_186bdbe41e79ea696410ba0a9e8d2762.py", FileName("python", "print(1)"))
	assert.True(t, strings.HasSuffix(FileName("python3", "x"), ".py"))
	assert.Equal(t, FileName("sh", "echo a"), FileName("sh", "echo a"))
	assert.NotEqual(t, FileName("sh", "echo a"), FileName("sh", "echo b"))
	assert.True(t, strings.HasSuffix(FileName("bash", "x"), ".bash"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(FileName("sh", "x"), "tmp_code_"), ".sh"), 32)
}

func TestExecute_InvalidArguments(t *testing.T) {
	cfg := testConfig(t)

	_, err := ExecuteCode(context.Background(), "", "echo hi", cfg)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = ExecuteCode(context.Background(), "sh", "", cfg)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = ExecuteCode(context.Background(), "cobol", "DISPLAY 'HI'.", cfg)
	assert.ErrorIs(t, err, core.ErrUnsupportedLanguage)
}

func TestExecute_ShellSuccess(t *testing.T) {
	requireShell(t)
	cfg := testConfig(t)

	res, err := ExecuteCode(context.Background(), "sh", "echo hello world", cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello world", res.Logs)
	assert.Empty(t, res.Image)
	assertNoTempFiles(t, cfg.WorkDir)
}

func TestExecute_NonZeroExitIsAResult(t *testing.T) {
	requireShell(t)
	cfg := testConfig(t)

	res, err := ExecuteCode(context.Background(), "sh", "exit 1", cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, res.Logs)
	assertNoTempFiles(t, cfg.WorkDir)
}

func TestExecute_StderrPathScrubbed(t *testing.T) {
	requireShell(t)
	cfg := testConfig(t)

	res, err := ExecuteCode(context.Background(), "sh", "echo \"failed in $(pwd)/x\" >&2\nexit 3", cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)

	abs, err := filepath.Abs(cfg.WorkDir)
	require.NoError(t, err)
	assert.NotContains(t, res.Logs, abs)
	assert.Contains(t, res.Logs, "failed in")
}

func TestExecute_Timeout(t *testing.T) {
	requireShell(t)
	cfg := testConfig(t)
	cfg.Timeout = 200 * time.Millisecond

	start := time.Now()
	res, err := ExecuteCode(context.Background(), "sh", "sleep 5", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.True(t, strings.HasSuffix(res.Logs, TimeoutMessage))
	assert.Less(t, time.Since(start), 4*time.Second)
	assertNoTempFiles(t, cfg.WorkDir)
}

func TestExecute_Python(t *testing.T) {
	py, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	cfg := testConfig(t)
	e := NewExecutor(cfg, func(o *ExecutorOptions) {
		o.Interpreters = map[string]string{"python": py}
	})

	res, err := e.Execute(context.Background(), "python", "print(6 * 7)")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "42", res.Logs)
}

type fakeBackend struct {
	out   *Output
	err   error
	calls []Process
	files []string
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Run(_ context.Context, p Process) (*Output, error) {
	f.calls = append(f.calls, p)
	if data, err := os.ReadFile(filepath.Join(p.WorkDir, p.File)); err == nil {
		f.files = append(f.files, string(data))
	}
	return f.out, f.err
}

func TestExecute_BackendFailureIsExecutionFault(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{err: errors.New("exec: not found")}
	e := NewExecutor(cfg, func(o *ExecutorOptions) { o.Backend = fb })

	_, err := e.Execute(context.Background(), "sh", "echo hi")
	assert.ErrorIs(t, err, core.ErrExecutionFault)
	assertNoTempFiles(t, cfg.WorkDir)
}

func TestExecute_WritesTemporaryFile(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{out: &Output{Stdout: "  ok \n"}}
	e := NewExecutor(cfg, func(o *ExecutorOptions) { o.Backend = fb })

	res, err := e.Execute(context.Background(), "bash", "echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Logs)

	require.Len(t, fb.calls, 1)
	assert.Equal(t, FileName("bash", "echo ok"), fb.calls[0].File)
	assert.True(t, filepath.IsAbs(fb.calls[0].WorkDir))
	assert.Equal(t, []string{"echo ok"}, fb.files)
	assertNoTempFiles(t, cfg.WorkDir)
}

func TestExecute_PythonFileExtension(t *testing.T) {
	cfg := testConfig(t)
	fb := &fakeBackend{out: &Output{Stdout: "1\n"}}
	e := NewExecutor(cfg, func(o *ExecutorOptions) { o.Backend = fb })

	_, err := e.Execute(context.Background(), "python", "print(1)")
	require.NoError(t, err)

	require.Len(t, fb.calls, 1)
	assert.Equal(t, "tmp_code_186bdbe41e79ea696410ba0a9e8d2762.py", fb.calls[0].File)
	assertNoTempFiles(t, cfg.WorkDir)
}

func TestExecute_Idempotent(t *testing.T) {
	requireShell(t)
	cfg := testConfig(t)

	first, err := ExecuteCode(context.Background(), "sh", "echo same; exit 3", cfg)
	require.NoError(t, err)
	assertNoTempFiles(t, cfg.WorkDir)

	second, err := ExecuteCode(context.Background(), "sh", "echo same; exit 3", cfg)
	require.NoError(t, err)
	assertNoTempFiles(t, cfg.WorkDir)

	assert.Equal(t, 3, first.ExitCode)
	assert.Equal(t, first.ExitCode, second.ExitCode)
	assert.Equal(t, first.Logs, second.Logs)
}

func TestExecute_ContainerImageReported(t *testing.T) {
	cfg := testConfig(t)
	cfg.Image = "python:3-alpine"
	fb := &fakeBackend{out: &Output{}}
	e := NewExecutor(cfg, func(o *ExecutorOptions) { o.Backend = fb })

	res, err := e.Execute(context.Background(), "python", "print(1)")
	require.NoError(t, err)
	assert.Equal(t, "python:3-alpine", res.Image)
}

func TestExecuteBlocks_StopsAtFirstFailure(t *testing.T) {
	requireShell(t)
	e := NewExecutor(testConfig(t))

	res, err := e.ExecuteBlocks(context.Background(), []Block{
		{Language: "sh", Code: "echo one"},
		{Language: "sh", Code: "echo boom >&2; exit 2"},
		{Language: "sh", Code: "echo never"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "\none\nboom\n", res.Logs)
	assert.NotContains(t, res.Logs, "never")
}

func TestExecuteBlocks_LogsBlockNumbers(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	e := NewExecutor(testConfig(t), func(o *ExecutorOptions) {
		o.Backend = &fakeBackend{out: &Output{}}
		o.Logger = logging.NewZapAdapter(zap.New(obs))
	})

	_, err := e.ExecuteBlocks(context.Background(), []Block{
		{Language: "sh", Code: "echo one"},
		{Language: "sh", Code: "echo two"},
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("code.block.execute").All()
	require.Len(t, entries, 2)
	assert.EqualValues(t, 1, entries[0].ContextMap()["block"])
	assert.EqualValues(t, 2, entries[1].ContextMap()["block"])
	assert.Equal(t, "sh", entries[1].ContextMap()["language"])
}

func TestExecuteBlocks_UnknownLanguage(t *testing.T) {
	e := NewExecutor(testConfig(t), func(o *ExecutorOptions) { o.Backend = &fakeBackend{out: &Output{}} })

	res, err := e.ExecuteBlocks(context.Background(), []Block{{Language: "cobol", Code: "DISPLAY 1."}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, "\nunknown language cobol", res.Logs)
}

func TestExecuteBlocks_InfersMissingLanguage(t *testing.T) {
	fb := &fakeBackend{out: &Output{Stdout: "done"}}
	e := NewExecutor(testConfig(t), func(o *ExecutorOptions) { o.Backend = fb })

	res, err := e.ExecuteBlocks(context.Background(), []Block{{Code: "pip install requests"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	require.Len(t, fb.calls, 1)
	assert.True(t, strings.HasSuffix(fb.calls[0].File, ".sh"))
}

func TestDockerBackend_Args(t *testing.T) {
	b := NewDockerBackend("python:3-alpine")
	args := b.Args("c1", Process{Executable: "python", File: "tmp_code_x.py", WorkDir: "/tmp/work"})

	assert.Equal(t, []string{
		"run", "--rm",
		"--name", "c1",
		"--network", "none",
		"--security-opt", "no-new-privileges",
		"-v", "/tmp/work:/workspace",
		"-w", "/workspace",
		"python:3-alpine",
		"python", "tmp_code_x.py",
	}, args)
}

func TestNewExecutor_SelectsBackend(t *testing.T) {
	assert.Equal(t, "local", NewExecutor(Config{}).backend.Name())
	assert.Equal(t, "docker", NewExecutor(Config{Image: "alpine"}).backend.Name())

	cfg := NewExecutor(Config{}).Config()
	assert.Equal(t, DefaultWorkDir, cfg.WorkDir)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}
