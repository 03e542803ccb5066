package code

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/tracing"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/metrics"
)

// TimeoutMessage is appended to the logs of an execution that ran out of time.
const TimeoutMessage = "Timeout"

// Result is the outcome of running one or more code blocks.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Logs     string `json:"logs"`
	// Image is the container image used, empty for local execution.
	Image string `json:"image,omitempty"`
}

// Succeeded reports a zero exit code.
func (r *Result) Succeeded() bool { return r.ExitCode == 0 }

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// Backend overrides the backend selected from Config.Image.
	Backend Backend
	// Interpreters overrides the executable for a language token.
	Interpreters map[string]string
	Logger       logging.Logger
	Metrics      *metrics.Collector
}

// Executor runs code blocks according to a Config.
type Executor struct {
	cfg          Config
	backend      Backend
	interpreters map[string]string
	logger       logging.Logger
	metrics      *metrics.Collector
}

// NewExecutor creates an executor. With an empty Config.Image code runs as a
// local subprocess, otherwise in a container started from the image.
func NewExecutor(cfg Config, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg = cfg.withDefaults()

	backend := opts.Backend
	if backend == nil {
		if cfg.Image != "" {
			backend = NewDockerBackend(cfg.Image)
		} else {
			backend = NewLocalBackend()
		}
	}

	return &Executor{
		cfg:          cfg,
		backend:      backend,
		interpreters: opts.Interpreters,
		logger:       logging.OrNoOp(opts.Logger),
		metrics:      opts.Metrics,
	}
}

// Config returns the effective configuration.
func (e *Executor) Config() Config { return e.cfg }

// ExecuteCode runs a single snippet with a default executor for cfg.
func ExecuteCode(ctx context.Context, language, code string, cfg Config) (*Result, error) {
	return NewExecutor(cfg).Execute(ctx, language, code)
}

// Execute writes code to tmp_code_<md5>.<language> inside the working
// directory, runs it and removes the file again.
//
// Empty language or code fail with core.ErrInvalidArgument, an unknown
// language with core.ErrUnsupportedLanguage and a process that cannot be
// started with core.ErrExecutionFault. A timeout yields exit code 1 with logs
// ending in TimeoutMessage.
func (e *Executor) Execute(ctx context.Context, language, code string) (res *Result, err error) {
	if language == "" {
		return nil, core.InvalidArgument("language is required")
	}
	if code == "" {
		return nil, core.InvalidArgument("code is required")
	}

	exe, err := e.interpreter(language)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "code.execute", tracing.String("language", language), tracing.String("backend", e.backend.Name()))
	start := time.Now()
	defer func() {
		exitCode := 0
		if res != nil {
			exitCode = res.ExitCode
		}
		e.metrics.RecordCodeExecution(language, e.backend.Name(), exitCode, time.Since(start), err)
		tracing.End(span, err)
	}()

	workDir, err := filepath.Abs(e.cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve work dir: %v", core.ErrExecutionFault, err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create work dir: %v", core.ErrExecutionFault, err)
	}

	filename := FileName(language, code)
	path := filepath.Join(workDir, filename)
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", core.ErrExecutionFault, filename, err)
	}
	defer os.Remove(path)

	e.logger.Debug("code.execute.start", "language", language, "file", filename, "backend", e.backend.Name())

	out, err := e.backend.Run(ctx, Process{Executable: exe, File: filename, WorkDir: workDir, Timeout: e.cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", core.ErrExecutionFault, exe, err)
	}

	res = &Result{Image: e.cfg.Image}
	switch {
	case out.TimedOut:
		res.ExitCode = 1
		res.Logs = strings.TrimSpace(scrubPath(out.Stderr, workDir) + "\n" + TimeoutMessage)
	case out.ExitCode != 0:
		res.ExitCode = out.ExitCode
		res.Logs = scrubPath(out.Stderr, workDir)
	default:
		res.Logs = strings.TrimSpace(out.Stdout)
	}

	e.logger.Debug("code.execute.done", "language", language, "exit_code", res.ExitCode, "timed_out", out.TimedOut, "duration", time.Since(start))
	return res, nil
}

// ExecuteBlocks runs blocks in order and stops at the first non-zero exit.
// Logs of every executed block are concatenated, each preceded by a newline.
// Blocks without a language tag get an inferred one; blocks in a language
// the sandbox cannot run produce exit code 1 and "unknown language <x>".
func (e *Executor) ExecuteBlocks(ctx context.Context, blocks []Block) (*Result, error) {
	var (
		logs     strings.Builder
		exitCode int
	)
	for i, b := range blocks {
		lang := b.Language
		if lang == "" {
			lang = InferLanguage(b.Code)
		}
		e.logger.Info("code.block.execute", "block", i+1, "language", lang)

		res, err := e.Execute(ctx, lang, b.Code)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrUnsupportedLanguage):
			res = &Result{ExitCode: 1, Logs: "unknown language " + lang}
		default:
			return nil, err
		}

		logs.WriteString("\n")
		logs.WriteString(res.Logs)
		exitCode = res.ExitCode
		if exitCode != 0 {
			break
		}
	}
	return &Result{ExitCode: exitCode, Logs: logs.String(), Image: e.cfg.Image}, nil
}

// FileName returns tmp_code_<md5(code)>.<ext>, where ext is "py" for any
// python token and the language itself otherwise.
func FileName(language, code string) string {
	ext := language
	if strings.HasPrefix(language, "python") {
		ext = "py"
	}
	sum := md5.Sum([]byte(code))
	return "tmp_code_" + hex.EncodeToString(sum[:]) + "." + ext
}

// Interpreter maps a language token to the executable that runs it.
func Interpreter(language string) (string, error) {
	switch language {
	case "python":
		return "python", nil
	case "shell", "bash", "sh", "powershell":
		if runtime.GOOS == "windows" {
			return "powershell", nil
		}
		return "sh", nil
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedLanguage, language)
	}
}

func (e *Executor) interpreter(language string) (string, error) {
	exe, err := Interpreter(language)
	if err != nil {
		return "", err
	}
	if override, ok := e.interpreters[language]; ok && override != "" {
		return override, nil
	}
	return exe, nil
}

func scrubPath(s, workDir string) string {
	s = strings.ReplaceAll(s, workDir+string(filepath.Separator), "")
	return strings.ReplaceAll(s, workDir, "")
}
