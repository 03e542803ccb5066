package code

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hupe1980/agentchat/core"
)

// DockerBackend runs interpreters inside a throwaway container via the docker CLI.
// The working directory is bind mounted at /workspace.
type DockerBackend struct {
	Image  string
	Binary string
	// Network is passed to --network; empty means "none".
	Network string
}

// NewDockerBackend creates a backend for image using the docker binary on PATH.
func NewDockerBackend(image string) *DockerBackend {
	return &DockerBackend{Image: image, Binary: "docker"}
}

// Name returns "docker".
func (b *DockerBackend) Name() string { return "docker" }

// Args returns the docker CLI arguments used to run p in a container named name.
func (b *DockerBackend) Args(name string, p Process) []string {
	network := b.Network
	if network == "" {
		network = "none"
	}
	return []string{
		"run", "--rm",
		"--name", name,
		"--network", network,
		"--security-opt", "no-new-privileges",
		"-v", fmt.Sprintf("%s:/workspace", p.WorkDir),
		"-w", "/workspace",
		b.Image,
		p.Executable, p.File,
	}
}

// Run executes p in a fresh container, killing it when the timeout elapses.
func (b *DockerBackend) Run(ctx context.Context, p Process) (*Output, error) {
	if b.Image == "" {
		return nil, errors.New("docker backend requires an image")
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	name := "agentchat_" + strings.ReplaceAll(core.NewID(), "-", "")[:16]
	cmd := exec.CommandContext(ctx, b.binary(), b.Args(name, p)...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		b.kill(name)
		out.TimedOut = true
		out.ExitCode = -1
		return out, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, err
	}
	return out, nil
}

func (b *DockerBackend) binary() string {
	if b.Binary == "" {
		return "docker"
	}
	return b.Binary
}

func (b *DockerBackend) kill(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = exec.CommandContext(ctx, b.binary(), "kill", name).Run()
}
