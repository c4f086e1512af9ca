// Package native runs the geometry kernel as a local child process.
package native

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Name identifies the native executor in attempt chains.
const Name = "native"

const (
	inputFile  = "input.scad"
	outputFile = "output.stl"

	defaultWaitDelay = 2 * time.Second
	stderrTailSize   = 2048
)

var _ ports.Executor = (*Executor)(nil)

// Options configures an Executor.
type Options struct {
	// Command is the argv template. {input} and {output} are substituted.
	// Without {output} the mesh is read from stdout.
	Command []string
	// ParamFlag precedes each name=value argument. Empty passes bare assignments.
	ParamFlag string
	// MaxProcesses bounds concurrently running kernels. Zero means one.
	MaxProcesses int
	// TempDir is the parent of per-render work directories. Empty means os.TempDir.
	TempDir string
	// WaitDelay bounds pipe draining after the process is killed.
	WaitDelay time.Duration
}

// Executor implements ports.Executor using os/exec.
type Executor struct {
	opts    Options
	slots   *semaphore.Weighted
	decoder ports.MeshDecoder
	logger  ports.Logger
}

// NewExecutor creates a native Executor.
func NewExecutor(opts Options, decoder ports.MeshDecoder, logger ports.Logger) *Executor {
	if opts.MaxProcesses <= 0 {
		opts.MaxProcesses = 1
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = defaultWaitDelay
	}
	return &Executor{
		opts:    opts,
		slots:   semaphore.NewWeighted(int64(opts.MaxProcesses)),
		decoder: decoder,
		logger:  logger,
	}
}

// Name implements ports.Executor.
func (e *Executor) Name() string { return Name }

// Execute writes the source to a work directory, runs the kernel and decodes its output.
func (e *Executor) Execute(ctx context.Context, g domain.Geometry) (*domain.Mesh, error) {
	if len(e.opts.Command) == 0 {
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(domain.ErrUnavailable, "no kernel command configured"))
	}
	executable, err := exec.LookPath(e.opts.Command[0])
	if err != nil {
		return nil, e.fail(domain.KindUnavailable,
			zerr.With(zerr.Wrap(domain.ErrUnavailable, "kernel not found"), "command", e.opts.Command[0]))
	}

	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, e.fail(domain.KindTimeout, zerr.Wrap(err, "waiting for a kernel slot"))
	}
	defer e.slots.Release(1)

	workDir, err := os.MkdirTemp(e.opts.TempDir, "lathe-render-*")
	if err != nil {
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(err, "failed to create work directory"))
	}
	defer os.RemoveAll(workDir) //nolint:errcheck // Best effort cleanup

	input := filepath.Join(workDir, inputFile)
	output := filepath.Join(workDir, outputFile)
	if err := os.WriteFile(input, []byte(g.Source()), 0o600); err != nil {
		return nil, e.fail(domain.KindUnavailable, zerr.Wrap(err, "failed to write kernel input"))
	}

	argv := e.arguments(g, input, output)
	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // Command comes from configuration
	cmd.Args[0] = argv[0]
	cmd.Dir = workDir
	cmd.WaitDelay = e.opts.WaitDelay

	fromStdout := !e.usesOutputFile()
	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrTailSize}
	lines := &logWriter{logger: e.logger, stream: "stderr"}
	defer lines.Flush()

	if fromStdout {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = &logWriter{logger: e.logger, stream: "stdout"}
	}
	cmd.Stderr = io.MultiWriter(stderr, lines)

	if err := cmd.Run(); err != nil {
		return nil, e.runError(ctx, err, stderr.String())
	}

	var data []byte
	if fromStdout {
		data = stdout.Bytes()
	} else {
		data, err = os.ReadFile(output) //nolint:gosec // Path is inside our work directory
		if err != nil {
			return nil, e.fail(domain.KindKernelRejected,
				zerr.With(zerr.Wrap(domain.ErrKernelRejected, "kernel produced no output"), "stderr", stderr.String()))
		}
	}

	mesh, err := e.decoder.Decode(data)
	if err != nil {
		return nil, e.fail(domain.KindDecode, err)
	}
	return mesh, nil
}

// arguments substitutes placeholders and appends parameter assignments.
func (e *Executor) arguments(g domain.Geometry, input, output string) []string {
	argv := make([]string, 0, len(e.opts.Command)+2*len(g.Params()))
	for _, arg := range e.opts.Command {
		arg = strings.ReplaceAll(arg, domain.InputPlaceholder, input)
		arg = strings.ReplaceAll(arg, domain.OutputPlaceholder, output)
		argv = append(argv, arg)
	}
	for _, p := range g.Params() {
		if e.opts.ParamFlag != "" {
			argv = append(argv, e.opts.ParamFlag)
		}
		argv = append(argv, p.Name.String()+"="+p.Value.Canonical())
	}
	return argv
}

func (e *Executor) usesOutputFile() bool {
	return slices.ContainsFunc(e.opts.Command, func(arg string) bool {
		return strings.Contains(arg, domain.OutputPlaceholder)
	})
}

// runError classifies a failed process run.
func (e *Executor) runError(ctx context.Context, err error, stderrTail string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return e.fail(domain.KindTimeout, zerr.Wrap(domain.ErrTimeout, "kernel killed at deadline"))
		}
		return e.fail(domain.KindTimeout, zerr.Wrap(ctxErr, "render cancelled"))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		wrapped := zerr.Wrap(domain.ErrKernelRejected, "kernel exited with failure")
		wrapped = zerr.With(wrapped, "exit_code", exitErr.ExitCode())
		wrapped = zerr.With(wrapped, "stderr", stderrTail)
		return e.fail(domain.KindKernelRejected, wrapped)
	}

	return e.fail(domain.KindUnavailable, zerr.Wrap(errors.Join(domain.ErrUnavailable, err), "failed to start kernel"))
}

func (e *Executor) fail(kind domain.ErrorKind, err error) error {
	return domain.NewRenderError(kind, Name, err)
}
