// Package compiler drives the Go toolchain over an emitted module.
package compiler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrGoNotInstalled = errors.New("go toolchain not found")

// OutputSink receives the output of the build, one line at a time.
// Calls for different streams may happen concurrently.
type OutputSink interface {
	Stdout(line string)
	Stderr(line string)
}

// NullSink discards all output.
type NullSink struct{}

func (NullSink) Stdout(string) {}
func (NullSink) Stderr(string) {}

// FuncSink adapts functions to an OutputSink. Nil fields discard.
type FuncSink struct {
	OnStdout func(line string)
	OnStderr func(line string)
}

func (s FuncSink) Stdout(line string) {
	if s.OnStdout != nil {
		s.OnStdout(line)
	}
}

func (s FuncSink) Stderr(line string) {
	if s.OnStderr != nil {
		s.OnStderr(line)
	}
}

// Target is a GOOS/GOARCH pair. Empty fields use the host value.
type Target struct {
	OS   string
	Arch string
}

// ParseTarget parses "os/arch".
func ParseTarget(s string) (Target, error) {
	if s == "" {
		return Target{}, nil
	}
	goos, goarch, ok := strings.Cut(s, "/")
	if !ok || goos == "" || goarch == "" || strings.Contains(goarch, "/") {
		return Target{}, fmt.Errorf("invalid target %q, expected os/arch", s)
	}
	return Target{OS: goos, Arch: goarch}, nil
}

func (t Target) String() string {
	if t.OS == "" && t.Arch == "" {
		return "host"
	}
	return t.OS + "/" + t.Arch
}

type BuildError struct {
	ExitCode int
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("go build failed with exit code %d", e.ExitCode)
}

// Artifact is the result of a successful build.
type Artifact struct {
	Dir string
}

type GoCompiler struct {
	// GoBin is the go executable. Defaults to "go" looked up in PATH.
	GoBin   string
	Release bool
	Target  Target
	// Sink receives the build output. Defaults to NullSink.
	Sink   OutputSink
	Logger *zap.Logger
}

func (c *GoCompiler) goBin() string {
	if c.GoBin == "" {
		return "go"
	}
	return c.GoBin
}

// IsInstalled reports whether the go executable can be found.
func (c *GoCompiler) IsInstalled() bool {
	_, err := exec.LookPath(c.goBin())
	return err == nil
}

// Args returns the arguments passed to the go executable. Emitted
// modules ship without go.sum, hence -mod=mod.
func (c *GoCompiler) Args() []string {
	args := []string{"build", "-mod=mod"}
	if c.Release {
		args = append(args, "-trimpath", "-ldflags=-s -w")
	}
	return append(args, "./...")
}

// Env returns the environment of the build command.
func (c *GoCompiler) Env() []string {
	env := os.Environ()
	if c.Target.OS != "" {
		env = append(env, "GOOS="+c.Target.OS)
	}
	if c.Target.Arch != "" {
		env = append(env, "GOARCH="+c.Target.Arch)
	}
	return env
}

// Compile builds the module in dir. Output is streamed line by line
// into the sink while the build runs.
func (c *GoCompiler) Compile(ctx context.Context, dir string) (Artifact, error) {
	if !c.IsInstalled() {
		return Artifact{}, fmt.Errorf("%w: %v", ErrGoNotInstalled, c.goBin())
	}
	sink := c.Sink
	if sink == nil {
		sink = NullSink{}
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cmd := exec.CommandContext(ctx, c.goBin(), c.Args()...)
	cmd.Dir = dir
	cmd.Env = c.Env()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Artifact{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Artifact{}, err
	}

	log.Debug("running go build",
		zap.String("dir", dir),
		zap.Strings("args", cmd.Args),
		zap.Stringer("target", c.Target))
	if err := cmd.Start(); err != nil {
		return Artifact{}, err
	}

	var g errgroup.Group
	g.Go(func() error { return pump(stdout, sink.Stdout) })
	g.Go(func() error { return pump(stderr, sink.Stderr) })
	pumpErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ctx.Err() != nil {
				return Artifact{}, ctx.Err()
			}
			return Artifact{}, &BuildError{ExitCode: exitErr.ExitCode()}
		}
		return Artifact{}, err
	}
	if pumpErr != nil {
		return Artifact{}, fmt.Errorf("read build output: %w", pumpErr)
	}
	return Artifact{Dir: dir}, nil
}

// pump calls fn for each line read from r until EOF.
func pump(r io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		fn(sc.Text())
	}
	return sc.Err()
}
