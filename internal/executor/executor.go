package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/syntax"

	"github.com/mfittko/singlebuild/internal/buildlog"
	"github.com/mfittko/singlebuild/internal/config"
	"github.com/mfittko/singlebuild/internal/validation"
)

var (
	// ErrSystemRootUnset is returned when %SystemRoot% is not set and no explicit tool was given
	ErrSystemRootUnset = eris.New("SystemRoot environment variable not set")

	// ErrToolNotFound is returned when the build tool executable does not exist
	ErrToolNotFound = eris.New("build tool not found")

	// ErrLaunchFailed is returned when the build tool process could not be started
	ErrLaunchFailed = eris.New("failed to launch build tool")
)

// toolSubpath is the location of MSBuild below %SystemRoot%
var toolSubpath = []string{"Microsoft.NET", "Framework", "v4.0.30319", "MSBuild.exe"}

// buildArgs precede the descriptor path on every invocation
var buildArgs = []string{
	"/t:Build",
	"/nologo",
	"/clp:NoSummary;ErrorsOnly;",
	"/target:Compile",
	"/verbosity:quiet",
}

// Result describes a finished build tool run
type Result struct {
	Descriptor string
	ExitCode   int
	Stderr     string
	Elapsed    time.Duration
}

// Succeeded reports whether the build tool exited with code 0
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Executor runs the build tool against a descriptor file
type Executor struct {
	toolPath string
	env      []string
	stdout   io.Writer
}

// New creates an Executor for the tool at toolPath. env replaces the
// process environment of the tool when non-nil.
func New(toolPath string, env []string) *Executor {
	return &Executor{
		toolPath: toolPath,
		env:      env,
		stdout:   os.Stdout,
	}
}

// SetStdout sets where the tool's standard output goes (useful for testing
// and for keeping JSON output clean)
func (e *Executor) SetStdout(w io.Writer) {
	e.stdout = w
}

// ToolPath returns the executable this Executor runs
func (e *Executor) ToolPath() string {
	return e.toolPath
}

// ResolveToolPath finds the build tool. An explicit SINGLEBUILD_TOOL wins;
// otherwise MSBuild is looked up below %SystemRoot%.
func ResolveToolPath(cfg *config.Config) (string, error) {
	toolPath := cfg.Tool()
	if toolPath == "" {
		systemRoot := cfg.SystemRoot()
		if err := validation.Required(config.KeySystemRoot, systemRoot); err != nil {
			return "", eris.Wrap(ErrSystemRootUnset, err.Error())
		}
		toolPath = filepath.Join(append([]string{systemRoot}, toolSubpath...)...)
	}

	if err := validation.ExecutableFile("tool", toolPath); err != nil {
		return "", eris.Wrap(ErrToolNotFound, err.Error())
	}

	return toolPath, nil
}

// Args returns the full argument list for building descriptor
func (e *Executor) Args(descriptor string) []string {
	args := make([]string, 0, len(buildArgs)+1)
	args = append(args, buildArgs...)
	return append(args, descriptor)
}

// CommandLine renders the invocation for descriptor as a shell-quoted string
func (e *Executor) CommandLine(descriptor string) (string, error) {
	words := append([]string{e.toolPath}, e.Args(descriptor)...)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			return "", eris.Wrapf(err, "cannot quote %q", w)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}

// Run builds descriptor and waits for the tool to exit. Only the error
// stream is captured; a non-zero exit code is reported in the Result, not
// as an error.
func (e *Executor) Run(ctx context.Context, descriptor string) (*Result, error) {
	log := buildlog.Log(ctx)

	cmd := execCommand(ctx, e.toolPath, e.Args(descriptor)...)
	if e.env != nil {
		cmd.Env = e.env
	}
	cmd.Dir = filepath.Dir(descriptor)

	var stderr bytes.Buffer
	cmd.Stdout = e.stdout
	cmd.Stderr = &stderr
	hideWindow(cmd)

	log.Debug().Str("tool", e.toolPath).Strs("args", cmd.Args[1:]).Msg("Starting build tool")

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Descriptor: descriptor,
		Stderr:     stderr.String(),
		Elapsed:    time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			log.Debug().Int("exit_code", result.ExitCode).Dur("elapsed", result.Elapsed).Msg("Build tool failed")
			return result, nil
		}
		return nil, eris.Wrapf(ErrLaunchFailed, "%s: %v", e.toolPath, err)
	}

	log.Debug().Dur("elapsed", result.Elapsed).Msg("Build tool finished")
	return result, nil
}
