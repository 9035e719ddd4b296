// Package runner ties the descriptor search and the build tool together.
// It is the only place that turns failures into exit codes; nothing in
// here terminates the process.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mfittko/singlebuild/internal/buildlog"
	"github.com/mfittko/singlebuild/internal/config"
	"github.com/mfittko/singlebuild/internal/executor"
	"github.com/mfittko/singlebuild/internal/locator"
	"github.com/mfittko/singlebuild/internal/output"
	"github.com/mfittko/singlebuild/internal/validation"
)

// Options are the per-invocation inputs
type Options struct {
	// Path is the command-line argument; empty means ExeDir
	Path string
	// Extra holds arguments after Path; any at all is an invalid invocation
	Extra []string
	// ExeDir is the directory of the running executable
	ExeDir string
	// DryRun stops after printing the build command
	DryRun bool
}

// Runner executes one locate-and-build cycle
type Runner struct {
	cfg        *config.Config
	out        *output.Formatter
	toolOutput io.Writer
}

// New creates a Runner. The build tool's standard output is forwarded to
// os.Stdout for text output and to os.Stderr for JSON output.
func New(cfg *config.Config, out *output.Formatter) *Runner {
	r := &Runner{
		cfg:        cfg,
		out:        out,
		toolOutput: os.Stdout,
	}
	if out.Format() == output.FormatJSON {
		r.toolOutput = os.Stderr
	}
	return r
}

// SetToolOutput sets where the build tool's standard output goes
func (r *Runner) SetToolOutput(w io.Writer) {
	r.toolOutput = w
}

// Run locates the descriptor and builds it. It returns nil when the build
// succeeded and an ExitCodeError otherwise.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	log := buildlog.Log(ctx)

	if len(opts.Extra) > 0 {
		err := eris.Wrapf(ErrTooManyArguments, "unexpected %q", opts.Extra)
		return r.fail(ctx, KindInvalidArgument, msgInvalidArgument, err)
	}

	if err := r.cfg.Validate(); err != nil {
		return r.invalidConfig(err)
	}

	sc, err := locator.Resolve(opts.Path, opts.ExeDir)
	if err != nil {
		return r.fail(ctx, KindInvalidDirectory, msgInvalidDirectory, err)
	}
	log.Debug().Str("dir", sc.Directory).Str("hint", sc.FileNameHint).Msg("Resolved starting point")

	loc := locator.New(r.cfg.Pattern())
	descriptor, err := loc.Find(ctx, &sc)
	if err != nil {
		if !eris.Is(err, locator.ErrDescriptorNotFound) {
			log.Error().Err(err).Msg("Descriptor search failed")
		}
		return r.fail(ctx, KindDescriptorNotFound, descriptorNotFoundMessage(loc.Pattern()), err)
	}
	log.Debug().Str("descriptor", descriptor).Msg("Selected descriptor")

	toolPath, err := executor.ResolveToolPath(r.cfg)
	if err != nil {
		msg := msgToolNotFound
		if eris.Is(err, executor.ErrSystemRootUnset) {
			msg = msgSystemRootNotFound
		}
		return r.fail(ctx, KindBuildToolNotFound, msg, err)
	}

	exe := executor.New(toolPath, r.cfg.ToEnvSlice())
	exe.SetStdout(r.toolOutput)

	if opts.DryRun {
		return r.dryRun(exe, descriptor)
	}

	if err := r.out.Progress(msgCompiling, descriptor); err != nil {
		return err
	}

	result, err := exe.Run(ctx, descriptor)
	if err != nil {
		return r.fail(ctx, KindSubprocessLaunchFailure, msgLaunchFailed, err)
	}

	err = r.out.PrintBuild(&output.BuildReport{
		Descriptor:     result.Descriptor,
		ExitCode:       result.ExitCode,
		Stderr:         result.Stderr,
		Elapsed:        result.Elapsed,
		ElapsedMessage: msgElapsed,
		SuccessMessage: msgBuildSucceeded,
		FailureMessage: msgBuildFailed,
	})
	if err != nil {
		return err
	}

	if !result.Succeeded() {
		code := result.ExitCode
		if code <= 0 {
			code = 1
		}
		return ExitCodeError{Kind: KindBuildFailed, Code: code}
	}

	return nil
}

func (r *Runner) dryRun(exe *executor.Executor, descriptor string) error {
	cmdline, err := exe.CommandLine(descriptor)
	if err != nil {
		return err
	}

	if r.out.Format() == output.FormatText {
		return r.out.Progress("%s", cmdline)
	}
	return r.out.Print(&output.Result{
		Success: true,
		Message: cmdline,
		Data: map[string]interface{}{
			"descriptor": descriptor,
			"tool":       exe.ToolPath(),
			"args":       exe.Args(descriptor),
		},
	})
}

// fail prints msg and returns the ExitCodeError for kind
func (r *Runner) fail(ctx context.Context, kind Kind, msg string, cause error) error {
	buildlog.Log(ctx).Debug().Err(cause).Str("kind", kind.String()).Msg("Run failed")

	if err := r.out.Print(&output.Result{Success: false, Error: msg}); err != nil {
		return err
	}
	return ExitCodeError{Kind: kind, Code: 1, Err: cause}
}

func (r *Runner) invalidConfig(err error) error {
	result := &output.ValidationResult{Valid: false}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		errs = validation.Errors{err}
	}
	for _, e := range errs {
		var valErr *validation.Error
		if errors.As(e, &valErr) {
			result.Errors = append(result.Errors, output.ValidationError{
				Field:       valErr.Field,
				Value:       valErr.Value,
				Message:     valErr.Message,
				Remediation: valErr.Remediation,
			})
			continue
		}
		result.Errors = append(result.Errors, output.ValidationError{Message: e.Error()})
	}

	if printErr := r.out.PrintValidation(result); printErr != nil {
		return printErr
	}
	if r.out.Format() == output.FormatText {
		if printErr := r.out.Print(&output.Result{Success: false, Error: msgInvalidArgument}); printErr != nil {
			return printErr
		}
	}
	return ExitCodeError{Kind: KindInvalidArgument, Code: 1, Err: err}
}

// descriptorNotFoundMessage names the descriptor extension, e.g. ".csproj"
func descriptorNotFoundMessage(pattern string) string {
	ext := strings.TrimLeft(pattern, "*")
	if ext == "" {
		ext = pattern
	}
	return strings.Replace(msgDescriptorNotFound, "%s", ext, 1)
}
