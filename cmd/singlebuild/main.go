package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mfittko/singlebuild/internal/buildlog"
	"github.com/mfittko/singlebuild/internal/config"
	"github.com/mfittko/singlebuild/internal/output"
	"github.com/mfittko/singlebuild/internal/runner"
)

var version = "dev"

// defaultEnvFile is loaded when --env-file is not given and the file exists
var defaultEnvFile = filepath.Join("config", "singlebuild.env")

// flags holds the command-line flags of one invocation
type flags struct {
	envFile string
	pattern string
	tool    string
	output  string
	dryRun  bool
	verbose bool
	noColor bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "singlebuild [path]",
		Short: "Build the nearest C# project with MSBuild",
		Long: `singlebuild finds the project file (*.csproj) closest to a path and builds
it with the .NET Framework MSBuild.

The path may be a directory or a file. For a file, the project that references
it is chosen when a directory holds several projects. Without a path, the
directory of the singlebuild executable is used. Parent directories are
searched until a project file is found.

MSBuild is located at %SystemRoot%\Microsoft.NET\Framework\v4.0.30319\MSBuild.exe
unless --tool or SINGLEBUILD_TOOL names it explicitly.

Examples:
  singlebuild
  singlebuild C:\src\App\Models\Customer.cs
  singlebuild --dry-run .
  singlebuild --output json C:\src\App`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(cfg.Output())
			if err != nil {
				// reported by cfg.Validate() inside the runner
				format = output.FormatText
			}

			color := !f.noColor && os.Getenv("NO_COLOR") == ""
			out := output.New(format)
			out.SetWriter(stdout)
			out.SetColor(color && isTerminal(stdout))

			logger := buildlog.New(stderr, f.verbose, color && isTerminal(stderr))
			ctx := buildlog.WithLogger(cmd.Context(), &logger)

			opts := runner.Options{
				ExeDir: executableDir(),
				DryRun: f.dryRun,
			}
			if len(args) > 0 {
				opts.Path = args[0]
				opts.Extra = args[1:]
			}

			r := runner.New(cfg, out)
			if format == output.FormatJSON {
				r.SetToolOutput(stderr)
			} else {
				r.SetToolOutput(stdout)
			}
			return r.Run(ctx, opts)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Path to environment file (default: config/singlebuild.env if exists)")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "Project file pattern (default: *.csproj)")
	cmd.Flags().StringVar(&f.tool, "tool", "", "Path to MSBuild.exe (default: found below %SystemRoot%)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output format: text or json (default: text)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the build command without running it")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log the search and build steps to stderr")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable coloured output")

	return cmd
}

// loadConfig builds the configuration in precedence order (lowest to highest):
// process environment, env file, command-line flags.
func loadConfig(f *flags) (*config.Config, error) {
	cfg := config.New()
	cfg.LoadFromEnvironment()

	envFile := f.envFile
	if envFile == "" {
		if _, err := os.Stat(defaultEnvFile); err == nil {
			envFile = defaultEnvFile
		}
	}
	if envFile != "" {
		if err := cfg.LoadEnvFile(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg.SetFromFlags(config.KeyPattern, f.pattern)
	cfg.SetFromFlags(config.KeyTool, f.tool)
	cfg.SetFromFlags(config.KeyOutput, f.output)

	return cfg, nil
}

// executableDir returns the directory holding the running binary, or "" to
// fall back to the working directory
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		var exitErr runner.ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
