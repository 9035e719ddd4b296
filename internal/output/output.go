package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/mitchellh/colorstring"
)

// Format represents the output format
type Format string

const (
	// FormatText is the default human-readable text format
	FormatText Format = "text"
	// FormatJSON is machine-readable JSON format
	FormatJSON Format = "json"
)

// ParseFormat parses a format string and validates it
func ParseFormat(s string) (Format, error) {
	format := Format(s)
	switch format {
	case FormatText, FormatJSON:
		return format, nil
	default:
		return FormatText, fmt.Errorf("invalid output format: %q (must be 'text' or 'json')", s)
	}
}

// Formatter handles outputting data in different formats
type Formatter struct {
	format   Format
	writer   io.Writer
	colorize colorstring.Colorize
}

// New creates a new Formatter with the specified format
func New(format Format) *Formatter {
	return &Formatter{
		format: format,
		writer: os.Stdout,
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: true,
			Reset:   true,
		},
	}
}

// SetWriter sets the output writer (useful for testing)
func (f *Formatter) SetWriter(w io.Writer) {
	f.writer = w
}

// SetColor enables or disables colour codes in text output
func (f *Formatter) SetColor(enabled bool) {
	f.colorize.Disable = !enabled
}

// Format returns the configured output format
func (f *Formatter) Format() Format {
	return f.format
}

// Result represents a command result that can be output in different formats
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Print outputs a result in the configured format
func (f *Formatter) Print(result *Result) error {
	switch f.format {
	case FormatJSON:
		return f.printJSON(result)
	case FormatText:
		return f.printText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

// Progress prints an intermediate status line. JSON output only carries
// the final result, so nothing is written there.
func (f *Formatter) Progress(format string, args ...interface{}) error {
	if f.format != FormatText {
		return nil
	}
	_, err := fmt.Fprintf(f.writer, format+"\n", args...)
	return err
}

// printJSON outputs the result as JSON
func (f *Formatter) printJSON(result *Result) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printText outputs the result as human-readable text
func (f *Formatter) printText(result *Result) error {
	if !result.Success {
		if result.Error != "" {
			_, err := fmt.Fprintln(f.writer, f.colorize.Color("[red]"+result.Error))
			return err
		}
		_, err := fmt.Fprintln(f.writer, f.colorize.Color("[red]Command failed"))
		return err
	}

	if result.Message != "" {
		_, err := fmt.Fprintln(f.writer, f.colorize.Color("[green]"+result.Message))
		return err
	}

	// Print data as key-value pairs
	keys := make([]string, 0, len(result.Data))
	for k := range result.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(f.writer, "%s: %v\n", k, result.Data[k]); err != nil {
			return err
		}
	}

	return nil
}

// BuildReport is the outcome of one build tool run
type BuildReport struct {
	Descriptor     string
	ExitCode       int
	Stderr         string
	Elapsed        time.Duration
	ElapsedMessage string // printf format taking the elapsed seconds as a string
	SuccessMessage string
	FailureMessage string
}

// FormatSeconds renders d as seconds with two decimals
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64)
}

// PrintBuild outputs a build report. In text mode the tool's error stream
// is printed verbatim, followed by the elapsed time and the status line.
func (f *Formatter) PrintBuild(report *BuildReport) error {
	success := report.ExitCode == 0
	message := report.FailureMessage
	if success {
		message = report.SuccessMessage
	}

	switch f.format {
	case FormatJSON:
		result := &Result{
			Success: success,
			Data: map[string]interface{}{
				"descriptor":      report.Descriptor,
				"exit_code":       report.ExitCode,
				"elapsed_seconds": report.Elapsed.Seconds(),
				"stderr":          report.Stderr,
			},
		}
		if success {
			result.Message = message
		} else {
			result.Error = message
		}
		return f.printJSON(result)
	case FormatText:
		if _, err := fmt.Fprintln(f.writer, report.Stderr); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(f.writer, report.ElapsedMessage+"\n", FormatSeconds(report.Elapsed)); err != nil {
			return err
		}
		return f.printText(&Result{Success: success, Message: message, Error: message})
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

// ValidationError represents a validation error in structured format
type ValidationError struct {
	Field       string `json:"field"`
	Value       string `json:"value,omitempty"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

// ValidationResult represents validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// PrintValidation outputs validation results
func (f *Formatter) PrintValidation(result *ValidationResult) error {
	switch f.format {
	case FormatJSON:
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case FormatText:
		if result.Valid {
			_, err := fmt.Fprintln(f.writer, "Validation passed")
			return err
		}
		_, err := fmt.Fprintln(f.writer, f.colorize.Color("[red]Validation failed:"))
		if err != nil {
			return err
		}
		for _, e := range result.Errors {
			_, err = fmt.Fprintf(f.writer, "  - %s: %s\n", e.Field, e.Message)
			if err != nil {
				return err
			}
			if e.Remediation != "" {
				_, err = fmt.Fprintf(f.writer, "    Remediation: %s\n", e.Remediation)
				if err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}
