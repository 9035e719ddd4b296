package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error represents a validation error with an actionable remediation hint
type Error struct {
	Field       string
	Value       string
	Message     string
	Remediation string
}

func (e *Error) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s: %s\nRemediation: %s", e.Field, e.Message, e.Remediation)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Required validates that a field is not empty
func Required(field, value string) error {
	if value == "" {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     "field is required but not set",
			Remediation: fmt.Sprintf("Set %s via environment variable or command-line flag", field),
		}
	}
	return nil
}

// OneOf validates that a value is one of the allowed values
func OneOf(field, value string, allowed []string) error {
	if value == "" {
		return nil // Empty values are handled by Required()
	}

	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	return &Error{
		Field:       field,
		Value:       value,
		Message:     fmt.Sprintf("invalid value: %q", value),
		Remediation: fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Directory validates that value names an existing directory
func Directory(field, value string) error {
	info, err := os.Stat(value)
	if err != nil || !info.IsDir() {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("not an existing directory: %q", value),
			Remediation: "Pass a project directory or a file inside one",
		}
	}
	return nil
}

// ExecutableFile validates that value names an existing regular file
func ExecutableFile(field, value string) error {
	if value == "" {
		return nil // Empty values are handled by Required()
	}

	info, err := os.Stat(value)
	if err != nil || info.IsDir() {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("executable not found: %q", value),
			Remediation: "Install the .NET Framework build tools or point --tool at MSBuild.exe",
		}
	}
	return nil
}

// Pattern validates a file name glob such as "*.csproj"
func Pattern(field, value string) error {
	if value == "" {
		return nil // Empty values are handled by Required()
	}

	if strings.ContainsAny(value, `/\`) {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("pattern must not contain a path separator: %q", value),
			Remediation: "Use a file name pattern such as *.csproj",
		}
	}

	if _, err := filepath.Match(value, ""); err != nil {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("invalid pattern: %q", value),
			Remediation: "Use a file name pattern such as *.csproj",
		}
	}
	return nil
}

// Errors collects multiple validation errors
type Errors []error

func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed:\n%s", strings.Join(messages, "\n"))
}

// HasErrors returns true if there are any errors
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Add appends err if it is not nil
func (e *Errors) Add(err error) {
	if err != nil {
		*e = append(*e, err)
	}
}
