package config

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/mfittko/singlebuild/internal/validation"
)

const (
	// KeySystemRoot locates the Windows installation holding the .NET Framework build tools
	KeySystemRoot = "SystemRoot"

	// KeyTool overrides build tool discovery with an explicit executable path
	KeyTool = "SINGLEBUILD_TOOL"

	// KeyPattern is the file name glob used to recognise project descriptors
	KeyPattern = "SINGLEBUILD_PATTERN"

	// KeyOutput selects the console output format (text or json)
	KeyOutput = "SINGLEBUILD_OUTPUT"

	// DefaultPattern matches C# project files
	DefaultPattern = "*.csproj"

	// DefaultOutput is the human-readable output format
	DefaultOutput = "text"
)

// foldKeys makes keys case-insensitive, matching the Windows environment
var foldKeys = runtime.GOOS == "windows"

// Config holds the configuration for a singlebuild run
type Config struct {
	// Environment passed to the build tool; also the source for the typed getters
	Env map[string]string
}

// New creates a new Config instance
func New() *Config {
	return &Config{
		Env: make(map[string]string),
	}
}

// LoadEnvFile loads environment variables from a file
// Returns nil if the file doesn't exist (not an error)
func (c *Config) LoadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, not an error
		}
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))

		value = c.expandVars(value)

		// The env file overrides the process environment
		c.Env[canonicalKey(key)] = value
	}

	return scanner.Err()
}

// LoadFromEnvironment loads environment variables from the current process
func (c *Config) LoadFromEnvironment() {
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			// Windows keeps per-drive entries like "=C:=C:\" in the environment block
			continue
		}

		key := canonicalKey(parts[0])
		if _, exists := c.Env[key]; !exists {
			c.Env[key] = parts[1]
		}
	}
}

// SetFromFlags sets configuration values from command-line flags
func (c *Config) SetFromFlags(key, value string) {
	if value != "" {
		c.Env[canonicalKey(key)] = value
	}
}

// Get returns the value for key, or "" if unset
func (c *Config) Get(key string) string {
	return c.Env[canonicalKey(key)]
}

// canonicalKey is the form keys are stored under. On Windows, SystemRoot and
// SYSTEMROOT name the same variable, so a later layer replaces the earlier one.
func canonicalKey(key string) string {
	if foldKeys {
		return strings.ToUpper(key)
	}
	return key
}

// SystemRoot returns the Windows installation root, or "" if unset
func (c *Config) SystemRoot() string {
	return c.Get(KeySystemRoot)
}

// Tool returns the explicit build tool path, or "" for automatic discovery
func (c *Config) Tool() string {
	return c.Get(KeyTool)
}

// Pattern returns the descriptor glob
func (c *Config) Pattern() string {
	if p := c.Get(KeyPattern); p != "" {
		return p
	}
	return DefaultPattern
}

// Output returns the configured output format
func (c *Config) Output() string {
	if o := c.Get(KeyOutput); o != "" {
		return o
	}
	return DefaultOutput
}

// Validate checks the values a run depends on and returns every problem found
func (c *Config) Validate() error {
	var errs validation.Errors

	errs.Add(validation.Pattern(KeyPattern, c.Pattern()))
	errs.Add(validation.OneOf(KeyOutput, c.Output(), []string{"text", "json"}))

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// expandVars performs simple variable expansion for ${VAR} syntax
func (c *Config) expandVars(value string) string {
	result := value

	for {
		start := strings.Index(result, "${")
		if start == -1 {
			break
		}

		end := strings.Index(result[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := result[start+2 : end]

		varValue := ""
		if val, exists := c.Env[canonicalKey(varName)]; exists {
			varValue = val
		} else if val := os.Getenv(varName); val != "" {
			varValue = val
		}

		result = result[:start] + varValue + result[end+1:]
	}

	return result
}

// ToEnvSlice converts the config to a sorted slice of "KEY=value" strings
func (c *Config) ToEnvSlice() []string {
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}

// unquote strips one pair of matching surrounding quotes
func unquote(value string) string {
	if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
		return value[1 : len(value)-1]
	}
	return value
}
