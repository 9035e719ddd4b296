// Package locator finds the project descriptor a build should run against.
//
// The search starts at a directory resolved from the command line and walks
// up through its parents until a directory holds at least one file matching
// the descriptor pattern. When the command line named a file, that file's
// name is used as a hint to pick the descriptor that references it.
package locator

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/mfittko/singlebuild/internal/buildlog"
	"github.com/mfittko/singlebuild/internal/validation"
)

var (
	// ErrInvalidDirectory is returned when the starting directory does not exist
	ErrInvalidDirectory = eris.New("invalid directory")

	// ErrDescriptorNotFound is returned when no suitable descriptor exists up to the filesystem root
	ErrDescriptorNotFound = eris.New("descriptor not found")
)


// SearchContext is the state of one search. Directory moves upward as the
// search ascends.
type SearchContext struct {
	Directory    string
	FileNameHint string
}

// Resolve turns the command-line argument into a SearchContext. An empty
// arg falls back to exeDir. An existing file contributes its directory and
// its name as the hint; anything else is taken as a directory.
func Resolve(arg, exeDir string) (SearchContext, error) {
	path := arg
	if path == "" {
		path = exeDir
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return SearchContext{}, eris.Wrapf(ErrInvalidDirectory, "cannot make %q absolute: %v", path, err)
	}

	sc := SearchContext{Directory: abs}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		sc.Directory = filepath.Dir(abs)
		sc.FileNameHint = filepath.Base(abs)
	}

	if err := validation.Directory("path", sc.Directory); err != nil {
		return SearchContext{}, eris.Wrap(ErrInvalidDirectory, err.Error())
	}

	return sc, nil
}

// Locator searches for descriptor files matching a glob pattern.
type Locator struct {
	pattern string
	readDir func(string) ([]os.DirEntry, error)
	stat    func(string) (os.FileInfo, error)
}

// New returns a Locator for the given file name pattern (e.g. "*.csproj").
func New(pattern string) *Locator {
	return &Locator{
		pattern: pattern,
		readDir: os.ReadDir,
		stat:    os.Stat,
	}
}

// Pattern returns the descriptor glob this Locator matches.
func (l *Locator) Pattern() string {
	return l.pattern
}

// Find walks upward from sc.Directory and returns the path of the selected
// descriptor. sc.Directory is left at the directory the descriptor was
// found in, or at the filesystem root when nothing was found.
func (l *Locator) Find(ctx context.Context, sc *SearchContext) (string, error) {
	log := buildlog.Log(ctx)
	start := sc.Directory

	for {
		log.Debug().Str("dir", sc.Directory).Msg("Scanning directory")

		candidates, err := l.Candidates(sc.Directory)
		if err != nil {
			return "", err
		}

		if len(candidates) > 0 {
			log.Debug().Int("count", len(candidates)).Str("dir", sc.Directory).Msg("Found descriptor candidates")
			return l.selectCandidate(ctx, sc, candidates)
		}

		parent := filepath.Dir(sc.Directory)
		if parent == sc.Directory {
			return "", eris.Wrapf(ErrDescriptorNotFound, "no %s file in %s or any parent directory", l.pattern, start)
		}
		sc.Directory = parent
	}
}

// Candidates lists the files in dir matching the pattern, sorted by name.
func (l *Locator) Candidates(dir string) ([]string, error) {
	entries, err := l.readDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read directory %s", dir)
	}

	var matches []string
	for _, entry := range entries {
		ok, err := l.match(entry.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "invalid descriptor pattern %q", l.pattern)
		}
		if !ok {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := l.stat(path)
			if err != nil || info.IsDir() {
				continue
			}
		}
		matches = append(matches, path)
	}

	return matches, nil
}

func (l *Locator) match(name string) (bool, error) {
	if runtime.GOOS == "windows" {
		return filepath.Match(strings.ToLower(l.pattern), strings.ToLower(name))
	}
	return filepath.Match(l.pattern, name)
}

func (l *Locator) selectCandidate(ctx context.Context, sc *SearchContext, candidates []string) (string, error) {
	if sc.FileNameHint == "" {
		return candidates[0], nil
	}

	log := buildlog.Log(ctx)
	for _, candidate := range candidates {
		// the argument may name a descriptor directly
		if filepath.Base(candidate) == sc.FileNameHint {
			return candidate, nil
		}

		found, err := ContainsLine(candidate, sc.FileNameHint)
		if err != nil {
			return "", err
		}
		if found {
			return candidate, nil
		}
		log.Debug().Str("file", candidate).Str("hint", sc.FileNameHint).Msg("Descriptor does not reference hint")
	}

	return "", eris.Wrapf(ErrDescriptorNotFound, "no %s file in %s references %q", l.pattern, sc.Directory, sc.FileNameHint)
}

// ContainsLine reports whether any line of the file at path contains text.
func ContainsLine(path, text string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, eris.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	// Lines are unbounded; a single-line descriptor is read whole.
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if strings.Contains(strings.TrimRight(line, "\r\n"), text) {
			return true, nil
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, eris.Wrapf(err, "failed to read %s", path)
		}
	}

	return false, nil
}
