package locator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	srcFile := filepath.Join(tmpDir, "Program.cs")
	writeFile(t, srcFile, "class Program {}")

	tests := []struct {
		name     string
		arg      string
		exeDir   string
		wantDir  string
		wantHint string
		wantErr  bool
	}{
		{
			name:    "directory argument",
			arg:     tmpDir,
			wantDir: tmpDir,
		},
		{
			name:     "file argument splits into directory and hint",
			arg:      srcFile,
			wantDir:  tmpDir,
			wantHint: "Program.cs",
		},
		{
			name:    "no argument uses executable directory",
			exeDir:  tmpDir,
			wantDir: tmpDir,
		},
		{
			name:    "missing directory",
			arg:     filepath.Join(tmpDir, "does", "not", "exist"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := Resolve(tt.arg, tt.exeDir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !eris.Is(err, ErrInvalidDirectory) {
					t.Errorf("Resolve() error = %v, want ErrInvalidDirectory", err)
				}
				return
			}
			if sc.Directory != tt.wantDir {
				t.Errorf("Directory = %q, want %q", sc.Directory, tt.wantDir)
			}
			if sc.FileNameHint != tt.wantHint {
				t.Errorf("FileNameHint = %q, want %q", sc.FileNameHint, tt.wantHint)
			}
		})
	}
}

func TestResolve_RelativePathIsMadeAbsolute(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "sub", "app.csproj"), "<Project />")
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer os.Chdir(origDir)
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}

	sc, err := Resolve("sub", "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !filepath.IsAbs(sc.Directory) {
		t.Errorf("Directory = %q, want absolute path", sc.Directory)
	}
	if filepath.Base(sc.Directory) != "sub" {
		t.Errorf("Directory = %q, want .../sub", sc.Directory)
	}
}

func TestFind_SingleDescriptorNoHint(t *testing.T) {
	tmpDir := t.TempDir()
	project := filepath.Join(tmpDir, "app.csproj")
	writeFile(t, project, "<Project />")
	writeFile(t, filepath.Join(tmpDir, "readme.md"), "docs")

	sc := SearchContext{Directory: tmpDir}
	got, err := New("*.csproj").Find(context.Background(), &sc)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != project {
		t.Errorf("Find() = %q, want %q", got, project)
	}
}

func TestFind_NoHintTakesFirstInListingOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "b.csproj"), "<Project />")
	writeFile(t, filepath.Join(tmpDir, "a.csproj"), "<Project />")

	sc := SearchContext{Directory: tmpDir}
	got, err := New("*.csproj").Find(context.Background(), &sc)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if filepath.Base(got) != "a.csproj" {
		t.Errorf("Find() = %q, want a.csproj", got)
	}
}

func TestFind_AscendsToParent(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "A", "app.csproj")
	writeFile(t, project, "<Project />")
	deep := filepath.Join(root, "A", "B", "C")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", deep, err)
	}

	sc := SearchContext{Directory: deep}
	got, err := New("*.csproj").Find(context.Background(), &sc)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != project {
		t.Errorf("Find() = %q, want %q", got, project)
	}
	if sc.Directory != filepath.Join(root, "A") {
		t.Errorf("SearchContext.Directory = %q, want %q", sc.Directory, filepath.Join(root, "A"))
	}
}

func TestFind_NotFoundReachesRoot(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "A", "B", "C")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", deep, err)
	}

	// a pattern nothing on the host will match
	sc := SearchContext{Directory: deep}
	_, err := New("*.singlebuild-test-descriptor").Find(context.Background(), &sc)
	if !eris.Is(err, ErrDescriptorNotFound) {
		t.Fatalf("Find() error = %v, want ErrDescriptorNotFound", err)
	}
	if filepath.Dir(sc.Directory) != sc.Directory {
		t.Errorf("search stopped at %q, want filesystem root", sc.Directory)
	}
}

func TestFind_HintSelectsReferencingDescriptor(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.csproj"), "<Project>\n  <Compile Include=\"Other.cs\" />\n</Project>\n")
	want := filepath.Join(tmpDir, "b.csproj")
	writeFile(t, want, "<Project>\n  <Compile Include=\"Program.cs\" />\n</Project>\n")

	sc := SearchContext{Directory: tmpDir, FileNameHint: "Program.cs"}
	got, err := New("*.csproj").Find(context.Background(), &sc)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestFind_HintWithoutMatchIsNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.csproj"), "<Project />")

	sc := SearchContext{Directory: tmpDir, FileNameHint: "Missing.cs"}
	_, err := New("*.csproj").Find(context.Background(), &sc)
	if !eris.Is(err, ErrDescriptorNotFound) {
		t.Fatalf("Find() error = %v, want ErrDescriptorNotFound", err)
	}
}

func TestFind_HintNamingDescriptorSelectsIt(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.csproj"), "<Project />")
	want := filepath.Join(tmpDir, "b.csproj")
	writeFile(t, want, "<Project />")

	sc := SearchContext{Directory: tmpDir, FileNameHint: "b.csproj"}
	got, err := New("*.csproj").Find(context.Background(), &sc)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestFind_ReadDirError(t *testing.T) {
	l := New("*.csproj")
	l.readDir = func(string) ([]os.DirEntry, error) {
		return nil, os.ErrPermission
	}

	sc := SearchContext{Directory: t.TempDir()}
	_, err := l.Find(context.Background(), &sc)
	if err == nil {
		t.Fatal("Find() should fail when the directory cannot be read")
	}
	if eris.Is(err, ErrDescriptorNotFound) {
		t.Errorf("Find() error = %v, read failures must not be reported as not found", err)
	}
}

func TestCandidates_SkipsDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, "dir.csproj"), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	writeFile(t, filepath.Join(tmpDir, "real.csproj"), "<Project />")

	got, err := New("*.csproj").Candidates(tmpDir)
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "real.csproj" {
		t.Errorf("Candidates() = %v, want [real.csproj]", got)
	}
}

func TestCandidates_InvalidPattern(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "app.csproj"), "<Project />")

	if _, err := New("[").Candidates(tmpDir); err == nil {
		t.Error("Candidates() with malformed pattern should fail")
	}
}

func TestContainsLine(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "app.csproj")
	writeFile(t, path, "line one\n<Compile Include=\"Program.cs\" />\nline three")

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "substring on middle line", text: "Program.cs", want: true},
		{name: "substring on last line without newline", text: "three", want: true},
		{name: "absent text", text: "Other.cs", want: false},
		{name: "text spanning lines is not matched", text: "one\n<Compile", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ContainsLine(path, tt.text)
			if err != nil {
				t.Fatalf("ContainsLine() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ContainsLine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsLine_LongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.csproj")
	long := strings.Repeat("x", 17*1024*1024)
	writeFile(t, path, "<Project>"+long+"<Compile Include=\"Program.cs\" /></Project>\r\n")

	got, err := ContainsLine(path, "Program.cs")
	if err != nil {
		t.Fatalf("ContainsLine() error = %v", err)
	}
	if !got {
		t.Error("ContainsLine() = false, want true for a match past 16 MiB on one line")
	}
}

func TestContainsLine_MissingFile(t *testing.T) {
	if _, err := ContainsLine(filepath.Join(t.TempDir(), "missing.csproj"), "x"); err == nil {
		t.Error("ContainsLine() on missing file should fail")
	}
}
