package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileThenReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if _, err := WriteFile(map[string]any{"path": path, "content": "a\nb\nc"}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(map[string]any{"path": path})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "a\nb\nc" {
		t.Fatalf("ReadFile got %q", got)
	}
}

func TestEditFileUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("hello world"), 0o644)

	out, err := EditFile(map[string]any{"path": path, "old_string": "world", "new_string": "there"})
	if err != nil {
		t.Fatalf("EditFile: %v", err)
	}
	if !strings.Contains(out, "replaced 1 occurrence") {
		t.Fatalf("expected summary to mention 1 occurrence, got %q", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello there" {
		t.Fatalf("file content = %q", string(data))
	}
}

func TestEditFileAmbiguousMatchWithoutReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("aaa\nbbb\naaa"), 0o644)

	_, err := EditFile(map[string]any{"path": path, "old_string": "aaa", "new_string": "z"})
	if err == nil {
		t.Fatalf("expected error for ambiguous match")
	}
	if !strings.Contains(err.Error(), "2 locations") {
		t.Fatalf("expected error to name match count, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "aaa\nbbb\naaa" {
		t.Fatalf("file must be unchanged on ambiguous match, got %q", string(data))
	}
}

func TestEditFileReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("aaa\nbbb\naaa"), 0o644)

	out, err := EditFile(map[string]any{"path": path, "old_string": "aaa", "new_string": "z", "replace_all": true})
	if err != nil {
		t.Fatalf("EditFile: %v", err)
	}
	if !strings.Contains(out, "replaced 2 occurrences") {
		t.Fatalf("expected summary to mention 2 occurrences, got %q", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "z\nbbb\nz" {
		t.Fatalf("file content = %q", string(data))
	}
}

func TestEditFileNoMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	os.WriteFile(path, []byte("hello"), 0o644)

	_, err := EditFile(map[string]any{"path": path, "old_string": "goodbye", "new_string": "x"})
	if err == nil {
		t.Fatalf("expected error when old_string is absent")
	}
}

func TestExecShellCapturesStdoutAndExitCode(t *testing.T) {
	out, err := ExecShell(context.Background(), map[string]any{"command": "echo hi"})
	if err != nil {
		t.Fatalf("ExecShell: %v", err)
	}
	var result shellResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.Stdout != "hi" || result.ExitCode != 0 {
		t.Fatalf("got %+v", result)
	}
}

func TestExecShellNonZeroExit(t *testing.T) {
	out, err := ExecShell(context.Background(), map[string]any{"command": "exit 3"})
	if err != nil {
		t.Fatalf("ExecShell: %v", err)
	}
	var result shellResult
	json.Unmarshal([]byte(out), &result)
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestGlobFindMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.go"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644)
	os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	os.WriteFile(filepath.Join(dir, "sub", "c.go"), []byte("x"), 0o644)

	out, err := GlobFind(map[string]any{"pattern": "**/*.go", "path": dir})
	if err != nil {
		t.Fatalf("GlobFind: %v", err)
	}
	if !strings.Contains(out, "a.go") || !strings.Contains(out, filepath.Join("sub", "c.go")) {
		t.Fatalf("expected both .go files, got %q", out)
	}
	if strings.Contains(out, "b.txt") {
		t.Fatalf("did not expect b.txt in %q", out)
	}
}

func TestGlobToRegexpQuestionMark(t *testing.T) {
	re, err := globToRegexp("file?.go")
	if err != nil {
		t.Fatalf("globToRegexp: %v", err)
	}
	if !re.MatchString("file1.go") {
		t.Fatalf("expected file1.go to match")
	}
	if re.MatchString("file12.go") {
		t.Fatalf("did not expect file12.go to match")
	}
}
