package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandTruncatesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", maxExpandedBytes+1024)
	os.WriteFile(filepath.Join(dir, "big.txt"), []byte(big), 0o644)

	idx, err := Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	refs, _ := idx.Expand("look at @big.txt")
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	if !refs[0].Truncated {
		t.Fatalf("expected Truncated=true for oversized file")
	}
	if int64(len(refs[0].Content)) > maxExpandedBytes {
		t.Fatalf("content exceeds maxExpandedBytes: %d", len(refs[0].Content))
	}
}

func TestExpandTruncatesExcessiveLines(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < maxTotalLines+500; i++ {
		b.WriteString("line\n")
	}
	os.WriteFile(filepath.Join(dir, "many.txt"), []byte(b.String()), 0o644)

	idx, err := Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	refs, _ := idx.Expand("look at @many.txt")
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	if !refs[0].Truncated {
		t.Fatalf("expected Truncated=true for file exceeding maxTotalLines")
	}
	lines := strings.Split(refs[0].Content, "\n")
	if len(lines) > maxTotalLines {
		t.Fatalf("expected at most %d lines, got %d", maxTotalLines, len(lines))
	}
}

func TestExpandTruncatesLongLines(t *testing.T) {
	dir := t.TempDir()
	longLine := strings.Repeat("a", maxLineChars+200)
	os.WriteFile(filepath.Join(dir, "longline.txt"), []byte(longLine), 0o644)

	idx, err := Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	refs, _ := idx.Expand("look at @longline.txt")
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	if !refs[0].Truncated {
		t.Fatalf("expected Truncated=true for a single line exceeding maxLineChars")
	}
	if !strings.HasSuffix(refs[0].Content, "…") {
		t.Fatalf("expected truncated line to end with ellipsis, got %q", refs[0].Content)
	}
}

func TestExpandUnknownPathIgnored(t *testing.T) {
	dir := t.TempDir()
	idx, err := Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	refs, enriched := idx.Expand("look at @does-not-exist.txt")
	if refs != nil {
		t.Fatalf("expected no references for a missing path, got %+v", refs)
	}
	if enriched != "look at @does-not-exist.txt" {
		t.Fatalf("prompt should be unchanged when no token resolves, got %q", enriched)
	}
}

func TestExpandSkipsBinaryPath(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89, 0x50, 0x4e, 0x47}, 0o644)

	idx, err := Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	refs, enriched := idx.Expand("check @photo.png")
	if refs != nil {
		t.Fatalf("expected binary file to not resolve, got %+v", refs)
	}
	if enriched != "check @photo.png" {
		t.Fatalf("prompt should be unchanged, got %q", enriched)
	}
}
