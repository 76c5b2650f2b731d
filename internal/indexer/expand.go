package indexer

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	maxExpandedBytes = 256 << 10 // 256 KiB
	maxLineChars     = 2000
	maxTotalLines    = 2000
)

// Reference is one resolved "@path" expansion.
type Reference struct {
	Path      string
	Content   string
	Size      int64
	Truncated bool
}

var atPathPattern = regexp.MustCompile(`@([^\s]+)`)

// Expand finds every "@path" token in prompt, resolves each against the
// index, and returns the resolved references plus an enriched prompt with
// each file's (possibly truncated) content prepended and the token
// rewritten to its bare path, per spec.md §4.7.
func (idx *Index) Expand(prompt string) ([]Reference, string) {
	matches := atPathPattern.FindAllStringSubmatchIndex(prompt, -1)
	if len(matches) == 0 {
		return nil, prompt
	}

	var refs []Reference
	var preamble strings.Builder
	strippedPrompt := prompt

	for _, m := range matches {
		token := prompt[m[2]:m[3]]
		ref, ok := idx.resolve(token)
		if !ok {
			continue
		}
		refs = append(refs, ref)
		preamble.WriteString("[File: " + ref.Path + "]\n" + ref.Content + "\n\n")
		strippedPrompt = strings.Replace(strippedPrompt, "@"+token, ref.Path, 1)
	}

	if len(refs) == 0 {
		return nil, prompt
	}
	return refs, preamble.String() + "…\n\n" + strippedPrompt
}

func (idx *Index) resolve(token string) (Reference, bool) {
	var size int64
	found := false
	for _, f := range idx.Files {
		if f.Path == token {
			size = f.Size
			found = true
			break
		}
	}
	full := filepath.Join(idx.Root, token)
	if !found {
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			return Reference{}, false
		}
		size = info.Size()
	}
	if !isLikelyText(token) {
		return Reference{}, false
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Reference{}, false
	}

	truncated := false
	if int64(len(data)) > maxExpandedBytes {
		data = data[:maxExpandedBytes]
		truncated = true
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) > maxTotalLines {
		lines = lines[:maxTotalLines]
		truncated = true
	}
	for i, line := range lines {
		if len(line) > maxLineChars {
			lines[i] = line[:maxLineChars] + "…"
			truncated = true
		}
	}

	return Reference{
		Path:      token,
		Content:   strings.Join(lines, "\n"),
		Size:      size,
		Truncated: truncated,
	}, true
}

// fuzzyCompletionThreshold is the point past which plain lexical prefix
// filtering stops being useful and candidates are ranked with sahilm/fuzzy
// instead, per spec.md §4.7's tab-completion rule.
const fuzzyCompletionThreshold = 20

// Complete returns "@"-prefixed tab-completion candidates for the current
// input line, when it ends with "@prefix" (no whitespace after the "@").
// Matches are plain lexical prefix filtering, unless more than
// fuzzyCompletionThreshold paths share a non-empty prefix, in which case
// fuzzy.Find returns the same paths ranked so the closest matches come
// first.
func (idx *Index) Complete(line string) []string {
	at := strings.LastIndexByte(line, '@')
	if at == -1 {
		return nil
	}
	prefix := line[at+1:]
	if strings.ContainsAny(prefix, " \t") {
		return nil
	}

	var matchedPaths []string
	for _, f := range idx.Files {
		if strings.HasPrefix(f.Path, prefix) {
			matchedPaths = append(matchedPaths, f.Path)
		}
	}
	if len(matchedPaths) <= fuzzyCompletionThreshold || prefix == "" {
		out := make([]string, len(matchedPaths))
		for i, p := range matchedPaths {
			out[i] = "@" + p
		}
		return out
	}

	matches := fuzzy.Find(prefix, matchedPaths)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = "@" + matchedPaths[m.Index]
	}
	return out
}
