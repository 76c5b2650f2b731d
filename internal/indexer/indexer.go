// Package indexer discovers and classifies the files in a working
// directory and resolves "@path" references in prompts against that
// index, per spec.md §4.7.
package indexer

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	maxFileBytes    = 1 << 20 // 1 MiB
	maxFiles        = 5000
	maxWalkDepth    = 4
	indexDeadline   = 10 * time.Second
	gitListDeadline = 10 * time.Second
)

// File is one indexed working-directory-relative path.
type File struct {
	Path string
	Size int64
}

// Stats reports the counters spec.md §4.7 calls for, alongside the
// discovery method actually used.
type Stats struct {
	SkippedBinary  int
	SkippedLarge   int
	SkippedIgnored int
	Method         string // "git" | "walk"
	TimedOut       bool
}

// Index is the built, read-only file index for one session.
type Index struct {
	Root  string
	Files []File
	Stats Stats

	ignoreRules []ignoreRule
}

// Build discovers and classifies every file under root, honoring
// .caretforgeignore, within the bounds spec.md §4.7 sets.
func Build(ctx context.Context, root string) (*Index, error) {
	idx := &Index{Root: root}
	idx.ignoreRules = loadIgnoreRules(root)

	deadline := time.Now().Add(indexDeadline)
	buildCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	paths, method, err := discover(buildCtx, root)
	idx.Stats.Method = method
	if err != nil {
		return nil, err
	}

	for _, rel := range paths {
		if time.Now().After(deadline) {
			idx.Stats.TimedOut = true
			break
		}
		if len(idx.Files) >= maxFiles {
			break
		}
		full := filepath.Join(root, rel)
		info, statErr := os.Lstat(full)
		if statErr != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			resolved, evalErr := filepath.EvalSymlinks(full)
			if evalErr != nil {
				continue
			}
			info, statErr = os.Stat(resolved)
			if statErr != nil {
				continue
			}
		}
		if info.IsDir() {
			continue
		}
		if info.Size() > maxFileBytes {
			idx.Stats.SkippedLarge++
			continue
		}
		if idx.isIgnored(rel) {
			idx.Stats.SkippedIgnored++
			continue
		}
		if !isLikelyText(rel) {
			idx.Stats.SkippedBinary++
			continue
		}
		idx.Files = append(idx.Files, File{Path: rel, Size: info.Size()})
	}

	sort.Slice(idx.Files, func(i, j int) bool { return idx.Files[i].Path < idx.Files[j].Path })
	return idx, nil
}

// discover attempts git ls-files first (which transitively honors
// .gitignore) and falls back to a bounded filesystem walk.
func discover(ctx context.Context, root string) ([]string, string, error) {
	gitCtx, cancel := context.WithTimeout(ctx, gitListDeadline)
	defer cancel()

	cmd := exec.CommandContext(gitCtx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err == nil {
		lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			lines = nil
		}
		return lines, "git", nil
	}

	paths, walkErr := walkTree(ctx, root)
	return paths, "walk", walkErr
}

var skipDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true,
	"target": true, "venv": true, ".venv": true, "__pycache__": true,
	".next": true, ".cache": true, "vendor": true,
}

func walkTree(ctx context.Context, root string) ([]string, error) {
	var paths []string
	visitedReal := map[string]bool{}

	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if depth > maxWalkDepth {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") && name != "." && name != ".." {
				if !entry.IsDir() {
					continue
				}
			}
			full := filepath.Join(dir, name)

			if entry.IsDir() {
				if strings.HasPrefix(name, ".") || skipDirs[name] {
					continue
				}
				if err := walk(full, depth+1); err != nil {
					return err
				}
				continue
			}

			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.Mode()&os.ModeSymlink != 0 {
				resolved, err := filepath.EvalSymlinks(full)
				if err != nil {
					continue
				}
				if visitedReal[resolved] {
					continue
				}
				visitedReal[resolved] = true
				resolvedInfo, err := os.Stat(resolved)
				if err != nil || resolvedInfo.IsDir() {
					continue
				}
			} else if !info.Mode().IsRegular() {
				continue // FIFOs, sockets, devices
			}

			rel, err := filepath.Rel(root, full)
			if err != nil {
				continue
			}
			paths = append(paths, rel)
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return paths, nil
}

var textExtensions = buildTextExtensionSet()

var textBasenames = map[string]bool{
	"Makefile": true, "Dockerfile": true, "LICENSE": true, "README": true,
	"CHANGELOG": true, "Gemfile": true, "Rakefile": true, "Procfile": true,
	"Vagrantfile": true, ".gitignore": true, ".gitattributes": true,
	".editorconfig": true, ".dockerignore": true, ".npmrc": true,
}

func isLikelyText(relPath string) bool {
	base := filepath.Base(relPath)
	if textBasenames[base] {
		return true
	}
	ext := strings.ToLower(filepath.Ext(base))
	return textExtensions[ext]
}

func buildTextExtensionSet() map[string]bool {
	exts := []string{
		".go", ".mod", ".sum", ".py", ".rb", ".js", ".jsx", ".ts", ".tsx",
		".mjs", ".cjs", ".java", ".kt", ".kts", ".scala", ".c", ".h", ".cc",
		".cpp", ".hpp", ".cs", ".rs", ".swift", ".m", ".mm", ".php", ".pl",
		".lua", ".sh", ".bash", ".zsh", ".fish", ".ps1", ".sql", ".r",
		".jl", ".ex", ".exs", ".erl", ".hs", ".elm", ".clj", ".cljs",
		".dart", ".vue", ".svelte", ".html", ".htm", ".css", ".scss",
		".sass", ".less", ".xml", ".json", ".jsonc", ".yaml", ".yml",
		".toml", ".ini", ".cfg", ".conf", ".env", ".properties", ".md",
		".mdx", ".markdown", ".rst", ".txt", ".tex", ".adoc", ".csv",
		".tsv", ".proto", ".graphql", ".gql", ".dockerfile", ".gradle",
		".cmake", ".mk", ".makefile", ".vim", ".el", ".org", ".svg",
		".tf", ".tfvars", ".hcl", ".nix", ".diff", ".patch", ".gitignore",
		".editorconfig", ".license", ".rules", ".babelrc", ".eslintrc",
		".prettierrc", ".stylelintrc", ".browserslistrc", ".npmignore",
		".gemspec", ".cabal", ".nimble", ".zig", ".v", ".d", ".f90",
		".f95", ".pas", ".ada", ".cob", ".groovy", ".coffee", ".feature",
		".cue", ".jsonnet", ".libsonnet", ".rego", ".bicep", ".sol",
	}
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

type ignoreRule struct {
	raw      string
	isDir    bool
	isSuffix bool
	isExact  bool
	basename bool
}

func loadIgnoreRules(root string) []ignoreRule {
	f, err := os.Open(filepath.Join(root, ".caretforgeignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var rules []ignoreRule
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasSuffix(line, "/"):
			rules = append(rules, ignoreRule{raw: strings.TrimSuffix(line, "/"), isDir: true})
		case strings.HasPrefix(line, "*."):
			rules = append(rules, ignoreRule{raw: strings.TrimPrefix(line, "*"), isSuffix: true})
		case !strings.Contains(line, "/"):
			rules = append(rules, ignoreRule{raw: line, basename: true})
		default:
			rules = append(rules, ignoreRule{raw: line, isExact: true})
		}
	}
	return rules
}

func (idx *Index) isIgnored(relPath string) bool {
	base := filepath.Base(relPath)
	for _, r := range idx.ignoreRules {
		switch {
		case r.isDir:
			if strings.HasPrefix(relPath, r.raw+"/") {
				return true
			}
		case r.isSuffix:
			if strings.HasSuffix(base, r.raw) {
				return true
			}
		case r.basename:
			if base == r.raw {
				return true
			}
		case r.isExact:
			if relPath == r.raw {
				return true
			}
		}
	}
	return false
}
