// Package safety classifies shell commands and filesystem write paths into
// risk tiers, as pure functions that never touch the filesystem. The
// permission manager layers interactive approval on top of these verdicts.
package safety

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Tier is one of the four risk classifications a command or write path can
// receive.
type Tier string

const (
	TierSafe        Tier = "safe"
	TierMutating    Tier = "mutating"
	TierDestructive Tier = "destructive"
	TierBlocked     Tier = "blocked"
)

// Verdict is the outcome of classifying one command or path.
type Verdict struct {
	Tier   Tier
	Reason string
}

func verdict(tier Tier, reason string) Verdict { return Verdict{Tier: tier, Reason: reason} }

// patternRule pairs a compiled regex with the human-readable reason to
// surface when it matches, so the tables below read as data, not as a
// chain of if-statements.
type patternRule struct {
	pattern *regexp.Regexp
	reason  string
}

func rule(expr, reason string) patternRule {
	return patternRule{pattern: regexp.MustCompile(expr), reason: reason}
}

// blockedCommandRules never run, regardless of session "always" state.
var blockedCommandRules = []patternRule{
	rule(`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+/+\s*$`, "recursive delete of the filesystem root"),
	rule(`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+(~|\$HOME)\s*$`, "recursive delete of the home directory"),
	rule(`\brm\s+(-[a-zA-Z]*[rf][a-zA-Z]*\s+)+\.\s*$`, "recursive delete of the current directory"),
	rule(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`, "fork bomb"),
	rule(`>\s*/dev/sd[a-z]\b`, "redirect into a block device"),
	rule(`\bmkfs(\.\w+)?\b`, "filesystem creation"),
	rule(`\bdd\s+.*\bof=/dev/\S+`, "raw write to a device"),
	rule(`\btruncate\b[^\n]*\s/etc/\S+`, "truncation of a system config file"),
	rule(`\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(sh|bash|zsh)\b`, "piping a remote download into a shell"),
}

// destructiveCommandRules are allowed but never auto-approved, not even in
// the session "always" state: each one needs an explicit interactive yes.
var destructiveCommandRules = []patternRule{
	rule(`\brm\b`, "deletes files"),
	rule(`\bdd\b`, "raw disk/file copy"),
	rule(`\bchmod\s+(-[a-zA-Z]*R[a-zA-Z]*)\b`, "recursive permission change"),
	rule(`\bchown\s+(-[a-zA-Z]*R[a-zA-Z]*)\b`, "recursive ownership change"),
	rule(`\bkill\s+-9\b`, "force kill"),
	rule(`\bkillall\b`, "kills processes by name"),
	rule(`\bpkill\b`, "kills processes by pattern"),
	rule(`\bsudo\b`, "runs as another user"),
	rule(`\bsu\b`, "switches user"),
	rule(`\bshutdown\b`, "shuts down the machine"),
	rule(`\breboot\b`, "reboots the machine"),
	rule(`\bsystemctl\s+(stop|restart|disable)\b`, "changes a system service's running state"),
	rule(`\biptables\b`, "changes firewall rules"),
	rule(`>\s*/\S+`, "redirect into an absolute path"),
}

// readOnlyPrefixes whitelists commands whose first segment guarantees no
// mutation, matched against the start of the (trimmed) segment.
var readOnlyPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^ls\b`),
	regexp.MustCompile(`^cat\b`),
	regexp.MustCompile(`^head\b`),
	regexp.MustCompile(`^tail\b`),
	regexp.MustCompile(`^grep\b`),
	regexp.MustCompile(`^rg\b`),
	regexp.MustCompile(`^find\b`),
	regexp.MustCompile(`^pwd\b`),
	regexp.MustCompile(`^echo\b`),
	regexp.MustCompile(`^which\b`),
	regexp.MustCompile(`^wc\b`),
	regexp.MustCompile(`^diff\b`),
	regexp.MustCompile(`^git\s+(status|log|diff|show|branch|remote|blame)\b`),
	regexp.MustCompile(`^node\s+-v\b`),
	regexp.MustCompile(`^npm\s+(-v|list|ls)\b`),
	regexp.MustCompile(`^go\s+(version|vet|list)\b`),
	regexp.MustCompile(`^python3?\s+(-V|--version)\b`),
}

var segmentSplit = regexp.MustCompile(`\|\||&&|[|;]`)

// analyseCommand classifies a shell command string. It never touches the
// filesystem — it reasons purely from the text.
func analyseCommand(cmd string) Verdict {
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return verdict(TierSafe, "empty command")
	}

	for _, r := range blockedCommandRules {
		if r.pattern.MatchString(trimmed) {
			return verdict(TierBlocked, r.reason)
		}
	}
	for _, r := range destructiveCommandRules {
		if r.pattern.MatchString(trimmed) {
			return verdict(TierDestructive, r.reason)
		}
	}

	if segmentSplit.MatchString(trimmed) {
		worst := verdict(TierSafe, "")
		for _, seg := range segmentSplit.Split(trimmed, -1) {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			v := analyseCommand(seg)
			if tierRank(v.Tier) > tierRank(worst.Tier) {
				worst = v
			}
		}
		if worst.Tier != TierSafe {
			return worst
		}
	}

	for _, p := range readOnlyPrefixes {
		if p.MatchString(trimmed) {
			return verdict(TierSafe, "read-only command")
		}
	}

	return verdict(TierMutating, "unrecognized command, assumed to mutate state")
}

func tierRank(t Tier) int {
	switch t {
	case TierBlocked:
		return 3
	case TierDestructive:
		return 2
	case TierMutating:
		return 1
	default:
		return 0
	}
}

// AnalyseCommand is the exported entry point for the permission manager and
// tool executors.
func AnalyseCommand(cmd string) Verdict { return analyseCommand(cmd) }

type pathRule struct {
	matches func(raw string) bool
	reason  string
}

func exactOrPrefix(names ...string) func(string) bool {
	return func(raw string) bool {
		for _, n := range names {
			if raw == n || strings.HasPrefix(raw, n+"/") {
				return true
			}
		}
		return false
	}
}

var blockedPathRules = []pathRule{
	{exactOrPrefix("/etc", "/usr", "/bin", "/sbin", "/boot", "/dev", "/proc", "/sys"), "system directory"},
	{exactOrPrefix("~/.ssh"), "SSH credential directory"},
	{exactOrPrefix("~/.gnupg"), "GPG keyring directory"},
	{func(raw string) bool { return raw == "~/.aws/credentials" }, "AWS credentials file"},
	{exactOrPrefix("~/.azure"), "Azure credential directory"},
	{func(raw string) bool { return raw == "~/.kube/config" }, "Kubernetes credentials"},
	{func(raw string) bool { return filepath.Base(raw) == ".env" || filepath.Base(raw) == ".env.local" }, "environment secrets file"},
}

var destructivePathRules = []pathRule{
	{func(raw string) bool { return raw == "~/.bashrc" }, "shell startup file"},
	{func(raw string) bool { return raw == "~/.zshrc" }, "shell startup file"},
	{func(raw string) bool { return raw == "~/.profile" }, "shell startup file"},
	{func(raw string) bool { return raw == "~/.bash_profile" }, "shell startup file"},
	{func(raw string) bool { return raw == "~/.gitconfig" }, "git global configuration"},
	{func(raw string) bool { return raw == "~/.npmrc" }, "npm credentials file"},
}

func expandHome(raw string) string {
	if !strings.HasPrefix(raw, "~") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return home + strings.TrimPrefix(raw, "~")
}

// contractHome is expandHome's inverse: it rewrites a path starting with
// the real $HOME back to its "~"-prefixed form, so an absolute path like
// "/home/user/.bashrc" can still match the tilde-form rule tables below.
func contractHome(raw string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return raw
	}
	if raw == home {
		return "~"
	}
	if strings.HasPrefix(raw, home+"/") {
		return "~" + strings.TrimPrefix(raw, home)
	}
	return raw
}

func uniqueStrings(vals ...string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// analyseWritePath classifies a write target. The literal path, its
// home-expanded form, and its home-contracted form are all checked
// against every table, since the tables themselves are written against
// the "~/" form and a caller may pass either an absolute or a tilde path.
func analyseWritePath(path string) Verdict {
	candidates := uniqueStrings(path, expandHome(path), contractHome(path))

	for _, c := range candidates {
		for _, r := range blockedPathRules {
			if r.matches(c) {
				return verdict(TierBlocked, r.reason)
			}
		}
	}
	for _, c := range candidates {
		for _, r := range destructivePathRules {
			if r.matches(c) {
				return verdict(TierDestructive, r.reason)
			}
		}
	}
	return verdict(TierMutating, "writes to the filesystem")
}

// AnalyseWritePath is the exported entry point for the permission manager
// and tool executors.
func AnalyseWritePath(path string) Verdict { return analyseWritePath(path) }
