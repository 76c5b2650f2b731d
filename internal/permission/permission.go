// Package permission implements the session-scoped approval state machine
// that gates dangerous tool calls, per spec.md §4.5. The decision table is
// data, not a chain of conditionals, so the policy is legible on its own.
package permission

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"caretforge/internal/safety"
)

// Decision is the outcome of one Check call.
type Decision struct {
	Allowed bool
	Reason  string // set when Allowed is false, or "always" when the user chose always
}

// Prompter asks the user a single y/n/always question and returns their
// raw answer. It is the only interactive dependency of Manager, so tests
// can substitute a scripted implementation.
type Prompter interface {
	Prompt(message string) (string, error)
}

// Manager holds the per-session "always" flags and decides whether a
// gated tool call may proceed.
type Manager struct {
	alwaysWrite bool
	alwaysShell bool
	interactive bool
	prompter    Prompter
}

// New constructs a Manager. alwaysWrite/alwaysShell seed the session state
// from CLI flags (--allow-write/--allow-shell); interactive should be true
// only when stdin is a TTY, since non-interactive contexts can never
// resolve a prompt.
func New(alwaysWrite, alwaysShell, interactive bool, prompter Prompter) *Manager {
	return &Manager{
		alwaysWrite: alwaysWrite,
		alwaysShell: alwaysShell,
		interactive: interactive,
		prompter:    prompter,
	}
}

// Check decides whether toolName may run with the given raw JSON argument
// object, per spec.md §4.5's decision table.
func (m *Manager) Check(toolName string, args map[string]any) Decision {
	switch toolName {
	case "read_file":
		return Decision{Allowed: true}
	case "exec_shell":
		cmd, _ := args["command"].(string)
		return m.checkGated(&m.alwaysShell, safety.AnalyseCommand(cmd), "run this command")
	case "write_file", "edit_file":
		path, _ := args["path"].(string)
		return m.checkGated(&m.alwaysWrite, safety.AnalyseWritePath(path), "write to this path")
	default:
		return Decision{Allowed: false, Reason: fmt.Sprintf("unknown tool %q", toolName)}
	}
}

func (m *Manager) checkGated(always *bool, v safety.Verdict, action string) Decision {
	switch v.Tier {
	case safety.TierBlocked:
		return Decision{Allowed: false, Reason: v.Reason}

	case safety.TierDestructive:
		if !m.interactive {
			return Decision{Allowed: false, Reason: v.Reason}
		}
		return m.resolvePrompt(action, v, false)

	default: // safe, mutating
		if *always {
			return Decision{Allowed: true}
		}
		if !m.interactive {
			return Decision{Allowed: false, Reason: "no interactive terminal to request approval"}
		}
		decision := m.resolvePrompt(action, v, true)
		if decision.Allowed && decision.Reason == "always" {
			*always = true
		}
		return decision
	}
}

// resolvePrompt asks the user once. allowAlways controls whether the
// "always" suppression is offered; destructive prompts only ever offer
// y/n, per spec.md §4.5.
func (m *Manager) resolvePrompt(action string, v safety.Verdict, allowAlways bool) Decision {
	options := "y/n"
	if allowAlways {
		options += "/always"
	}
	msg := fmt.Sprintf("Allow the agent to %s? (%s: %s) [%s] ", action, v.Tier, v.Reason, options)

	answer, err := m.prompter.Prompt(msg)
	if err != nil {
		return Decision{Allowed: false, Reason: "failed to read response: " + err.Error()}
	}
	answer = strings.ToLower(strings.TrimSpace(answer))

	switch answer {
	case "", "y", "yes":
		return Decision{Allowed: true}
	case "a", "always":
		if allowAlways {
			return Decision{Allowed: true, Reason: "always"}
		}
		return Decision{Allowed: false, Reason: "denied by user"}
	default:
		return Decision{Allowed: false, Reason: "denied by user"}
	}
}

// ParseArgs decodes a tool call's JSON argument string into a generic map,
// substituting the empty object for unparseable input, matching the agent
// loop's own "the tool is responsible for validation" rule (spec.md §4.1
// step 4a). It is exposed here because Check's callers (the agent loop)
// need the same parsing before dispatch and before the permission check.
func ParseArgs(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// StdinPrompter implements Prompter by reading one line from an
// io.Reader, typically os.Stdin wrapped by the REPL driver.
type StdinPrompter struct {
	r *bufio.Reader
	w io.Writer
}

func NewStdinPrompter(r io.Reader, w io.Writer) *StdinPrompter {
	return &StdinPrompter{r: bufio.NewReader(r), w: w}
}

func (p *StdinPrompter) Prompt(message string) (string, error) {
	if _, err := io.WriteString(p.w, message); err != nil {
		return "", err
	}
	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
