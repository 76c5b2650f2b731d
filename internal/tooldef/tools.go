// Package tooldef holds the fixed, build-time tool-definition set the
// agent loop always sends to the model (spec.md §4.1 step 1: the full set
// goes out every turn, whole — gating happens after the model chooses),
// plus the wire-format conversion helpers each provider adapter uses to
// translate that set into its own request shape.
package tooldef

import (
	mcp "github.com/mark3labs/mcp-go/mcp"

	"caretforge/internal/model"
)

func obj(required []string, properties map[string]any) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Required:   required,
		Properties: properties,
	}
}

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// All returns the fixed tool-definition set, in the order the agent loop
// always presents it to the model.
func All() []model.ToolDefinition {
	return []model.ToolDefinition{
		{
			Name:        "read_file",
			Description: "Read the full contents of a file as UTF-8 text.",
			Schema: obj([]string{"path"}, map[string]any{
				"path": prop("string", "Working-directory-relative or absolute file path."),
			}),
		},
		{
			Name:        "write_file",
			Description: "Create or overwrite a file with the given content, creating parent directories as needed.",
			Schema: obj([]string{"path", "content"}, map[string]any{
				"path":    prop("string", "File path to write."),
				"content": prop("string", "Full file content to write."),
			}),
		},
		{
			Name:        "edit_file",
			Description: "Replace an exact substring in a file. Fails if the substring is not found, or if it matches more than once and replace_all is not set.",
			Schema: obj([]string{"path", "old_string", "new_string"}, map[string]any{
				"path":        prop("string", "File to edit."),
				"old_string":  prop("string", "Exact text to find."),
				"new_string":  prop("string", "Replacement text."),
				"replace_all": prop("boolean", "Replace every occurrence instead of requiring exactly one match."),
			}),
		},
		{
			Name:        "exec_shell",
			Description: "Run a shell command and return its stdout, stderr, and exit code.",
			Schema: obj([]string{"command"}, map[string]any{
				"command": prop("string", "Command line to execute via the system shell."),
				"cwd":     prop("string", "Working directory for the command."),
				"timeout": prop("number", "Timeout in seconds. Defaults to 30."),
			}),
		},
		{
			Name:        "grep_search",
			Description: "Search file contents for a regular expression, returning line-numbered matches.",
			Schema: obj([]string{"pattern"}, map[string]any{
				"pattern": prop("string", "Regular expression to search for."),
				"path":    prop("string", "Directory to search. Defaults to the working directory."),
				"include": prop("string", "Glob filter for files to search, e.g. \"*.go\"."),
			}),
		},
		{
			Name:        "glob_find",
			Description: "Find files matching a glob pattern, most recently modified first.",
			Schema: obj([]string{"pattern"}, map[string]any{
				"pattern": prop("string", "Glob pattern, e.g. \"**/*.go\"."),
				"path":    prop("string", "Root directory to search. Defaults to the working directory."),
			}),
		},
	}
}

// Gated is the set of tool names the permission manager must check before
// dispatch, per spec.md §4.1 step 4c.
var Gated = map[string]bool{
	"write_file": true,
	"edit_file":  true,
	"exec_shell": true,
}
