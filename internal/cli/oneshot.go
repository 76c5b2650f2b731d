package cli

import (
	"context"
	"fmt"
	"os"

	"caretforge/internal/agent"
	"caretforge/internal/indexer"
	"caretforge/internal/model"
)

// RunOneShot drives exactly one agent turn for task (the "run <args…>"
// subcommand and the bare-positional-args invocation shape, per spec.md
// §6), printing either a live token stream or one --json object.
func RunOneShot(ctx context.Context, app *App, task string) error {
	idx, err := indexer.Build(ctx, ".")
	if err != nil {
		return err
	}
	_, enriched := idx.Expand(task)

	conv := model.Conversation{{Role: model.RoleUser, Content: enriched}}

	cb := agent.Callbacks{
		OnPermissionRequest: func(toolName string, args map[string]any) bool {
			return app.Permissions.Check(toolName, args).Allowed
		},
	}
	if app.JSON {
		// --json mode emits nothing until the turn completes.
	} else {
		cb.OnToken = func(tok string) { fmt.Print(tok) }
		cb.OnToolCall = func(tc model.ToolCall) {
			fmt.Fprintln(os.Stderr, toolStyle.Render(fmt.Sprintf("→ %s(%s)", tc.Name, tc.Arguments)))
		}
		cb.OnToolResult = func(_, result string) {
			fmt.Fprintln(os.Stderr, dimStyle.Render(truncateForDisplay(result, 500)))
		}
	}

	result, err := agent.Run(ctx, conv, app.Provider, app.ModelID, app.Stream, cb)
	if err != nil {
		if app.JSON {
			return writeJSONError(os.Stdout, err)
		}
		return err
	}

	if app.JSON {
		return writeJSONResult(os.Stdout, task, app.ModelID, app.ProviderName, result)
	}

	if !app.Stream {
		fmt.Println(renderMarkdown(result.FinalContent, terminalWidth()))
	} else {
		fmt.Println()
	}
	return nil
}

func truncateForDisplay(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
