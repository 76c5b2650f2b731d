package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"caretforge/internal/agent"
	"caretforge/internal/indexer"
	"caretforge/internal/model"
	"caretforge/internal/provider"
)

// maxCompactMessages is how many trailing messages "/compact" keeps,
// per spec.md §6.
const maxCompactMessages = 4

// RunREPL drives the interactive session: a raw-mode line reader (same
// term.NewTerminal/MakeRaw/Restore-per-line idiom as
// sealor-ai-coder/main.go) wrapping the bounded agent loop, with slash
// commands and tab completion over "@path" tokens.
func RunREPL(ctx context.Context, app *App) error {
	idx, err := indexer.Build(ctx, ".")
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	t := term.NewTerminal(os.Stdin, promptStyle.Render("> "))
	t.AutoCompleteCallback = func(line string, pos int, key rune) (string, int, bool) {
		if key != '\t' {
			return "", 0, false
		}
		candidates := idx.Complete(line[:pos])
		if len(candidates) != 1 {
			return "", 0, false
		}
		at := strings.LastIndexByte(line[:pos], '@')
		if at == -1 {
			return "", 0, false
		}
		newLine := line[:at] + candidates[0] + line[pos:]
		return newLine, at + len(candidates[0]), true
	}

	var conv model.Conversation

	fmt.Println(dimStyle.Render("CaretForge — /help for commands, /exit to quit"))

	for {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		if w, h, sizeErr := term.GetSize(fd); sizeErr == nil {
			t.SetSize(w, h)
		}
		line, readErr := t.ReadLine()
		if restoreErr := term.Restore(fd, oldState); restoreErr != nil {
			return restoreErr
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return readErr
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if handled, exit := handleSlashCommand(ctx, app, idx, &conv, line); handled {
			if exit {
				return nil
			}
			continue
		}

		_, enriched := idx.Expand(line)
		conv = append(conv, model.Message{Role: model.RoleUser, Content: enriched})

		cb := agent.Callbacks{
			OnToken: func(tok string) { fmt.Print(tok) },
			OnToolCall: func(tc model.ToolCall) {
				fmt.Fprintln(os.Stderr, toolStyle.Render(fmt.Sprintf("→ %s(%s)", tc.Name, tc.Arguments)))
			},
			OnToolResult: func(_, result string) {
				fmt.Fprintln(os.Stderr, dimStyle.Render(truncateForDisplay(result, 500)))
			},
			OnPermissionRequest: func(toolName string, args map[string]any) bool {
				return app.Permissions.Check(toolName, args).Allowed
			},
		}

		result, runErr := agent.Run(ctx, conv, app.Provider, app.ModelID, app.Stream, cb)
		fmt.Println()
		if runErr != nil {
			printError(runErr)
			continue
		}
		if !app.Stream {
			fmt.Println(renderMarkdown(result.FinalContent, terminalWidth()))
		}
		// Drop the system message Run prepends; conv accumulates only the
		// user/assistant/tool turns, so the next Run call prepends a fresh
		// one instead of stacking duplicates. Clone so the slice backing
		// this turn's result is never aliased into the next Run call.
		conv = result.Conversation[1:].Clone()
	}
}

// handleSlashCommand processes one REPL-only command. It returns
// handled=false for ordinary chat input, and exit=true when the REPL
// should terminate.
func handleSlashCommand(ctx context.Context, app *App, idx *indexer.Index, conv *model.Conversation, line string) (handled, exit bool) {
	switch {
	case line == "exit" || line == "quit" || line == "q" || line == "/exit" || line == "/quit":
		return true, true

	case line == "/help":
		fmt.Println(`/help              show this message
/clear             clear the conversation
/compact           drop all but the last four messages
/model             list available models
/model <id>        switch model (accepts "provider/model" to switch provider too)
/exit, /quit        exit (bare "exit", "quit", "q" also work)`)
		return true, false

	case line == "/clear":
		*conv = nil
		fmt.Println(dimStyle.Render("conversation cleared"))
		return true, false

	case line == "/compact":
		if len(*conv) > maxCompactMessages {
			*conv = (*conv)[len(*conv)-maxCompactMessages:]
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("compacted to %d messages", len(*conv))))
		return true, false

	case line == "/model":
		models, err := app.Provider.ListModels(ctx)
		if err != nil {
			printError(err)
			return true, false
		}
		for _, m := range models {
			fmt.Printf("%s\t%s\n", m.ID, m.Description)
		}
		return true, false

	case strings.HasPrefix(line, "/model "):
		arg := strings.TrimSpace(strings.TrimPrefix(line, "/model "))
		if err := switchModel(app, arg); err != nil {
			printError(err)
		} else {
			fmt.Println(successStyle.Render("switched to " + arg))
		}
		return true, false
	}
	return false, false
}

// switchModel handles "/model <id>" and "/model <provider>/<id>".
func switchModel(app *App, arg string) error {
	providerName, modelID := app.ProviderName, arg
	if idx := strings.IndexByte(arg, '/'); idx >= 0 {
		providerName, modelID = arg[:idx], arg[idx+1:]
	}

	if providerName != app.ProviderName {
		name, runtimeCfg, err := app.Config.Resolve(providerName)
		if err != nil {
			return err
		}
		prov, err := provider.New(runtimeCfg)
		if err != nil {
			return err
		}
		app.Provider = prov
		app.ProviderName = name
	}
	app.ModelID = modelID
	return nil
}
