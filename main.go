package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"caretforge/internal/cli"
	"caretforge/internal/config"
	"caretforge/internal/logging"
	"caretforge/internal/permission"
	"caretforge/internal/provider"
)

// main mirrors sealor-ai-coder/main.go's flat flag.String/Bool
// style: one top-level flag.FlagSet, parsed once, with the leftover
// positional args deciding the subcommand by hand (flag.Parse does not
// understand subcommands, so dispatch is done ourselves below).
func main() {
	fs := flag.NewFlagSet("caretforge", flag.ContinueOnError)
	providerFlag := fs.String("provider", "", "provider name to use (overrides defaultProvider)")
	modelFlag := fs.String("model", "", "model id to use (overrides the provider's configured model)")
	stream := fs.Bool("stream", true, "stream tokens to stdout as they arrive")
	jsonMode := fs.Bool("json", false, "emit a single JSON result object instead of interleaved output")
	trace := fs.Bool("trace", false, "enable debug-level logging on stderr")
	allowShell := fs.Bool("allow-shell", false, "skip the permission prompt for shell commands")
	allowWrite := fs.Bool("allow-write", false, "skip the permission prompt for file writes")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	logging.SetTrace(*trace)

	args := fs.Args()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, args, dispatchFlags{
		provider:   *providerFlag,
		model:      *modelFlag,
		stream:     *stream,
		jsonMode:   *jsonMode,
		trace:      *trace,
		allowShell: *allowShell,
		allowWrite: *allowWrite,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type dispatchFlags struct {
	provider   string
	model      string
	stream     bool
	jsonMode   bool
	trace      bool
	allowShell bool
	allowWrite bool
}

// dispatch implements spec.md §6's irregular rule: zero positional args
// means "chat" (the REPL); one or more positional args where the first
// isn't a recognized subcommand means "run <args…>" (one-shot); otherwise
// the first arg names the subcommand. This doesn't fit a subcommand-first
// parser cleanly, so it's hand-rolled rather than delegated to a flag
// library, the same tradeoff sealor-ai-coder's main.go makes by not using
// one at all.
func dispatch(ctx context.Context, args []string, f dispatchFlags) error {
	if len(args) == 0 {
		return runChat(ctx, f)
	}

	switch args[0] {
	case "chat":
		return runChat(ctx, f)
	case "run":
		return runOneShot(ctx, f, args[1:])
	case "model":
		return runModel(ctx, f, args[1:])
	case "config":
		return runConfig(args[1:])
	case "doctor":
		return runDoctor(f)
	default:
		return runOneShot(ctx, f, args)
	}
}

func runChat(ctx context.Context, f dispatchFlags) error {
	app, err := buildApp(f)
	if err != nil {
		return err
	}
	return cli.RunREPL(ctx, app)
}

func runOneShot(ctx context.Context, f dispatchFlags, taskArgs []string) error {
	if len(taskArgs) == 0 {
		return fmt.Errorf("caretforge run: a task is required")
	}
	app, err := buildApp(f)
	if err != nil {
		return err
	}
	return cli.RunOneShot(ctx, app, strings.Join(taskArgs, " "))
}

func runModel(ctx context.Context, f dispatchFlags, sub []string) error {
	if len(sub) == 0 || sub[0] != "list" {
		return fmt.Errorf("caretforge model: expected \"list\"")
	}
	app, err := buildApp(f)
	if err != nil {
		return err
	}
	models, err := app.Provider.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		fmt.Printf("%s\t%s\n", m.ID, m.Description)
	}
	return nil
}

func runConfig(sub []string) error {
	if len(sub) == 0 {
		return fmt.Errorf("caretforge config: expected \"init\" or \"show\"")
	}
	switch sub[0] {
	case "init":
		withSecrets := false
		for _, a := range sub[1:] {
			if a == "--with-secrets" {
				withSecrets = true
			}
		}
		return cli.RunConfigInit(withSecrets)
	case "show":
		jsonMode := false
		for _, a := range sub[1:] {
			if a == "--json" {
				jsonMode = true
			}
		}
		return cli.RunConfigShow(jsonMode)
	default:
		return fmt.Errorf("caretforge config: unknown subcommand %q", sub[0])
	}
}

func runDoctor(f dispatchFlags) error {
	app, err := buildApp(f)
	if err != nil {
		return err
	}
	return cli.RunDoctor(app)
}

// buildApp wires config → provider → permission manager into a cli.App,
// per spec.md §6's startup sequence.
func buildApp(f dispatchFlags) (*cli.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	name, runtimeCfg, err := cfg.Resolve(f.provider)
	if err != nil {
		return nil, err
	}
	if f.model != "" {
		runtimeCfg.Model = f.model
	}

	prov, err := provider.New(runtimeCfg)
	if err != nil {
		return nil, err
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	mgr := permission.New(f.allowWrite, f.allowShell, interactive, permission.NewStdinPrompter(os.Stdin, os.Stdout))

	return &cli.App{
		Config:       cfg,
		Provider:     prov,
		ProviderName: name,
		ModelID:      runtimeCfg.Model,
		Stream:       f.stream,
		JSON:         f.jsonMode,
		Trace:        f.trace,
		Permissions:  mgr,
	}, nil
}
