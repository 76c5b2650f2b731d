package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"caretforge/internal/config"
	"caretforge/internal/indexer"
)

// doctorCheck is one named diagnostic step.
type doctorCheck struct {
	name string
	run  func(app *App) error
}

var doctorChecks = []doctorCheck{
	{"config file readable", checkConfigFile},
	{"selected provider configured", checkProvider},
	{"shell executable", checkShell},
	{".caretforgeignore parses", checkIgnoreFile},
}

func checkConfigFile(_ *App) error {
	if !config.Exists() {
		return fmt.Errorf("no config file at %s (run 'caretforge config init')", config.FilePath())
	}
	if _, err := config.Load(); err != nil {
		return err
	}
	return nil
}

func checkProvider(app *App) error {
	if app.ProviderName == "" {
		return fmt.Errorf("no provider selected")
	}
	pc, ok := app.Config.Providers[app.ProviderName]
	if !ok {
		return fmt.Errorf("provider %q not found in config", app.ProviderName)
	}
	if pc.Endpoint == "" {
		return fmt.Errorf("provider %q has no endpoint configured", app.ProviderName)
	}
	if pc.APIKey == "" && !pc.UseAzureCLIAuth {
		return fmt.Errorf("provider %q has no apiKey and does not use Azure CLI auth", app.ProviderName)
	}
	return nil
}

func checkShell(_ *App) error {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	if _, err := exec.LookPath(shell); err != nil {
		return fmt.Errorf("shell %q is not executable: %w", shell, err)
	}
	return nil
}

func checkIgnoreFile(_ *App) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := indexer.Build(ctx, ".")
	return err
}

// RunDoctor runs every registered check and prints a pass/fail line for
// each, returning an error if any check failed (the CLI dispatcher maps
// that to exit code 1, per spec.md §6).
func RunDoctor(app *App) error {
	failed := false
	for _, c := range doctorChecks {
		if err := c.run(app); err != nil {
			fmt.Printf("[FAIL] %s: %v\n", c.name, err)
			failed = true
			continue
		}
		fmt.Println(successStyle.Render("[ OK ] " + c.name))
	}
	if failed {
		return fmt.Errorf("one or more doctor checks failed")
	}
	return nil
}
