// Package cli implements CaretForge's external interfaces: the
// interactive REPL, the one-shot task driver, and the --json output
// mode, per spec.md §6.
package cli

import (
	"errors"
	"fmt"
	"os"

	"caretforge/internal/config"
	"caretforge/internal/errs"
	"caretforge/internal/model"
	"caretforge/internal/permission"
)

// App holds everything a driver needs for one invocation: the resolved
// provider, the permission manager, and the flags that shape output.
type App struct {
	Config       *config.Config
	Provider     model.Provider
	ProviderName string
	ModelID      string
	Stream       bool
	JSON         bool
	Trace        bool
	Permissions  *permission.Manager
}

// printError writes one error line to stderr per spec.md §7: a short
// code and message, with the cause on a second line when present.
func printError(err error) {
	var ce *errs.CaretError
	if errors.As(err, &ce) && ce.Cause != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("%s: %s", ce.Code, ce.Message)))
		fmt.Fprintln(os.Stderr, errorStyle.Render(ce.Cause.Error()))
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
}
