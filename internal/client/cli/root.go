package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mealplanner/internal/buildinfo"
)

// getStatus renders the prompt status: mode, pending changes and the
// selected menu.
func (a *App) getStatus(ctx context.Context) string {
	s := string(a.mode())
	if a.sync != nil {
		if st, err := a.sync.Status(ctx); err == nil && st.QueueLength > 0 {
			s += fmt.Sprintf(" %d pending", st.QueueLength)
		}
	}
	if a.current != nil {
		s = a.current.ShortID + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// Root runs the REPL over stdin.
func (a *App) Root(ctx context.Context) {
	if interactive() {
		printlnFn(fmt.Sprintf("Meal planner %s (type 'help' for commands)", buildinfo.Version))
	}
	a.reader = bufio.NewReader(os.Stdin)
	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}
