package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Menus(ctx context.Context) error
	Show(ctx context.Context, shortID string) error
	Create(ctx context.Context) error
	Rename(ctx context.Context) error
	Delete(ctx context.Context) error
	Assign(ctx context.Context) error
	Unassign(ctx context.Context) error
	Meals(ctx context.Context, query string) error
	Import(ctx context.Context) error
	Download(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Export(ctx context.Context) error
	Clear(ctx context.Context) error
	Discover(ctx context.Context, query string) error
	Star(ctx context.Context) error
	AddMeal(ctx context.Context) error
	DeleteMeal(ctx context.Context, id string) error
}

const helpText = "Available commands: menus, show <short_id>, create, rename, delete, assign, unassign, " +
	"meals [query], meal add, meal delete <id>, discover [query], star, import, download, sync, status, " +
	"export, clear, exit"

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Errors returned by command handlers are printed and otherwise ignored so
// one failed command never ends the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("mp %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "menus", "l":
			cmdErr = a.Menus(ctx)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <short_id>")
				continue
			}
			cmdErr = a.Show(ctx, args[0])

		case "create":
			cmdErr = a.Create(ctx)

		case "rename":
			cmdErr = a.Rename(ctx)

		case "delete":
			cmdErr = a.Delete(ctx)

		case "assign":
			cmdErr = a.Assign(ctx)

		case "unassign":
			cmdErr = a.Unassign(ctx)

		case "meals":
			cmdErr = a.Meals(ctx, strings.Join(args, " "))

		case "meal":
			switch {
			case len(args) == 1 && args[0] == "add":
				cmdErr = a.AddMeal(ctx)
			case len(args) == 2 && args[0] == "delete":
				cmdErr = a.DeleteMeal(ctx, args[1])
			default:
				printlnFn("Usage: meal add | meal delete <id>")
			}

		case "discover":
			cmdErr = a.Discover(ctx, strings.Join(args, " "))

		case "star":
			cmdErr = a.Star(ctx)

		case "import":
			cmdErr = a.Import(ctx)

		case "download":
			cmdErr = a.Download(ctx)

		case "sync":
			cmdErr = a.Sync(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "export":
			cmdErr = a.Export(ctx)

		case "clear":
			cmdErr = a.Clear(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("error:", cmdErr)
		}
	}
}
