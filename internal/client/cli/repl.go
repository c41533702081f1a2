package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = func(a ...any) { fmt.Println(a...) }

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Saved(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	SimulatePush(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the Narratlas CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	Not logged in:
//	  - help              — show available commands
//	  - register          — create an account
//	  - login             — authenticate
//	  - exit | quit       — leave the program
//
//	Logged in:
//	  - help              — show available commands
//	  - add               — submit a new story (queued locally while offline)
//	  - list              — list stories from the server
//	  - saved [keyword]   — list locally saved stories
//	  - sync              — push pending stories now
//	  - delete <id>       — remove a locally saved story
//	  - simulate-push     — display a notification as if pushed
//	  - logout            — log out
//	  - exit | quit       — leave the program
//
// Any errors returned by command handlers are printed and swallowed here so
// a failing command never kills the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("narratlas %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, saved, sync, delete, simulate-push, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "add":
			err = a.Add(ctx)

		case "l", "list":
			err = a.List(ctx)

		case "saved":
			err = a.Saved(ctx, args)

		case "sync":
			err = a.Sync(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			err = a.Delete(ctx, args)

		case "simulate-push":
			err = a.SimulatePush(ctx, args)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
