package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Forget(ctx context.Context) error
	ForgetDevice(ctx context.Context) error
	Check(ctx context.Context) error
	Whoami(ctx context.Context) error
	Chat(ctx context.Context, peerID string) error
	Send(ctx context.Context, text string) error
	Attach(ctx context.Context, path, caption string) error
	History(ctx context.Context) error
	Save(ctx context.Context, n int, dir string) error
	CloseChat(ctx context.Context) error
}

// readLine returns the next line from reader without its terminator. A
// partial last line before EOF is returned; ok is false once input is over.
func readLine(reader *bufio.Reader) (string, bool) {
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", false
	}
	return line, true
}

// runREPL reads commands from reader and dispatches them to a until EOF or
// "exit". Handlers report their own errors to the user. The reader is shared
// with the prompts handlers issue, so it must not be buffered again.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("st %s> ", statusFn()))
		raw, ok := readLine(reader)
		if !ok {
			return
		}
		line := strings.TrimSpace(raw)
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		if cmd == "" {
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: chat <user>, send <text>, attach <path> [text], history, save <n> <dir>, close, check, whoami, logout, forget [all], exit")
			} else {
				printlnFn("Available commands: login, forget all, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "forget":
			switch rest {
			case "":
				_ = a.Forget(ctx)
			case "all":
				_ = a.ForgetDevice(ctx)
			default:
				printlnFn("Usage: forget [all]")
			}

		case "check":
			_ = a.Check(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "chat":
			if rest == "" {
				printlnFn("Usage: chat <user>")
				continue
			}
			_ = a.Chat(ctx, rest)

		case "send", "s":
			if rest == "" {
				printlnFn("Usage: send <text>")
				continue
			}
			_ = a.Send(ctx, rest)

		case "attach":
			path, caption, _ := strings.Cut(rest, " ")
			if path == "" {
				printlnFn("Usage: attach <path> [text]")
				continue
			}
			_ = a.Attach(ctx, path, strings.TrimSpace(caption))

		case "history", "h":
			_ = a.History(ctx)

		case "save":
			args := strings.Fields(rest)
			if len(args) != 2 {
				printlnFn("Usage: save <n> <dir>")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				printlnFn("Usage: save <n> <dir>")
				continue
			}
			_ = a.Save(ctx, n, args[1])

		case "close":
			_ = a.CloseChat(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			// the line may be a mistyped secret, so it is not echoed
			printlnFn("Unknown command, type 'help' for the list")
		}
	}
}
