// cmd/asteria/main.go
package main

import (
	"bufio"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"asteria/internal/checksum"
	"asteria/internal/compiler"
	"asteria/internal/diagnostics"
	"asteria/internal/engine"
	"asteria/internal/introspect"
	"asteria/internal/stdfn"
)

const version = "0.1.0"

// Build variables. gitCommit can be overridden with -ldflags -X at build
// time; buildDate is computed when the program starts, so -X cannot set it.
var (
	buildDate = time.Now().Format("2006-01-02")
	gitCommit = "unknown"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		repl()
		return
	}

	switch args[0] {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "repl":
		repl()
	case "run":
		if len(args) < 2 {
			log.Fatal("usage: asteria run <file>")
		}
		runFile(args[1], args[2:])
	case "debug":
		if len(args) < 2 {
			log.Fatal("usage: asteria debug <file>")
		}
		runWithDebugger(args[1])
	default:
		runFile(args[0], args[1:])
	}
}

func showUsage() {
	fmt.Println(`asteria - embeddable scripting language interpreter

Usage:
  asteria                 start the REPL
  asteria run <file>      execute a script
  asteria debug <file>    execute a script with the introspection server attached
  asteria version         print version information
  asteria help            show this message`)
}

func showVersion() {
	banner := strftime.Format("%Y-%m-%d", mustParseDate(buildDate))
	fmt.Printf("asteria %s (built %s, commit %s)\n", version, banner, gitCommit)
}

func mustParseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func newEngine() *engine.Engine {
	e := engine.New()
	checksum.Mount(func(name string, fn *stdfn.Native) { e.Mount(name, fn) })
	return e
}

func runFile(path string, _ []string) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("could not read %s: %v", path, err)
	}
	q, err := compiler.Compile(path, string(src))
	if err != nil {
		log.Fatalf("compile error: %v", err)
	}
	e := newEngine()
	if _, err := e.ExecuteTop(q); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Wrap(err.Error(), 100))
		os.Exit(1)
	}
}

// runWithDebugger executes path with an introspection server attached on
// port 4040 of every interface, streaming GC sweeps and thrown exceptions to any
// websocket client that connects to /debug.
func runWithDebugger(path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("could not read %s: %v", path, err)
	}
	q, err := compiler.Compile(path, string(src))
	if err != nil {
		log.Fatalf("compile error: %v", err)
	}

	e := newEngine()
	srv := introspect.New()
	e.Attach(srv)

	mux := http.NewServeMux()
	mux.Handle("/debug", srv)
	go func() {
		log.Println("introspection server listening on :4040/debug")
		if err := http.ListenAndServe(":4040", mux); err != nil {
			log.Printf("introspection server stopped: %v", err)
		}
	}()

	if _, err := e.ExecuteTop(q); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Wrap(err.Error(), 100))
		os.Exit(1)
	}
}

func repl() {
	colored := isatty.IsTerminal(os.Stdout.Fd())
	prompt := "> "
	if colored {
		prompt = "\033[36m> \033[0m"
	}

	e := newEngine()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("asteria %s — interactive mode, Ctrl+D to exit\n", version)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		q, err := compiler.Compile("<repl>", line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		v, err := e.ExecuteTop(q)
		if err != nil {
			fmt.Fprintln(os.Stderr, diagnostics.Wrap(err.Error(), 100))
			continue
		}
		fmt.Println(v.Describe())
	}
}
