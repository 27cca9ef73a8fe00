package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/peterh/liner"

	minilux "github.com/minilux-org/minilux"
)

const (
	appName     = "minilux"
	historyFile = ".minilux_history"
	prompt      = "> "
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "version":
		fmt.Println(minilux.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		os.Exit(cmdRun(os.Args[1]))
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Minilux %s

Usage:
  %s <file.mi>            Run a program.
  %s fmt [-w] <file.mi>   Print formatted source (-w rewrites in place).
  %s repl                 Start the interactive console.
  %s version              Print the version.

`, minilux.Version, appName, appName, appName, appName)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(path string) int {
	ip := minilux.NewInterpreter()
	defer ip.Close()

	if err := ip.RunFile(path); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// fmt
// -----------------------------------------------------------------------------

func cmdFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "rewrite the file in place")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s fmt [-w] <file.mi>\n", appName)
		return 2
	}
	path := fs.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return 1
	}

	formatted, err := minilux.Format(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, minilux.WrapErrorWithName(err, path, string(src)).Error())
		return 1
	}

	if *write {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot write %s: %v\n", appName, path, err)
			return 1
		}
		return 0
	}

	fmt.Print(formatted)
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl() int {
	fmt.Printf("Minilux Interpreter Console (REPL)\n")
	fmt.Printf("Version %s on %s/%s -- [Go]\n", minilux.Version, goruntime.GOOS, goruntime.GOARCH)
	fmt.Printf("Type \"exit\" to quit\n\n")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	ip := minilux.NewInterpreter()
	defer ip.Close()

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" {
			return 0
		}

		ln.AppendHistory(line)
		if rerr := ip.RunSource(line, "repl"); rerr != nil {
			fmt.Fprintln(os.Stderr, red(rerr.Error()))
		}
	}
}
