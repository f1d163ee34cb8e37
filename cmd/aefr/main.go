// Command aefr is the stage renderer. See "aefr help" for its subcommands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/aefr-go/internal/cli"
)

// GLFW requires its calls on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Main(ctx, os.Args[1:], cli.IO{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr})
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	code := 1
	if errors.Is(err, cli.ErrUsage) {
		code = 2
	}
	stop()
	os.Exit(code)
}
