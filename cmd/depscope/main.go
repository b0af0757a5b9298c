// # cmd/depscope/main.go

// Command depscope extracts call and import graphs from a repository and
// reports circular dependencies and coupling.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"depscope/internal/ui/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
