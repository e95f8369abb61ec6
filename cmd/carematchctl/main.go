// Command carematchctl runs operator tasks against the carematch database and keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"carematch/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "carematchctl:", err)
		os.Exit(1)
	}
}
