// tcphello - a one-shot TCP greeting client and GPS/LTE tracking server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tcphello/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tcphello: %v\n", err)
		os.Exit(1)
	}
}
