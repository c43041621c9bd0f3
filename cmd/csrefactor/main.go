package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mamaar/csrefactor/internal/cli"
	"github.com/mamaar/csrefactor/internal/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(os.Stdout, os.Stderr)
	runner := cli.NewRunner(app)
	commands.Register(runner, app)

	code := runner.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
