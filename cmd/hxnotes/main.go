package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/householdnotes/internal/notes"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// a local .env is optional, real env vars win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("load .env: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var a *app
	root := newRootCmd(stdout, &a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a != nil {
		a.close()
	}

	if err != nil {
		if !errors.Is(err, errSilent) {
			renderError(stderr, notes.ErrorMessage(err))
		}
		return 1
	}
	return 0
}
