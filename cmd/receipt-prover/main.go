package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/davidahmann/relia-zk/internal/config"
	"github.com/davidahmann/relia-zk/internal/prover"
)

func main() {
	exitFn(runFn(os.Args[1:], os.Environ(), os.Stdin, os.Stdout, os.Stderr))
}

var runFn = run
var exitFn = os.Exit

// run reads one prover request from stdin and writes one proof line to
// stdout. When it is itself running under an external prover call it never
// spawns another one.
func run(args []string, environ []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fs := pflag.NewFlagSet("receipt-prover", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	stub := fs.Bool("stub", false, "always use the receipt_sig substitute")
	logLevel := fs.String("log-level", "warn", "log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Resolve(*configPath, environ)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 2
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	nested := cfg.Prover.Nested
	if nested {
		logger.Debug("running under an external prover call; using substitute")
	}
	p := prover.New(prover.Options{
		Command:    cfg.Prover.Command,
		Timeout:    cfg.Prover.Timeout,
		ForceLocal: *stub || nested,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := prover.Serve(ctx, stdin, stdout, p); err != nil {
		fmt.Fprintf(stderr, "receipt-prover: %v\n", err)
		return 1
	}
	return 0
}
