package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidahmann/relia-zk/internal/canonical"
	"github.com/davidahmann/relia-zk/internal/config"
)

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

// exitError carries the process exit code out of a command. A nil err
// means the message was already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func failure(format string, args ...any) error {
	return &exitError{code: 1, err: fmt.Errorf(format, args...)}
}

type globalOptions struct {
	configPath string
	logLevel   string
	environ    []string
	stdout     io.Writer
	stderr     io.Writer
}

func (g *globalOptions) config() (config.Config, error) {
	cfg, err := config.Resolve(g.configPath, g.environ)
	if err != nil {
		return config.Config{}, usageError("config: %v", err)
	}
	return cfg, nil
}

func (g *globalOptions) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(g.stderr, &slog.HandlerOptions{Level: level}))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := &globalOptions{environ: os.Environ(), stdout: stdout, stderr: stderr}
	root := newRootCmd(opts)
	root.SetArgs(args[1:])
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(stderr, exitErr.err.Error())
		}
		return exitErr.code
	}
	// flag and argument errors from cobra itself
	fmt.Fprintln(stderr, err.Error())
	return 2
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "receipt-verifier",
		Short:         "Verify signed gateway receipts and emit proof inputs",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(opts.stderr, usageText)
			return &exitError{code: 2}
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $RECEIPT_CONFIG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	root.AddCommand(
		newVerifyCmd(opts),
		newHashCmd(opts),
		newSignCmd(opts),
		newFetchCmd(opts),
		newIssueCmd(opts),
		newTrustCmd(opts),
	)
	return root
}

const usageText = `Receipt verifier

Usage:
  receipt-verifier verify --receipt FILE [--signature HEX] --gateway (auto|HEX) --policy-hash S --consent-hash S [--trust FILE] [--out-public F] [--out-witness F] [--prove [--stub] [--out-proof F]]
  receipt-verifier hash --receipt FILE
  receipt-verifier sign --receipt FILE --key FILE [--out FILE]
  receipt-verifier fetch --id ID [--api URL] [--anchor] [--out FILE]
  receipt-verifier issue --mode (tool|retrieval) [--api URL] [--out FILE]
  receipt-verifier trust lint FILE
`

func readReceipt(path string) (canonical.Value, error) {
	// #nosec G304 -- path is operator-provided.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	receipt, err := canonical.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse receipt %s: %w", path, err)
	}
	return receipt, nil
}

// indentJSON renders v the way the artifacts are stored: two-space indent,
// no HTML escaping, trailing newline.
func indentJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(path string, v any) error {
	data, err := indentJSON(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("output dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o600)
}

func printJSON(w io.Writer, title string, v any) error {
	data, err := indentJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, title)
	_, err = w.Write(data)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
