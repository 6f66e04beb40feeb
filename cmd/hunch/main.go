// Package main is the entry point for the hunch CLI.
//
// hunch reads and edits Notion pages, databases, blocks, comments and users, and exports pages
// to a directory of markdown files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/adamwulf/hunch-sub000/internal/config"
	"github.com/adamwulf/hunch-sub000/internal/notion"
	"github.com/adamwulf/hunch-sub000/internal/render"
)

func main() {
	if err := mainImpl(os.Args[1:], os.Stdout, os.Stderr); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "hunch: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hunch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", render.FormatMarkdown, "Output format: id, json, jsonl or markdown")
	limit := fs.Int("limit", 0, "Maximum number of items to list (0=all)")
	configFile := fs.String("config", "", "YAML config file (default "+config.DefaultFile+" if present)")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	traceSpans := fs.Bool("trace", false, "Write an OpenTelemetry span per API request to stderr")
	settings := config.RegisterFlags(fs)
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}

	ll := &slog.LevelVar{}
	if err := ll.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid -log-level: %w", err)
	}
	slog.SetDefault(newLogger(stderr, ll))

	cfg, err := config.Load(config.Sources{File: *configFile})
	if err != nil {
		return err
	}
	settings.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *limit < 0 {
		return errors.New("-limit must not be negative")
	}

	md := &render.Markdown{IgnoreColor: cfg.IgnoreColor, IgnoreUnderline: cfg.IgnoreUnderline}
	r, err := render.New(*format, md)
	if err != nil {
		return err
	}

	var clientOpts []notion.Option
	if *traceSpans {
		tp, err := newTracerProvider(stderr)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
		clientOpts = append(clientOpts, notion.WithTracerProvider(tp))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	e := &env{
		cfg:      cfg,
		client:   cfg.Client(clientOpts...),
		renderer: r,
		md:       md,
		limit:    *limit,
		stdout:   stdout,
		stderr:   stderr,
	}
	start := time.Now()
	err = cmd.run(ctx, e, fs.Args()[1:])
	slog.Debug("done", "command", cmd.name, "requests", e.client.Requests(), "retries", e.client.Retries(), "duration", time.Since(start))
	return err
}

// newLogger returns a tint logger writing to w, dropping zero valued attributes.
func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// newTracerProvider returns a provider exporting every span to w as JSON when it ends.
func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)), nil
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = fmt.Fprintf(out, "usage: hunch [flags] <command> [command flags] [args]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		_, _ = fmt.Fprintf(out, "  %-34s %s\n", strings.TrimSpace(name+" "+c.args), c.help)
	}
	_, _ = fmt.Fprintf(out, "\nflags:\n")
	fs.PrintDefaults()
}

// env is what commands run with.
type env struct {
	cfg      *config.Config
	client   *notion.Client
	renderer render.Renderer
	md       *render.Markdown
	limit    int
	stdout   io.Writer
	stderr   io.Writer
}

// print renders items to stdout.
func (e *env) print(items []notion.Item) error {
	out, err := e.renderer.Render(items)
	if err != nil {
		return err
	}
	return e.write(out)
}

func (e *env) write(s string) error {
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(e.stdout, s)
	return err
}
