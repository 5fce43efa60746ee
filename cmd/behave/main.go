package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/injector"
	"github.com/zeusync/behave/internal/inspect"
)

const usage = `behave - run behaviour tree documents

Usage:
  behave run [options] <doc>       tick a tree and print the result
  behave validate [options] <doc>  build a tree without running it
  behave serve [options] <doc>     run while streaming events on /ws
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	frames     uint64
	rate       int
	mode       string
	addr       string
	logLevel   string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		_, _ = fmt.Fprint(stdout, usage)
		return nil
	}
	cmd := args[0]
	switch cmd {
	case "run", "validate", "serve":
	default:
		_, _ = fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	var opts options
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvPath+")")
	fs.Uint64Var(&opts.frames, "frames", 0, "stop after this many frames (overrides config)")
	fs.IntVar(&opts.rate, "rate", -1, "frames per second, 0 for unthrottled (overrides config)")
	fs.StringVar(&opts.mode, "mode", "", "run mode override: hold or repeat")
	fs.StringVar(&opts.addr, "addr", "", "inspector listen address (serve only)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level override")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%s: expected one document, got %d", cmd, fs.NArg())
	}
	path := fs.Arg(0)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	tree, err := app.LoadTree(path)
	if err != nil {
		return err
	}
	if cmd == "validate" {
		_, _ = fmt.Fprintf(stdout, "%s: ok (root %q, mode %s)\n", tree.Name(), tree.Root().Name(), tree.Mode())
		return nil
	}

	if cmd == "serve" {
		srv, err := inspect.New(app.Bus, inspect.Options{Buffer: cfg.Inspector.Buffer}, app.Log)
		if err != nil {
			return err
		}
		if err := srv.Listen(cfg.Inspector.Addr); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "inspector on ws://%s/ws\n", srv.Addr())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Close(shutdownCtx)
		}()
	}

	app.Runner.Add(tree)
	if err := app.Runner.Run(ctx); err != nil {
		return err
	}
	report(stdout, tree, app.Runner.Frames())
	if cmd == "serve" && ctx.Err() == nil {
		<-ctx.Done()
	}
	return nil
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.frames > 0 {
		cfg.Driver.MaxFrames = opts.frames
	}
	if opts.rate >= 0 {
		cfg.Driver.FrameRate = opts.rate
	}
	if opts.mode != "" {
		cfg.Driver.Mode = opts.mode
	}
	if opts.addr != "" {
		cfg.Inspector.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func report(w io.Writer, tree *bt.Tree, frames uint64) {
	status := tree.Status().String()
	if tree.Status() == bt.StatusSuccess {
		status = "finished: " + tree.Result().String()
	}
	_, _ = fmt.Fprintf(w, "%s: %s after %d frames\n", tree.Name(), status, frames)
	snap := tree.LocalStore().Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s = %v\n", k, snap[k])
	}
}
