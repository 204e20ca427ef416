package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"filedeck/internal/config"

	"github.com/wb-go/wbf/zlog"
)

var (
	ErrUsage          = errors.New("usage error")
	ErrUnknownCommand = errors.New("unknown command")
)

type App struct {
	cfg    *config.Config
	logger *zlog.Zerolog
	in     io.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog, in io.Reader, out io.Writer) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		in:     in,
		out:    out,
	}
}

// Run executes one command. SIGINT and SIGTERM cancel it.
func (a *App) Run(args []string) error {
	global := flag.NewFlagSet("filedeck", flag.ContinueOnError)
	global.SetOutput(a.out)
	assumeYes := global.Bool("yes", false, "answer yes to every confirmation")
	global.Usage = a.usage

	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if global.NArg() == 0 {
		a.usage()
		return ErrUsage
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(ctx, cancel)

	session, err := NewSession(ctx, a.cfg, NewPromptConfirmer(a.in, a.out, *assumeYes), a.logger)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close session")
		}
	}()

	a.logger.Debug().Str("command", name).Strs("args", rest).Msg("Running command")
	return cmd.run(ctx, &env{cfg: a.cfg, session: session, out: a.out, logger: a.logger}, rest)
}

func (a *App) handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
		cancel()
	case <-ctx.Done():
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "usage: filedeck [--yes] <command> [flags] [args]")
	fmt.Fprintln(a.out, "\ncommands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-14s %s\n", name, commands[name].summary)
	}
}
