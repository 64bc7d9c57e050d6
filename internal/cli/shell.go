// Package cli is the interactive storefront shell. Commands run on the queue
// dispatcher and print their results when they complete.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/service"
	"github.com/minimal/storefront/internal/infrastructure/queue"
)

// Services are the client use cases the shell drives.
type Services struct {
	Session  *service.Session
	Resolver *service.Resolver
	Catalog  *service.CatalogGate
	Cart     *service.CartManager
	Checkout *service.Checkout
	Orders   *service.OrderBook
}

// Shell reads commands and renders their outcome.
type Shell struct {
	svc        Services
	dispatcher *queue.Dispatcher
	log        zerolog.Logger

	outMu sync.Mutex
	out   io.Writer
}

func NewShell(svc Services, dispatcher *queue.Dispatcher, out io.Writer, log zerolog.Logger) *Shell {
	return &Shell{svc: svc, dispatcher: dispatcher, out: out, log: log}
}

// Run executes one command per input line until EOF, "quit" or ctx is done,
// then waits for queued commands to finish. Commands on different views run
// concurrently; use RunScript when order matters.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	defer s.dispatcher.Stop()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := s.Execute(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				s.printf("%v\n", err)
			}
		}
	}
}

var errQuit = errors.New("quit")

// RunScript executes one command per line in order. Each command finishes
// and prints its outcome before the next line is read.
func (s *Shell) RunScript(ctx context.Context, in io.Reader) error {
	defer s.dispatcher.Stop()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		done, err := s.submit(sc.Text())
		if err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.printf("%v\n", err)
			continue
		}
		if done == nil {
			continue
		}
		select {
		case <-done:
		case <-ctx.Done():
			return nil
		}
	}
	return sc.Err()
}

// Execute parses line and queues the matching command. Usage errors are
// returned directly; command outcomes are printed when the task completes.
func (s *Shell) Execute(line string) error {
	_, err := s.submit(line)
	return err
}

// submit queues the command on line. The returned channel is closed once the
// command has finished; it is nil when nothing was queued.
func (s *Shell) submit(line string) (<-chan struct{}, error) {
	args := strings.Fields(strings.TrimSpace(line))
	if len(args) == 0 {
		return nil, nil
	}
	name, args := strings.ToLower(args[0]), args[1:]

	switch name {
	case "quit", "exit":
		return nil, errQuit
	case "help":
		s.printf("%s", helpText())
		return nil, nil
	}

	cmd, ok := commands[name]
	if !ok {
		return nil, fmt.Errorf("unknown command %q, try help", name)
	}
	if len(args) < cmd.minArgs {
		return nil, fmt.Errorf("usage: %s %s", cmd.name, cmd.usage)
	}

	done := make(chan struct{})
	_, err := s.dispatcher.Submit(queue.Task{
		ViewKey: cmd.view,
		Name:    cmd.name,
		Run: func(ctx context.Context) (any, error) {
			return cmd.run(ctx, s.svc, args)
		},
		Apply:       s.render,
		AlwaysApply: cmd.mutates,
		Done:        func() { close(done) },
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

func (s *Shell) render(result any, err error) {
	if err != nil {
		n := service.Describe(err, s.log)
		s.printf("! %s\n", n.Message)
		return
	}
	if text, _ := result.(string); text != "" {
		s.printf("%s", text)
	}
}

func (s *Shell) printf(format string, a ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, a...)
}

func helpText() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("commands:\n")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(&b, "  %-15s %s\n", c.name, c.usage)
	}
	b.WriteString("  help\n  quit\n")
	return b.String()
}
