package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// PromptConfirmer asks on out and reads a y/n answer from in. One reader
// goroutine owns in for the confirmer's lifetime, so an answer typed after
// a cancelled prompt goes to the next one.
type PromptConfirmer struct {
	mu        sync.Mutex
	in        io.Reader
	out       io.Writer
	assumeYes bool

	start sync.Once
	lines chan string
}

func NewPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *PromptConfirmer {
	return &PromptConfirmer{
		in:        in,
		out:       out,
		assumeYes: assumeYes,
		lines:     make(chan string),
	}
}

func (p *PromptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.assumeYes {
		fmt.Fprintf(p.out, "%s [y/N]: y\n", prompt)
		return true
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	p.start.Do(func() { go p.readLines() })

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return false
	case line, ok := <-p.lines:
		if !ok {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

// readLines closes lines once in is exhausted.
func (p *PromptConfirmer) readLines() {
	defer close(p.lines)
	r := bufio.NewReader(p.in)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			p.lines <- line
		}
		if err != nil {
			return
		}
	}
}
