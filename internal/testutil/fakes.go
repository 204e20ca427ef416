package testutil

import (
	"context"
	"sync"

	"filedeck/internal/domain"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/zlog"
)

// Logger returns a logger that discards everything.
func Logger() *zlog.Zerolog {
	l := zlog.Zerolog(zerolog.Nop())
	return &l
}

// Confirmer answers prompts with a fixed value and remembers them.
type Confirmer struct {
	mu      sync.Mutex
	Answer  bool
	prompts []string
}

func NewConfirmer(answer bool) *Confirmer {
	return &Confirmer{Answer: answer}
}

func (c *Confirmer) Confirm(_ context.Context, prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.Answer
}

func (c *Confirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// MemorySink keeps saved blobs in memory.
type MemorySink struct {
	mu    sync.Mutex
	saved map[string]domain.Blob
	names []string
	Err   error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{saved: make(map[string]domain.Blob)}
}

func (s *MemorySink) Save(_ context.Context, name string, blob *domain.Blob) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.saved[name] = *blob
	s.names = append(s.names, name)
	return "mem://" + name, nil
}

func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func (s *MemorySink) Get(name string) (domain.Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.saved[name]
	return b, ok
}

// Publisher records activity events.
type Publisher struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (p *Publisher) Publish(_ context.Context, event domain.ActivityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *Publisher) Events() []domain.ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ActivityEvent(nil), p.events...)
}
