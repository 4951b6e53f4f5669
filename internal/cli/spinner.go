package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// Spinner animates a status line on a terminal until stopped or until its
// context is cancelled.
type Spinner struct {
	w   io.Writer
	ctx context.Context

	mu      sync.Mutex
	message string
	width   int // widest line drawn, for clearing

	quit     chan struct{}
	finished chan struct{}
	started  bool
	stopOnce sync.Once
}

func newSpinner(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		ctx:      ctx,
		message:  message,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// spinnerEnabled reports whether a spinner would be visible: stderr is a
// terminal and debug logging is not interleaving with it.
func (c *CLI) spinnerEnabled() bool {
	return c.Logger.GetLevel() > LogDebug && isatty.IsTerminal(os.Stderr.Fd())
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.finished)
		tick := time.NewTicker(spinnerTick)
		defer tick.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-s.quit:
				return
			case <-s.ctx.Done():
				s.clear()
				return
			case <-tick.C:
				s.draw(spinnerFrames[frame%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len(s.message)+4)
	fmt.Fprint(s.w, "\r", spinStyle.Render(frame), " ", dimStyle.Render(s.message))
}

// Stop ends the animation and clears the line. Calling it again is a no-op.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.finished
		}
		s.clear()
	})
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprint(s.w, "\r", strings.Repeat(" ", s.width), "\r")
	}
}

// Cancelled reports whether the spinner's context ended before Stop.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
