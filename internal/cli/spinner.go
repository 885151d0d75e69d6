package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/term"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line while a command waits. On anything but a
// terminal it stays silent, so piped output is never touched.
type Spinner struct {
	w    io.Writer
	ctx  context.Context
	live bool

	mu    sync.Mutex
	msg   string
	wiped int // columns to blank when clearing

	stop     context.CancelFunc
	finished chan struct{}
	stopOnce sync.Once
}

// newSpinnerWithContext draws on stderr until Stop or until ctx ends.
func newSpinnerWithContext(ctx context.Context, msg string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, msg)
}

func newSpinnerTo(ctx context.Context, w io.Writer, msg string) *Spinner {
	f, ok := w.(interface{ Fd() uintptr })
	return &Spinner{
		w:        w,
		ctx:      ctx,
		live:     ok && term.IsTerminal(f.Fd()),
		msg:      msg,
		finished: make(chan struct{}),
	}
}

// Start runs the animation in a goroutine.
func (s *Spinner) Start() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.stop = cancel
	go func() {
		defer close(s.finished)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-ctx.Done():
				s.clear()
				return
			case <-tick.C:
				s.draw(spinnerFrames[frame%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage changes the text beside the animation.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop ends the animation and blanks the line. Extra calls are no-ops, and
// Stop on a spinner that never started returns at once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		if s.stop == nil {
			close(s.finished)
			return
		}
		s.stop()
	})
	<-s.finished
}

func (s *Spinner) draw(frame string) {
	if !s.live {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wiped = max(s.wiped, len([]rune(s.msg))+2)
	fmt.Fprintf(s.w, "\r%s %s", styleSpinner.Render(frame), StyleDim.Render(s.msg))
}

func (s *Spinner) clear() {
	if !s.live {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wiped > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.wiped))
	}
}
