package terminal

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner animates a message on a plain writer for commands that run
// outside the full screen program.
type Spinner struct {
	frames   []string
	interval time.Duration
	message  string
	writer   io.Writer

	mu     sync.Mutex
	active bool
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewSpinner(writer io.Writer, message string) *Spinner {
	return &Spinner{
		frames:   spinner.MiniDot.Frames,
		interval: spinner.MiniDot.FPS,
		message:  message,
		writer:   writer,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	go s.spin()
}

// Stop clears the spinner line and prints completionMessage if set.
func (s *Spinner) Stop(completionMessage string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh

	fmt.Fprint(s.writer, "\r\033[K")
	if completionMessage != "" {
		fmt.Fprintln(s.writer, completionMessage)
	}
}

func (s *Spinner) spin() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for frame := 0; ; frame = (frame + 1) % len(s.frames) {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			fmt.Fprintf(s.writer, "\r%s %s", s.frames[frame], s.message)
		}
	}
}

// SpinnerFunc runs fn behind a spinner and reports success or failure with
// the matching symbol.
func SpinnerFunc[T any](writer io.Writer, message string, fn func() (T, error)) (T, error) {
	s := NewSpinner(writer, message)
	s.Start()

	result, err := fn()
	if err != nil {
		s.Stop(fmt.Sprintf("%s %s", ErrorSymbol, message))
	} else {
		s.Stop(fmt.Sprintf("%s %s", SuccessSymbol, message))
	}
	return result, err
}
