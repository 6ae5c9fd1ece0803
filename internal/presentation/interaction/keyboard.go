// Package interaction reads single key presses from a raw mode terminal.
package interaction

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ErrNotTerminal is returned by Start when stdin is not a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyCtrlC
	KeyArrowUp
	KeyArrowDown
	KeyArrowRight
	KeyArrowLeft
)

type KeyEvent struct {
	Key  byte
	Type KeyType
}

// KeyboardReader turns stdin into a stream of KeyEvents.
type KeyboardReader struct {
	input    chan KeyEvent
	stop     chan struct{}
	stopOnce sync.Once
	fd       int
	oldState *term.State
}

func NewKeyboardReader() *KeyboardReader {
	return &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
		fd:    int(os.Stdin.Fd()),
	}
}

// Start switches stdin to raw mode and begins reading. Stop restores it.
func (kr *KeyboardReader) Start() error {
	if !term.IsTerminal(kr.fd) {
		return ErrNotTerminal
	}
	state, err := term.MakeRaw(kr.fd)
	if err != nil {
		return err
	}
	kr.oldState = state
	go kr.readLoop(os.Stdin)
	return nil
}

func (kr *KeyboardReader) readLoop(r io.Reader) {
	buf := make([]byte, 8)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		event := kr.parseInput(buf[:n])
		if event == nil {
			continue
		}
		select {
		case kr.input <- *event:
		case <-kr.stop:
			return
		}
	}
}

func (kr *KeyboardReader) parseInput(input []byte) *KeyEvent {
	if len(input) == 0 {
		return nil
	}
	switch input[0] {
	case 3:
		return &KeyEvent{Key: 3, Type: KeyCtrlC}
	case 27:
		if len(input) == 1 {
			return &KeyEvent{Key: 27, Type: KeyEscape}
		}
		if len(input) >= 3 && input[1] == '[' {
			switch input[2] {
			case 'A':
				return &KeyEvent{Key: 'A', Type: KeyArrowUp}
			case 'B':
				return &KeyEvent{Key: 'B', Type: KeyArrowDown}
			case 'C':
				return &KeyEvent{Key: 'C', Type: KeyArrowRight}
			case 'D':
				return &KeyEvent{Key: 'D', Type: KeyArrowLeft}
			}
		}
		return nil
	default:
		return &KeyEvent{Key: input[0], Type: KeyChar}
	}
}

func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Stop ends reading and restores the terminal state.
func (kr *KeyboardReader) Stop() {
	kr.stopOnce.Do(func() {
		close(kr.stop)
		if kr.oldState != nil {
			_ = term.Restore(kr.fd, kr.oldState)
		}
	})
}

// RawWriter expands \n to \r\n, which a raw mode terminal no longer does.
type RawWriter struct {
	W io.Writer
}

func (rw RawWriter) Write(p []byte) (int, error) {
	if _, err := rw.W.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
