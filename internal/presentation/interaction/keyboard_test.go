package interaction

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}

	tests := []struct {
		name     string
		input    []byte
		expected *KeyEvent
	}{
		{"regular char", []byte{'a'}, &KeyEvent{Key: 'a', Type: KeyChar}},
		{"escape", []byte{27}, &KeyEvent{Key: 27, Type: KeyEscape}},
		{"ctrl c", []byte{3}, &KeyEvent{Key: 3, Type: KeyCtrlC}},
		{"arrow left", []byte{27, '[', 'D'}, &KeyEvent{Key: 'D', Type: KeyArrowLeft}},
		{"arrow up", []byte{27, '[', 'A'}, &KeyEvent{Key: 'A', Type: KeyArrowUp}},
		{"unknown sequence", []byte{27, '[', 'Z'}, nil},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, kr.parseInput(tt.input))
		})
	}
}

func TestReadLoop(t *testing.T) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}
	go kr.readLoop(strings.NewReader("q"))

	select {
	case ev := <-kr.Events():
		assert.Equal(t, KeyEvent{Key: 'q', Type: KeyChar}, ev)
	case <-time.After(time.Second):
		t.Fatal("no key event")
	}
	kr.Stop()
	kr.Stop()
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		ev   KeyEvent
		want Action
	}{
		{KeyEvent{Key: '+', Type: KeyChar}, ActionZoomIn},
		{KeyEvent{Key: '-', Type: KeyChar}, ActionZoomOut},
		{KeyEvent{Key: 'h', Type: KeyChar}, ActionPanLeft},
		{KeyEvent{Key: 'l', Type: KeyChar}, ActionPanRight},
		{KeyEvent{Key: 'r', Type: KeyChar}, ActionReset},
		{KeyEvent{Key: 'q', Type: KeyChar}, ActionQuit},
		{KeyEvent{Key: 'x', Type: KeyChar}, ActionNone},
		{KeyEvent{Key: 3, Type: KeyCtrlC}, ActionQuit},
		{KeyEvent{Key: 'C', Type: KeyArrowRight}, ActionPanRight},
		{KeyEvent{Key: 'B', Type: KeyArrowDown}, ActionZoomOut},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ActionFor(tt.ev), "%+v", tt.ev)
	}
}

func TestRawWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := RawWriter{W: &buf}.Write([]byte("a\nb\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "a\r\nb\r\n", buf.String())
}
