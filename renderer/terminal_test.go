package renderer

import (
	"errors"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := NewTerminalWithScreen(screen, 0)
	if err != nil {
		t.Fatalf("NewTerminalWithScreen: %v", err)
	}
	screen.SetSize(20, 6)
	t.Cleanup(func() { term.Close() })
	return term, screen
}

func TestTerminalRender(t *testing.T) {
	term, screen := newTestTerminal(t)
	f := testFrame(t)

	if err := term.Render(f); err != nil {
		t.Fatalf("Render: %v", err)
	}

	tests := []struct {
		x, y int
		want rune
	}{
		{0, 0, glyphCell},
		{1, 0, glyphObstacle},
		{2, 0, glyphCell},
		{0, 1, glyphEmpty},
		{2, 1, glyphCell},
		{0, 2, 't'}, // status line
	}
	for _, tt := range tests {
		mainc, _, _, _ := screen.GetContent(tt.x, tt.y)
		if mainc != tt.want {
			t.Errorf("content at (%d,%d) = %q, want %q", tt.x, tt.y, mainc, tt.want)
		}
	}

	// Cell color follows resistance
	_, _, st, _ := screen.GetContent(0, 0)
	fg, _, _ := st.Decompose()
	c := resistanceStops[0]
	if want := tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)); fg != want {
		t.Errorf("susceptible cell color = %v, want %v", fg, want)
	}
}

func TestTerminalKeys(t *testing.T) {
	term, _ := newTestTerminal(t)

	term.handleKey(tcell.KeyRune, 't')
	if term.showToxicity {
		t.Error("t did not toggle toxicity shading")
	}
	term.handleKey(tcell.KeyRune, '-')
	if term.delay <= 0 {
		t.Error("- did not slow down")
	}
	term.handleKey(tcell.KeyRune, '+')
	term.handleKey(tcell.KeyRune, '+')
	if term.delay != 0 {
		t.Errorf("delay = %v, want 0", term.delay)
	}

	term.handleKey(tcell.KeyRune, 'q')
	if err := term.Render(testFrame(t)); !errors.Is(err, ErrClosed) {
		t.Errorf("Render after quit = %v, want ErrClosed", err)
	}
}

func TestTerminalClip(t *testing.T) {
	term, screen := newTestTerminal(t)
	screen.SetSize(2, 2)

	// Larger grid than the screen must not panic
	if err := term.Render(testFrame(t)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	mainc, _, _, _ := screen.GetContent(0, 1)
	if mainc != 't' {
		t.Errorf("status line not drawn on the last row: %q", mainc)
	}
}
