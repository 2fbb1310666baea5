package renderer

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
)

// Terminal glyphs.
const (
	glyphObstacle = '█'
	glyphEmpty    = '·'
	glyphCell     = '●'
)

// Terminal draws frames into a tcell screen, one character per patch, with a
// status line below the grid.
//
// Keys: space pauses, t toggles toxicity shading, + and - change the frame
// delay, q or Esc closes.
type Terminal struct {
	screen tcell.Screen
	events chan tcell.Event
	quit   chan struct{}

	delay        time.Duration
	paused       bool
	showToxicity bool
	closed       bool

	last Frame
}

// NewTerminal opens the controlling terminal. delay is the minimum time each
// frame stays on screen.
func NewTerminal(delay time.Duration) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return NewTerminalWithScreen(screen, delay)
}

// NewTerminalWithScreen draws into an existing screen and initializes it.
func NewTerminalWithScreen(screen tcell.Screen, delay time.Duration) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.Clear()

	t := &Terminal{
		screen:       screen,
		events:       make(chan tcell.Event, 64),
		quit:         make(chan struct{}),
		delay:        delay,
		showToxicity: true,
	}
	go t.poll()
	return t, nil
}

func (t *Terminal) poll() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.quit:
			return
		}
	}
}

// Render implements Renderer. It blocks while paused.
func (t *Terminal) Render(f Frame) error {
	if t.closed {
		return ErrClosed
	}
	t.last = f

	// Drain pending input
	for drained := false; !drained; {
		select {
		case ev := <-t.events:
			t.handleEvent(ev)
		default:
			drained = true
		}
	}
	if t.closed {
		return ErrClosed
	}
	t.draw()

	deadline := time.After(t.delay)
	waited := false
	for {
		if !t.paused && (waited || t.delay <= 0) {
			return nil
		}
		select {
		case ev := <-t.events:
			t.handleEvent(ev)
			if t.closed {
				return ErrClosed
			}
			t.draw()
		case <-deadline:
			waited = true
			deadline = nil
		}
	}
}

func (t *Terminal) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

func (t *Terminal) handleKey(key tcell.Key, r rune) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.closed = true
		return
	case tcell.KeyRune:
	default:
		return
	}
	switch r {
	case 'q':
		t.closed = true
	case ' ':
		t.paused = !t.paused
	case 't':
		t.showToxicity = !t.showToxicity
	case '+':
		t.delay = max(0, t.delay-25*time.Millisecond)
	case '-':
		t.delay += 25 * time.Millisecond
	}
}

func (t *Terminal) draw() {
	f := &t.last
	t.screen.Clear()
	width, height := t.screen.Size()

	for row := 0; row < f.Rows && row < height-1; row++ {
		for col := 0; col < f.Cols && col < width; col++ {
			p := f.PatchAt(row, col)
			bg := EmptyColor
			if t.showToxicity {
				bg = PatchColor(p)
			}

			switch {
			case !p.Habitable:
				t.screen.SetContent(col, row, glyphObstacle, nil, style(ObstacleColor, EmptyColor))
			case p.Occupant != 0:
				fg := RGB{255, 255, 255}
				if c, ok := f.CellAt(row, col); ok {
					fg = ResistanceColor(Normalize(c.Cell.Resistance, f.ResistanceMin, f.ResistanceMax))
				}
				t.screen.SetContent(col, row, glyphCell, nil, style(fg, bg))
			default:
				t.screen.SetContent(col, row, glyphEmpty, nil, style(bg.Scale(2.2), bg))
			}
		}
	}

	t.drawStatus(min(f.Rows, height-1), width)
	t.screen.Show()
}

func (t *Terminal) drawStatus(row, width int) {
	s := t.last.Stats
	status := fmt.Sprintf("tick %d  cells %d/%d (%.0f%%)  +%d -%d  gen %d  res %.2f",
		t.last.Tick, s.Population, s.Habitable, s.Occupancy()*100, s.Births, s.Deaths, s.MaxGeneration, s.MeanResistance)
	if t.paused {
		status += "  [paused]"
	}
	st := tcell.StyleDefault.Foreground(tcell.ColorLightGray)
	for i, r := range []rune(status) {
		if i >= width {
			break
		}
		t.screen.SetContent(i, row, r, nil, st)
	}
}

func style(fg, bg RGB) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(fg.R), int32(fg.G), int32(fg.B))).
		Background(tcell.NewRGBColor(int32(bg.R), int32(bg.G), int32(bg.B)))
}

// Close implements Renderer and restores the terminal.
func (t *Terminal) Close() error {
	select {
	case <-t.quit:
		return nil
	default:
	}
	close(t.quit)
	t.screen.Fini()
	return nil
}
