// Package window renders simulation frames in a raylib window.
package window

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"

	"github.com/pthm-cable/petri/camera"
	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/renderer"
	"github.com/pthm-cable/petri/ui"
)

// Window layout.
const (
	hudHeight   = 95
	panelWidth  = 260
	panelMargin = 10
	minHeight   = 520
)

// Window draws frames in a raylib window with a HUD, overlay toggles and a
// cell inspector. Clicking a cell selects it.
//
// Keys: space pauses, '.' steps one tick while paused, arrows pan, the mouse
// wheel and +/- zoom, Home resets the view. Overlay keys are listed in the
// side panel. Closing the window ends the run.
type Window struct {
	cam       *camera.Camera
	painter   patchPainter
	width     int32
	height    int32
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	inspector *ui.Inspector
	overlays  *ui.OverlayRegistry

	paused   bool
	step     bool
	closed   bool
	selected components.Position
	selID    uint64 // 0 = nothing selected

	last renderer.Frame
}

// New opens a window sized for a rows x cols grid drawn patchSize pixels per
// patch. toroidal lets the view wrap around the grid edges.
func New(rows, cols int, toroidal bool, patchSize, targetFPS int) *Window {
	size := int32(max(patchSize, 4))
	gridW := int32(cols) * size
	gridH := int32(rows) * size

	cam := camera.New(panelMargin, hudHeight, float32(gridW), float32(gridH), rows, cols, toroidal)
	w := &Window{
		cam:       cam,
		painter:   patchPainter{cam: cam},
		width:     gridW + panelWidth + panelMargin*3,
		height:    max(gridH+hudHeight+40, minHeight),
		hud:       ui.NewHUD(),
		overlays:  ui.NewOverlayRegistry(),
		inspector: ui.NewInspector(0, 0, panelWidth),
		controls:  ui.NewControlsPanel(0, 0, panelWidth),
	}
	panelX := gridW + panelMargin*2
	w.controls.SetPosition(panelX, hudHeight)

	rl.InitWindow(w.width, w.height, "Petri")
	rl.SetTargetFPS(int32(targetFPS))
	return w
}

// Render implements renderer.Renderer. It keeps drawing the frame while paused.
func (w *Window) Render(f renderer.Frame) error {
	if w.closed {
		return renderer.ErrClosed
	}
	w.last = f

	for {
		if rl.WindowShouldClose() {
			w.closed = true
			return renderer.ErrClosed
		}
		w.handleInput()
		w.draw()

		if !w.paused || w.step {
			w.step = false
			return nil
		}
	}
}

func (w *Window) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		w.paused = !w.paused
	}
	if w.paused && rl.IsKeyPressed(rl.KeyPeriod) {
		w.step = true
	}
	w.overlays.HandleKeyPresses()
	w.handleCameraInput()

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		if row, col, ok := w.painter.patchAt(rl.GetMousePosition()); ok {
			w.selected = components.Position{Row: row, Col: col}
			w.selID = w.last.PatchAt(row, col).Occupant
		}
	}
}

// handleCameraInput processes pan and zoom controls.
func (w *Window) handleCameraInput() {
	// Pan speed in screen pixels per frame
	const panSpeed = 8.0

	if rl.IsKeyDown(rl.KeyRight) {
		w.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		w.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		w.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		w.cam.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		w.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		w.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		w.cam.Reset()
	}
}

func (w *Window) draw() {
	f := &w.last

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 10, G: 12, B: 16, A: 255})

	w.painter.begin()
	w.painter.drawPatches(f, w.overlays.IsEnabled(ui.OverlayToxicity))
	if w.overlays.IsEnabled(ui.OverlayGridLines) {
		w.painter.drawGridLines(f)
	}
	w.painter.drawCells(f, w.overlays.IsEnabled(ui.OverlayGenerationColors))
	w.drawSelectionMarker()
	w.painter.end()

	w.hud.Draw(panelMargin, 10, ui.HUDData{
		Title:          "Petri",
		Tick:           f.Tick,
		Population:     f.Stats.Population,
		Habitable:      f.Stats.Habitable,
		Births:         f.Stats.Births,
		Deaths:         f.Stats.Deaths,
		TotalCreated:   f.Stats.TotalCreated,
		MaxGeneration:  f.Stats.MaxGeneration,
		MeanResistance: f.Stats.MeanResistance,
		FPS:            rl.GetFPS(),
		Paused:         w.paused,
	})

	// Buttons
	panelX := float32(w.width - panelWidth - panelMargin)
	label := "Pause"
	if w.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: panelX, Y: 10, Width: 120, Height: 30}, label) {
		w.paused = !w.paused
	}
	if w.paused && gui.Button(rl.Rectangle{X: panelX + 130, Y: 10, Width: 120, Height: 30}, "Step") {
		w.step = true
	}

	y := w.controls.Draw(w.overlays)
	w.drawSelection(int32(panelX), y+panelMargin)

	w.hud.DrawControls(w.height, "[Space] pause  [.] step  [Arrows/Wheel] view  [Home] reset  [Click] inspect  [Esc] quit")
	rl.EndDrawing()
}

// drawSelectionMarker outlines the selected patch inside the viewport.
func (w *Window) drawSelectionMarker() {
	if w.selID == 0 {
		return
	}
	w.painter.drawSelection(w.selected.Row, w.selected.Col)
	if w.overlays.IsEnabled(ui.OverlayNeighborhood) {
		w.painter.drawNeighborhood(&w.last, w.selected.Row, w.selected.Col)
	}
}

// drawSelection shows the inspector for the selected cell.
func (w *Window) drawSelection(x, y int32) {
	if w.selID == 0 {
		return
	}
	f := &w.last
	c, ok := f.CellAt(w.selected.Row, w.selected.Col)
	if !ok || c.Cell.ID != w.selID {
		// Selected cell died
		w.selID = 0
		return
	}

	norm := renderer.Normalize(c.Cell.Resistance, f.ResistanceMin, f.ResistanceMax)
	w.inspector.SetPosition(x, y)
	w.inspector.Draw(ui.InspectorData{
		Cell:           c.Cell,
		Pos:            c.Pos,
		Toxicity:       f.PatchAt(c.Pos.Row, c.Pos.Col).Toxicity,
		ResistanceNorm: norm,
		Color:          toRL(renderer.ResistanceColor(norm)),
		Tick:           f.Tick,
	})
}

// Close implements renderer.Renderer.
func (w *Window) Close() error {
	rl.CloseWindow()
	return nil
}
