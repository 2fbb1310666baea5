package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title          string
	Tick           int
	Population     int
	Habitable      int
	Births         int
	Deaths         int
	TotalCreated   int
	MaxGeneration  int
	MeanResistance float64
	FPS            int32
	Paused         bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD starting at x, y.
func (h *HUD) Draw(x, y int32, data HUDData) {
	rl.DrawText(data.Title, x, y, 20, rl.White)

	occupancy := 0.0
	if data.Habitable > 0 {
		occupancy = float64(data.Population) / float64(data.Habitable) * 100
	}
	rl.DrawText(
		fmt.Sprintf("Cells: %d / %d (%.0f%%) | Created: %d", data.Population, data.Habitable, occupancy, data.TotalCreated),
		x, y+25, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | +%d -%d | Gen: %d | Resistance: %.2f | FPS: %d",
			data.Tick, data.Births, data.Deaths, data.MaxGeneration, data.MeanResistance, data.FPS),
		x, y+45, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, x, y+65, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}
