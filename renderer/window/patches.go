package window

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/petri/camera"
	"github.com/pthm-cable/petri/renderer"
)

// patchPainter draws the grid background and cells with raylib through the
// camera viewport.
type patchPainter struct {
	cam *camera.Camera
}

func toRL(c renderer.RGB) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
}

// begin clips drawing to the viewport until end is called.
func (pp *patchPainter) begin() {
	c := pp.cam
	rl.BeginScissorMode(int32(c.OriginX), int32(c.OriginY), int32(c.ViewportW), int32(c.ViewportH))
}

func (pp *patchPainter) end() {
	rl.EndScissorMode()
}

// size returns the patch edge in whole pixels, rounded up so neighbors meet.
func (pp *patchPainter) size() int32 {
	return int32(math.Ceil(float64(pp.cam.Zoom)))
}

// drawPatches renders every patch. Obstacles get edge highlights and shadows
// where they border habitable patches.
func (pp *patchPainter) drawPatches(f *renderer.Frame, toxicity bool) {
	size := pp.size()
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if !pp.cam.IsVisible(row, col) {
				continue
			}
			p := f.PatchAt(row, col)
			x, y := pp.origin(row, col)

			if p.Habitable {
				bg := renderer.EmptyColor
				if toxicity {
					bg = renderer.PatchColor(p)
				}
				rl.DrawRectangle(x, y, size, size, toRL(bg))
				continue
			}

			// Depth-based color - darker toward the bottom
			depth := 1.0 - float64(row)/float64(max(f.Rows, 1))*0.4
			base := renderer.ObstacleColor.Scale(depth)
			rl.DrawRectangle(x, y, size, size, toRL(base))
			pp.drawObstacleEdges(f, row, col, base)
		}
	}
}

func (pp *patchPainter) drawObstacleEdges(f *renderer.Frame, row, col int, base renderer.RGB) {
	solid := func(r, c int) bool {
		if f.Toroidal {
			r = (r + f.Rows) % f.Rows
			c = (c + f.Cols) % f.Cols
		}
		if r < 0 || r >= f.Rows || c < 0 || c >= f.Cols {
			return true
		}
		return !f.PatchAt(r, c).Habitable
	}

	x, y := pp.origin(row, col)
	size := pp.size()
	edge := max(1, int32(float32(size)*0.15))

	// Top edge highlight (light from above)
	if !solid(row-1, col) {
		hl := rl.Color{
			R: uint8(math.Min(float64(base.R)+40, 255)),
			G: uint8(math.Min(float64(base.G)+40, 255)),
			B: uint8(math.Min(float64(base.B)+45, 255)),
			A: 200,
		}
		rl.DrawRectangle(x, y, size, edge, hl)
	}

	// Bottom edge shadow
	if !solid(row+1, col) {
		sh := toRL(base.Scale(0.6))
		sh.A = 200
		rl.DrawRectangle(x, y+size-edge, size, edge, sh)
	}

	// Left edge (slight highlight)
	if !solid(row, col-1) {
		hl := rl.Color{
			R: uint8(math.Min(float64(base.R)+20, 255)),
			G: uint8(math.Min(float64(base.G)+20, 255)),
			B: uint8(math.Min(float64(base.B)+25, 255)),
			A: 150,
		}
		rl.DrawRectangle(x, y, edge, size, hl)
	}

	// Right edge shadow
	if !solid(row, col+1) {
		sh := toRL(base.Scale(0.7))
		sh.A = 150
		rl.DrawRectangle(x+size-edge, y, edge, size, sh)
	}
}

// drawCells renders live cells colored by resistance or by generation.
func (pp *patchPainter) drawCells(f *renderer.Frame, byGeneration bool) {
	size := pp.size()
	radius := float32(size) * 0.4
	for _, v := range f.Cells {
		if !pp.cam.IsVisible(v.Pos.Row, v.Pos.Col) {
			continue
		}
		x, y := pp.origin(v.Pos.Row, v.Pos.Col)
		color := toRL(renderer.ResistanceColor(renderer.Normalize(v.Cell.Resistance, f.ResistanceMin, f.ResistanceMax)))
		if byGeneration {
			color = generationColor(v.Cell.Generation)
		}
		cx := x + size/2
		cy := y + size/2
		rl.DrawCircle(cx, cy, radius, color)
		if v.Cell.Cooldown > 0 {
			rl.DrawCircleLines(cx, cy, radius, rl.Color{R: 255, G: 255, B: 255, A: 90})
		}
	}
}

func (pp *patchPainter) drawGridLines(f *renderer.Frame) {
	line := rl.Color{R: 255, G: 255, B: 255, A: 20}
	size := pp.size()
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if !pp.cam.IsVisible(row, col) {
				continue
			}
			x, y := pp.origin(row, col)
			rl.DrawRectangleLines(x, y, size+1, size+1, line)
		}
	}
}

// drawNeighborhood outlines the Moore neighborhood of the patch at row, col.
func (pp *patchPainter) drawNeighborhood(f *renderer.Frame, row, col int) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if f.Toroidal {
				r = (r + f.Rows) % f.Rows
				c = (c + f.Cols) % f.Cols
			}
			if r < 0 || r >= f.Rows || c < 0 || c >= f.Cols || !f.PatchAt(r, c).Habitable {
				continue
			}
			color := rl.Color{R: 120, G: 220, B: 120, A: 200}
			if f.PatchAt(r, c).Occupant != 0 {
				color = rl.Color{R: 220, G: 120, B: 120, A: 200}
			}
			x, y := pp.origin(r, c)
			size := pp.size()
			rl.DrawRectangleLines(x+1, y+1, size-2, size-2, color)
		}
	}
}

func (pp *patchPainter) drawSelection(row, col int) {
	x, y := pp.origin(row, col)
	size := pp.size()
	rl.DrawRectangleLines(x, y, size, size, rl.Yellow)
}

func (pp *patchPainter) origin(row, col int) (int32, int32) {
	sx, sy := pp.cam.PatchToScreen(row, col)
	return int32(math.Floor(float64(sx))), int32(math.Floor(float64(sy)))
}

// patchAt maps a screen position to a patch.
func (pp *patchPainter) patchAt(pos rl.Vector2) (row, col int, ok bool) {
	return pp.cam.ScreenToPatch(pos.X, pos.Y)
}

func generationColor(gen int) rl.Color {
	return rl.ColorFromHSV(float32((gen*47)%360), 0.55, 0.95)
}
