// Layout generator preview tool - interactive procedural layouts with sliders.
//
// Usage: go run ./cmd/layoutpreview [-config petri.yaml] [-out layout.txt]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"

	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/grid"
	"github.com/pthm-cable/petri/renderer"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// previewParams holds the generator settings as slider values.
type previewParams struct {
	Rows, Cols        float32
	Scale             float32
	Octaves           float32
	ObstacleThreshold float32
	ToxicityScale     float32
	Seed              float32
}

func fromConfig(gc config.GenerateConfig) previewParams {
	return previewParams{
		Rows:              float32(gc.Rows),
		Cols:              float32(gc.Cols),
		Scale:             float32(gc.Scale),
		Octaves:           float32(gc.Octaves),
		ObstacleThreshold: float32(gc.ObstacleThreshold),
		ToxicityScale:     float32(gc.ToxicityScale),
		Seed:              float32(gc.Seed),
	}
}

func (p previewParams) generate() grid.GenerateParams {
	return grid.GenerateParams{
		Rows:              int(p.Rows),
		Cols:              int(p.Cols),
		Seed:              int64(p.Seed),
		Scale:             float64(p.Scale),
		Octaves:           int(p.Octaves),
		ObstacleThreshold: float64(p.ObstacleThreshold),
		ToxicityScale:     float64(p.ToxicityScale),
	}
}

// yaml renders the settings as a config snippet.
func (p previewParams) yaml() []string {
	g := p.generate()
	return []string{
		"layout:",
		"  generate:",
		fmt.Sprintf("    rows: %d", g.Rows),
		fmt.Sprintf("    cols: %d", g.Cols),
		fmt.Sprintf("    seed: %d", g.Seed),
		fmt.Sprintf("    scale: %.2f", g.Scale),
		fmt.Sprintf("    octaves: %d", g.Octaves),
		fmt.Sprintf("    obstacle_threshold: %.3f", g.ObstacleThreshold),
		fmt.Sprintf("    toxicity_scale: %.2f", g.ToxicityScale),
	}
}

// slider draws a labeled slider and reports whether the value changed.
type slider struct {
	x, y float32
}

func (s *slider) draw(label, format string, value *float32, lo, hi float32, whole bool) bool {
	rl.DrawText(label, int32(s.x), int32(s.y), 14, rl.Gray)
	s.y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: s.x, Y: s.y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprint(lo), fmt.Sprint(hi),
		*value, lo, hi,
	)
	if whole {
		v = float32(int(v))
	}
	shown := any(*value)
	if whole {
		shown = int(*value)
	}
	rl.DrawText(fmt.Sprintf(format, shown), int32(s.x+float32(panelWidth-70)), int32(s.y+2), 16, rl.DarkGray)
	s.y += 35

	if v == *value {
		return false
	}
	*value = v
	return true
}

func main() {
	configPath := flag.String("config", "", "Config whose layout.generate section seeds the sliders")
	outPath := flag.String("out", "layout.txt", "File written by the Save button")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defaults := fromConfig(cfg.Layout.Generate)
	params := defaults

	rl.InitWindow(windowWidth, windowHeight, "Layout Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	var (
		layout  *grid.Layout
		texture rl.Texture2D
		loaded  bool
		status  string
	)
	regenerate := func() {
		layout = grid.Generate(params.generate())
		// The texture is sized to the grid, so it is rebuilt on every change
		if loaded {
			rl.UnloadTexture(texture)
		}
		img := rl.GenImageColor(layout.Cols, layout.Rows, rl.Black)
		texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		loaded = true
		updateTexture(texture, layout)
	}
	defer func() {
		if loaded {
			rl.UnloadTexture(texture)
		}
	}()

	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			regenerate()
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview, keeping the grid aspect ratio
		scale := min(float32(previewSize)/float32(layout.Cols), float32(previewSize)/float32(layout.Rows))
		w, h := float32(layout.Cols)*scale, float32(layout.Rows)*scale
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(layout.Cols), Height: float32(layout.Rows)},
			rl.Rectangle{X: 10, Y: 10, Width: w, Height: h},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, int32(w), int32(h), rl.DarkGray)

		// Draw stats
		total := layout.Rows * layout.Cols
		habitable := layout.HabitableCount()
		var toxSum int
		for i, t := range layout.Toxicity {
			if !layout.Obstacle[i] {
				toxSum += int(t)
			}
		}
		meanTox := 0.0
		if habitable > 0 {
			meanTox = float64(toxSum) / float64(habitable)
		}

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Habitable: %d / %d (%.0f%%)", habitable, total, 100*float64(habitable)/float64(total)), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Mean toxicity: %.2f of %d", meanTox, grid.MaxToxicityLevel), 15, statsY+20, 16, rl.DarkGray)
		if status != "" {
			rl.DrawText(status, 15, statsY+45, 14, rl.Gray)
		}

		// Control panel
		panelX := float32(previewSize + 20)
		rl.DrawText("Layout Generator", int32(panelX), 10, 20, rl.DarkGray)

		s := slider{x: panelX, y: 45}
		changed := s.draw("Rows", "%d", &params.Rows, 4, 128, true)
		changed = s.draw("Columns", "%d", &params.Cols, 4, 128, true) || changed
		changed = s.draw("Scale (base noise frequency)", "%.2f", &params.Scale, 0.5, 12, false) || changed
		changed = s.draw("Octaves (FBM detail level)", "%d", &params.Octaves, 1, 6, true) || changed
		changed = s.draw("Obstacle threshold (higher = more walls)", "%.3f", &params.ObstacleThreshold, 0, 0.8, false) || changed
		changed = s.draw("Toxicity scale", "%.2f", &params.ToxicityScale, 0, 3, false) || changed
		changed = s.draw("Seed", "%d", &params.Seed, 0, 99999, true) || changed
		if changed {
			needsRegen = true
			status = ""
		}

		// Buttons
		y := s.y + 10
		if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = float32(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: y, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 260, Y: y, Width: 120, Height: 30}, "Save") {
			if err := saveLayout(*outPath, layout); err != nil {
				status = fmt.Sprintf("save failed: %v", err)
			} else {
				status = "saved " + *outPath
			}
		}
		y += 50

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(y), 16, rl.DarkGray)
		y += 25
		lines := params.yaml()
		for _, line := range lines {
			rl.DrawText(line, int32(panelX), int32(y), 14, rl.Gray)
			y += 16
		}

		// Instructions
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		// Copy to clipboard on C key
		if rl.IsKeyPressed(rl.KeyC) {
			var text string
			for _, line := range lines {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
			status = "copied YAML"
		}

		rl.EndDrawing()
	}
}

// saveLayout writes the layout in the text format the simulation reads.
func saveLayout(path string, l *grid.Layout) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := l.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// updateTexture updates the GPU texture from the layout, one pixel per patch
func updateTexture(texture rl.Texture2D, l *grid.Layout) {
	pixels := make([]color.RGBA, len(l.Obstacle))
	for i := range l.Obstacle {
		c := renderer.PatchColor(renderer.PatchView{
			Habitable: !l.Obstacle[i],
			Toxicity:  float64(l.Toxicity[i]) / grid.MaxToxicityLevel,
		})
		pixels[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	rl.UpdateTexture(texture, pixels)
}
