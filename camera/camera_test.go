package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, false)

	// Should be centered on the grid with it filling the viewport
	if cam.X != 10 || cam.Y != 5 {
		t.Errorf("expected camera at (10, 5), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 24 {
		t.Errorf("expected zoom 24, got %f", cam.Zoom)
	}
}

func TestPatchToScreenCentered(t *testing.T) {
	cam := New(100, 50, 480, 240, 10, 20, false)

	// The patch right of and below the center starts at the viewport center
	sx, sy := cam.PatchToScreen(5, 10)
	if !near(sx, 340) || !near(sy, 170) {
		t.Errorf("expected viewport center (340, 170), got (%f, %f)", sx, sy)
	}

	sx, sy = cam.PatchToScreen(0, 0)
	if !near(sx, 100) || !near(sy, 50) {
		t.Errorf("expected viewport origin (100, 50), got (%f, %f)", sx, sy)
	}
}

func TestScreenToPatchRoundtrip(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, false)
	cam.ZoomBy(1.5)

	testCases := []struct{ row, col int }{
		{5, 10}, // center
		{4, 7},
		{6, 13},
	}

	for _, tc := range testCases {
		sx, sy := cam.PatchToScreen(tc.row, tc.col)
		// Probe the middle of the patch
		row, col, ok := cam.ScreenToPatch(sx+cam.Zoom/2, sy+cam.Zoom/2)
		if !ok || row != tc.row || col != tc.col {
			t.Errorf("roundtrip failed: (%d,%d) -> (%f,%f) -> (%d,%d,%v)",
				tc.row, tc.col, sx, sy, row, col, ok)
		}
	}
}

func TestScreenToPatchOutside(t *testing.T) {
	// Grid is 200px tall in a 300px viewport, so there is a band above it
	cam := New(0, 0, 400, 300, 10, 20, false)

	if _, _, ok := cam.ScreenToPatch(-1, 150); ok {
		t.Error("left of the viewport should not hit a patch")
	}
	if _, _, ok := cam.ScreenToPatch(200, 10); ok {
		t.Error("band above a bounded grid should not hit a patch")
	}
	if row, col, ok := cam.ScreenToPatch(5, 55); !ok || row != 0 || col != 0 {
		t.Errorf("expected patch (0,0), got (%d,%d,%v)", row, col, ok)
	}
}

func TestToroidalWrap(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, true)
	cam.X = 1 // Near left edge

	// The last column is closer going left
	sx, _ := cam.PatchToScreen(5, 19)
	if !near(sx, 192) {
		t.Errorf("expected last column left of center at x=192, got x=%f", sx)
	}

	_, col, ok := cam.ScreenToPatch(200, 120)
	if !ok || col != 19 {
		t.Errorf("expected wrapped column 19, got %d (%v)", col, ok)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, true)
	cam.X = 1

	// Two patches left wraps to the right side of the grid
	cam.Pan(-48, 0)

	if !near(cam.X, 19) {
		t.Errorf("expected X to wrap to 19, got %f", cam.X)
	}
}

func TestPanClampsOnBoundedGrid(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, false)

	cam.Pan(-10000, 10000)
	if cam.X != 0 || cam.Y != 10 {
		t.Errorf("expected center clamped to (0, 10), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, false)

	if cam.MinZoom != 24 || cam.MaxZoom != 192 {
		t.Errorf("expected zoom range [24, 192], got [%f, %f]", cam.MinZoom, cam.MaxZoom)
	}

	cam.SetZoom(1) // Below min
	if cam.Zoom != 24 {
		t.Errorf("expected zoom clamped to 24, got %f", cam.Zoom)
	}

	cam.SetZoom(1000) // Above max
	if cam.Zoom != 192 {
		t.Errorf("expected zoom clamped to 192, got %f", cam.Zoom)
	}
}

func TestMinZoomDependsOnWrap(t *testing.T) {
	// Asymmetric viewport: 400/20 = 20, 300/10 = 30
	bounded := New(0, 0, 400, 300, 10, 20, false)
	if bounded.MinZoom != 20 {
		t.Errorf("bounded grid should fit entirely: expected MinZoom 20, got %f", bounded.MinZoom)
	}

	wrapped := New(0, 0, 400, 300, 10, 20, true)
	if wrapped.MinZoom != 30 {
		t.Errorf("wrapping grid should fill the viewport: expected MinZoom 30, got %f", wrapped.MinZoom)
	}
	visibleH := wrapped.ViewportH / wrapped.Zoom
	if !near(visibleH, wrapped.Rows) {
		t.Errorf("at min zoom, visible height %f should equal grid height %f", visibleH, wrapped.Rows)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, false)

	if !cam.IsVisible(0, 0) || !cam.IsVisible(9, 19) {
		t.Error("every patch should be visible at fit zoom")
	}

	// 96px per patch shows 5 x 2.5 patches around the center
	cam.SetZoom(96)
	if !cam.IsVisible(5, 10) {
		t.Error("center patch should be visible")
	}
	if cam.IsVisible(0, 0) {
		t.Error("corner patch should not be visible when zoomed in")
	}
}

func TestReset(t *testing.T) {
	cam := New(0, 0, 480, 240, 10, 20, false)
	cam.Pan(100, 40)
	cam.ZoomBy(2.5)

	cam.Reset()

	if cam.X != 10 || cam.Y != 5 {
		t.Errorf("expected position (10, 5), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 24 {
		t.Errorf("expected zoom 24, got %f", cam.Zoom)
	}
}
