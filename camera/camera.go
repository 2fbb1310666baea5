// Package camera maps grid patches to screen pixels for the window renderer.
package camera

import "math"

// Camera controls the viewport onto the grid.
// World coordinates are in patches: x runs along columns, y along rows.
// Supports pan and zoom, wrapping around the edges on a toroidal grid.
type Camera struct {
	// Position is the view center in patch units
	X, Y float32

	// Zoom is screen pixels per patch
	Zoom float32

	// Viewport placement on screen
	OriginX, OriginY     float32
	ViewportW, ViewportH float32

	// Grid size in patches
	Cols, Rows float32
	Wrap       bool

	// Zoom constraints
	MinZoom, MaxZoom float32

	homeZoom float32
}

// New creates a camera centered on a rows x cols grid with the whole grid in
// view. On a wrapping grid the viewport is never allowed to exceed the grid,
// so the limiting dimension fills it instead.
func New(originX, originY, viewportW, viewportH float32, rows, cols int, wrap bool) *Camera {
	c := &Camera{
		OriginX:   originX,
		OriginY:   originY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Cols:      float32(max(cols, 1)),
		Rows:      float32(max(rows, 1)),
		Wrap:      wrap,
	}
	c.MinZoom = c.fitZoom()
	c.MaxZoom = max(c.MinZoom*8, 48)
	c.homeZoom = c.MinZoom
	c.Reset()
	return c
}

// fitZoom returns the zoom at which the grid just fills the viewport.
func (c *Camera) fitZoom() float32 {
	zx := c.ViewportW / c.Cols
	zy := c.ViewportH / c.Rows
	if c.Wrap {
		return max(zx, zy)
	}
	return min(zx, zy)
}

// PatchToScreen returns the screen position of the top-left corner of a
// patch. On a wrapping grid the copy closest to the view center is used.
func (c *Camera) PatchToScreen(row, col int) (sx, sy float32) {
	dx := c.delta(float32(col)+0.5, c.X, c.Cols) - 0.5
	dy := c.delta(float32(row)+0.5, c.Y, c.Rows) - 0.5

	sx = c.OriginX + c.ViewportW/2 + dx*c.Zoom
	sy = c.OriginY + c.ViewportH/2 + dy*c.Zoom
	return sx, sy
}

// ScreenToPatch converts a screen position to the patch under it.
// ok is false outside the viewport or off the grid.
func (c *Camera) ScreenToPatch(sx, sy float32) (row, col int, ok bool) {
	lx, ly := sx-c.OriginX, sy-c.OriginY
	if lx < 0 || ly < 0 || lx >= c.ViewportW || ly >= c.ViewportH {
		return 0, 0, false
	}

	wx := c.X + (lx-c.ViewportW/2)/c.Zoom
	wy := c.Y + (ly-c.ViewportH/2)/c.Zoom
	if c.Wrap {
		wx = mod(wx, c.Cols)
		wy = mod(wy, c.Rows)
	}
	col = int(math.Floor(float64(wx)))
	row = int(math.Floor(float64(wy)))
	if row < 0 || col < 0 || row >= int(c.Rows) || col >= int(c.Cols) {
		return 0, 0, false
	}
	return row, col, true
}

// IsVisible returns true if any part of the patch falls inside the viewport.
func (c *Camera) IsVisible(row, col int) bool {
	sx, sy := c.PatchToScreen(row, col)
	return sx+c.Zoom > c.OriginX && sx < c.OriginX+c.ViewportW &&
		sy+c.Zoom > c.OriginY && sy < c.OriginY+c.ViewportH
}

// Pan moves the camera by the given delta in screen pixels.
// Wrapping grids wrap around; bounded grids keep the center on the grid.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	if c.Wrap {
		c.X = mod(c.X, c.Cols)
		c.Y = mod(c.Y, c.Rows)
		return
	}
	c.X = clamp(c.X, 0, c.Cols)
	c.Y = clamp(c.Y, 0, c.Rows)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the grid and fits it to the viewport.
func (c *Camera) Reset() {
	c.X = c.Cols / 2
	c.Y = c.Rows / 2
	c.Zoom = c.homeZoom
}

// delta computes the signed distance from 'from' to 'to', taking the short
// way round on a wrapping grid.
func (c *Camera) delta(to, from, size float32) float32 {
	d := to - from
	if !c.Wrap {
		return d
	}
	if d > size/2 {
		d -= size
	} else if d < -size/2 {
		d += size
	}
	return d
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
