// Package components defines ECS components for the simulation.
package components

import "fmt"

// Position is a patch coordinate on the grid.
type Position struct {
	Row, Col int
}

// String formats the position as (row,col).
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Offset returns the position shifted by dr rows and dc columns.
func (p Position) Offset(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}
