package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Layout symbols. Digits '0'-'9' are habitable patches with that toxicity level.
const (
	SymbolObstacle = '%'
	SymbolWall     = '#'
	SymbolOpen     = '.'
)

// MaxToxicityLevel is the highest digit a layout may carry.
const MaxToxicityLevel = 9

// MalformedLayoutError reports a layout that cannot be turned into a grid.
// Line and Column are 1-based; Column is 0 when the whole line is at fault.
type MalformedLayoutError struct {
	Line   int
	Column int
	Reason string
}

func (e *MalformedLayoutError) Error() string {
	if e.Line == 0 {
		return "malformed layout: " + e.Reason
	}
	if e.Column == 0 {
		return fmt.Sprintf("malformed layout: line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed layout: line %d, column %d: %s", e.Line, e.Column, e.Reason)
}

// Layout is the parsed form of a grid description, row-major.
type Layout struct {
	Rows, Cols int
	Obstacle   []bool
	Toxicity   []uint8 // 0-9 per patch, always 0 on obstacles
}

// NewLayout returns an all-open layout with zero toxicity.
func NewLayout(rows, cols int) *Layout {
	return &Layout{
		Rows:     rows,
		Cols:     cols,
		Obstacle: make([]bool, rows*cols),
		Toxicity: make([]uint8, rows*cols),
	}
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()

	l, err := ParseLayout(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// ParseLayout reads rows of symbols, one character per patch.
// Trailing blank lines and carriage returns are ignored.
func ParseLayout(r io.Reader) (*Layout, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, &MalformedLayoutError{Reason: "layout is empty"}
	}

	// Columns count runes, so a stray multi-byte symbol is reported whole.
	rows := make([][]rune, len(lines))
	for i, line := range lines {
		rows[i] = []rune(line)
	}
	cols := len(rows[0])
	l := NewLayout(len(rows), cols)
	for row, symbols := range rows {
		if len(symbols) != cols {
			return nil, &MalformedLayoutError{
				Line:   row + 1,
				Reason: fmt.Sprintf("row has %d symbols, want %d", len(symbols), cols),
			}
		}
		for col, ch := range symbols {
			idx := row*cols + col
			switch {
			case ch == SymbolObstacle || ch == SymbolWall:
				l.Obstacle[idx] = true
			case ch == SymbolOpen:
			case ch >= '0' && ch <= '9':
				l.Toxicity[idx] = uint8(ch - '0')
			default:
				return nil, &MalformedLayoutError{
					Line:   row + 1,
					Column: col + 1,
					Reason: fmt.Sprintf("unrecognized symbol %q", ch),
				}
			}
		}
	}
	return l, nil
}

// WriteTo writes the layout in the text format ParseLayout reads.
// Zero-toxicity patches are written as digits so the output round-trips
// through tools that only know the digit alphabet.
func (l *Layout) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for row := 0; row < l.Rows; row++ {
		line := make([]byte, 0, l.Cols+1)
		for col := 0; col < l.Cols; col++ {
			idx := row*l.Cols + col
			if l.Obstacle[idx] {
				line = append(line, SymbolObstacle)
			} else {
				line = append(line, '0'+l.Toxicity[idx])
			}
		}
		line = append(line, '\n')
		m, err := bw.Write(line)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// HabitableCount returns the number of non-obstacle patches.
func (l *Layout) HabitableCount() int {
	n := 0
	for _, o := range l.Obstacle {
		if !o {
			n++
		}
	}
	return n
}
