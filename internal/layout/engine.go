package layout

import (
	"math"
	"sort"
)

// Grid describes the implicit cell geometry of the display overlay. Slots
// without explicit pixel rectangles fall back to these parameters.
type Grid struct {
	OverlayLeft  int `yaml:"overlayLeft" json:"overlayLeft"`
	OverlayWidth int `yaml:"overlayWidth" json:"overlayWidth"`
	TopPadding   int `yaml:"topPadding" json:"topPadding"`
	LeftPadding  int `yaml:"leftPadding" json:"leftPadding"`
	RightPadding int `yaml:"rightPadding" json:"rightPadding"`
	Gap          int `yaml:"gap" json:"gap"`
	Columns      int `yaml:"columns" json:"columns"`
}

// CellWidth returns the exact (unrounded) width of one grid cell. The exact
// value feeds all placement math; rounding happens only on final outputs.
func (g Grid) CellWidth() float64 {
	usable := g.OverlayWidth - g.LeftPadding - g.RightPadding - g.Gap*(g.Columns-1)
	return float64(usable) / float64(g.Columns)
}

// Item pairs an ordered image with its native dimensions. Width and Height
// may be zero when the PNG header was unreadable; the engine then falls back
// to a square cell.
type Item struct {
	Path   string
	Width  int
	Height int
}

// Placement is one positioned image on the display, in integer pixels.
type Placement struct {
	Slot int    `json:"slot"`
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
}

// Engine maps an ordered sequence of images onto display positions. Client
// overlays rely on byte-identical coordinates for a fixed physical display,
// so the arithmetic here must stay stable.
type Engine struct {
	grid Grid
}

func NewEngine(grid Grid) *Engine {
	return &Engine{grid: grid}
}

// cell is the internal placement input: a grid coordinate plus optional
// explicit pixel overrides.
type cell struct {
	slot int
	row  int
	col  int
	x    *int
	y    *int
	w    *int
	h    *int
}

// Arrange places items into implicit grid cells in row-major order:
// column = index mod columns, row = index div columns.
func (e *Engine) Arrange(items []Item) []Placement {
	cells := make([]cell, len(items))
	for i := range items {
		cells[i] = cell{
			slot: i + 1,
			row:  i / e.grid.Columns,
			col:  i % e.grid.Columns,
		}
	}
	return e.place(cells, items)
}

// ArrangeSlots places items into configured slots, zipped one-to-one in
// order and truncated to the shorter of the two sequences.
func (e *Engine) ArrangeSlots(slots []Slot, items []Item) []Placement {
	cells := make([]cell, len(slots))
	for i, s := range slots {
		cells[i] = cell{
			slot: s.SlotNumber,
			row:  s.Row,
			col:  s.Col,
			x:    s.X,
			y:    s.Y,
			w:    s.W,
			h:    s.H,
		}
	}
	return e.place(cells, items)
}

func (e *Engine) place(cells []cell, items []Item) []Placement {
	n := len(cells)
	if len(items) < n {
		n = len(items)
	}
	if n == 0 {
		return []Placement{}
	}

	cellWidth := e.grid.CellWidth()

	// First pass: exact widths and heights, plus per-row maximum height.
	widths := make([]float64, n)
	heights := make([]float64, n)
	rowHeights := make(map[int]float64)
	for i := 0; i < n; i++ {
		c := cells[i]
		width := cellWidth
		if c.w != nil {
			width = float64(*c.w)
		}
		// Square fallback when the native size is unknown.
		height := width
		if items[i].Width > 0 && items[i].Height > 0 {
			height = width * float64(items[i].Height) / float64(items[i].Width)
		}
		if c.h != nil {
			height = float64(*c.h)
		}
		widths[i] = width
		heights[i] = height
		if height > rowHeights[c.row] {
			rowHeights[c.row] = height
		}
	}

	// Row offsets accumulate over occupied rows in ascending order.
	rows := make([]int, 0, len(rowHeights))
	for row := range rowHeights {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	rowOffsets := make(map[int]float64, len(rows))
	offset := float64(e.grid.TopPadding)
	for _, row := range rows {
		rowOffsets[row] = offset
		offset += rowHeights[row] + float64(e.grid.Gap)
	}

	placements := make([]Placement, 0, n)
	for i := 0; i < n; i++ {
		c := cells[i]
		x := float64(e.grid.OverlayLeft+e.grid.LeftPadding) + float64(c.col)*(cellWidth+float64(e.grid.Gap))
		if c.x != nil {
			x = float64(*c.x)
		}
		y := rowOffsets[c.row]
		if c.y != nil {
			y = float64(*c.y)
		}
		placements = append(placements, Placement{
			Slot: c.slot,
			Path: items[i].Path,
			X:    roundPixel(x),
			Y:    roundPixel(y),
			W:    roundPixel(widths[i]),
			H:    roundPixel(heights[i]),
		})
	}
	return placements
}

func roundPixel(v float64) int {
	return int(math.Round(v))
}
