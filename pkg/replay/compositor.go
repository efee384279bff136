package replay

import (
	"github.com/mpapenbr/ledtrack-go/pkg/colors"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

// DefaultCanvas returns the canvas geometry used when nothing else is
// configured. The cell size matches the recorded reference layout.
func DefaultCanvas() model.Canvas {
	return model.Canvas{Width: 1024, Height: 768, CellSize: 20}
}

// Compositor derives frames from an event log prefix. Composing is a
// pure function of (events, cursor): the full frame is recomputed on
// every call. Normalization bounds come from the grid layout only and
// are computed once at construction.
type Compositor struct {
	points []model.GridPoint
	table  *colors.Table
	canvas model.Canvas

	minX, minY   float64
	spanX, spanY float64
}

type CompositorOption func(*Compositor)

func WithCanvas(c model.Canvas) CompositorOption {
	return func(comp *Compositor) { comp.canvas = c }
}

func WithColorTable(t *colors.Table) CompositorOption {
	return func(comp *Compositor) { comp.table = t }
}

func NewCompositor(points []model.GridPoint, opts ...CompositorOption) *Compositor {
	ret := &Compositor{
		points: points,
		table:  colors.DefaultTable(),
		canvas: DefaultCanvas(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.initBounds()
	return ret
}

func (c *Compositor) initBounds() {
	if len(c.points) == 0 {
		return
	}
	minX, maxX := c.points[0].X, c.points[0].X
	minY, maxY := c.points[0].Y, c.points[0].Y
	for _, p := range c.points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	c.minX, c.minY = minX, minY
	c.spanX, c.spanY = maxX-minX, maxY-minY
}

type litCell struct {
	color  model.Color
	entity uint32
}

// litCells walks the event prefix [0,cursor). Per quantized coordinate
// the most recent event wins. The cursor is clamped to the log length.
func (c *Compositor) litCells(
	events []model.TelemetryEvent, cursor int,
) map[model.Coord]litCell {
	cursor = clampCursor(cursor, len(events))
	ret := make(map[model.Coord]litCell, cursor)
	for _, e := range events[:cursor] {
		ret[e.Coord()] = litCell{color: c.table.Lookup(e.EntityID), entity: e.EntityID}
	}
	return ret
}

// LitState computes the lit coordinates for the event prefix [0,cursor).
func (c *Compositor) LitState(
	events []model.TelemetryEvent, cursor int,
) map[model.Coord]model.Color {
	cells := c.litCells(events, cursor)
	ret := make(map[model.Coord]model.Color, len(cells))
	for coord, cell := range cells {
		ret[coord] = cell.color
	}
	return ret
}

// Compose builds the full frame for the event prefix [0,cursor).
// Every grid point is drawn: lit points with the color and entity of
// the most recent matching event, all others with the base color.
// Events whose coordinate matches no grid point contribute to the lit
// state but are not drawn.
func (c *Compositor) Compose(events []model.TelemetryEvent, cursor int) *model.Frame {
	cursor = clampCursor(cursor, len(events))
	lit := c.litCells(events, cursor)
	ops := make([]model.DrawOp, 0, len(c.points))
	for _, p := range c.points {
		op := model.DrawOp{Size: c.canvas.CellSize, Color: c.table.Base()}
		op.X, op.Y = c.pixel(p.X, p.Y)
		if cell, ok := lit[p.Coord()]; ok {
			op.Color = cell.color
			op.Lit = true
			op.EntityID = cell.entity
		}
		ops = append(ops, op)
	}
	return &model.Frame{Cursor: cursor, Ops: ops}
}

// pixel maps a track plane coordinate into canvas space. The vertical
// axis is flipped: the track plane origin is bottom left.
func (c *Compositor) pixel(x, y float64) (px, py float64) {
	px = c.fracX(x) * c.canvas.Width
	py = c.canvas.Height - c.fracY(y)*c.canvas.Height
	return px, py
}

// a zero extent axis degenerates to fraction 0 instead of dividing by zero
func (c *Compositor) fracX(x float64) float64 {
	if c.spanX == 0 {
		return 0
	}
	return (x - c.minX) / c.spanX
}

func (c *Compositor) fracY(y float64) float64 {
	if c.spanY == 0 {
		return 0
	}
	return (y - c.minY) / c.spanY
}

func (c *Compositor) Canvas() model.Canvas { return c.canvas }

func (c *Compositor) Points() []model.GridPoint { return c.points }

func clampCursor(cursor, num int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > num {
		return num
	}
	return cursor
}
