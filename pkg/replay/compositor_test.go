package replay

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mpapenbr/ledtrack-go/pkg/colors"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

var testGrid = []model.GridPoint{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}

func testTable() *colors.Table {
	return colors.New(colors.WithAssignments(map[uint32]model.Color{
		5: model.RGB(10, 0, 0),
		7: model.RGB(0, 20, 0),
	}))
}

func testCanvas() model.Canvas {
	return model.Canvas{Width: 100, Height: 100, CellSize: 20}
}

func newTestCompositor() *Compositor {
	return NewCompositor(testGrid,
		WithColorTable(testTable()),
		WithCanvas(testCanvas()))
}

func opByPoint(t *testing.T, frame *model.Frame, idx int) model.DrawOp {
	t.Helper()
	if len(frame.Ops) != len(testGrid) {
		t.Fatalf("ops count not correct: %d", len(frame.Ops))
	}
	return frame.Ops[idx]
}

func TestComposeEmptyPrefix(t *testing.T) {
	comp := newTestCompositor()
	frame := comp.Compose([]model.TelemetryEvent{ev(5, 0, 0, 100)}, 0)
	for i, op := range frame.Ops {
		if op.Lit {
			t.Errorf("op %d should not be lit", i)
		}
		if op.Color != (model.Color{}) {
			t.Errorf("op %d color not correct: %v", i, op.Color)
		}
		if op.EntityID != 0 {
			t.Errorf("op %d entity not correct: %d", i, op.EntityID)
		}
	}
}

func TestComposeLastWriteWins(t *testing.T) {
	comp := newTestCompositor()
	events := []model.TelemetryEvent{ev(5, 0, 0, 100), ev(7, 0, 0, 50)}
	frame := comp.Compose(events, 2)
	op := opByPoint(t, frame, 0)
	if !op.Lit {
		t.Error("grid point (0,0) should be lit")
	}
	if diff := cmp.Diff(model.RGB(0, 20, 0), op.Color); diff != "" {
		t.Errorf("color not correct: %s", diff)
	}
	if op.EntityID != 7 {
		t.Errorf("entity not correct: %d", op.EntityID)
	}
}

func TestComposeQuantizedMatch(t *testing.T) {
	comp := newTestCompositor()
	// float noise below the quantization scale still matches the grid point
	events := []model.TelemetryEvent{ev(5, 0.0000000004, 0, 100)}
	frame := comp.Compose(events, 1)
	if op := opByPoint(t, frame, 0); !op.Lit {
		t.Error("grid point (0,0) should be lit")
	}
}

func TestComposeUnknownEntityUsesFallback(t *testing.T) {
	comp := newTestCompositor()
	events := []model.TelemetryEvent{ev(99, 1, 0, 100)}
	frame := comp.Compose(events, 1)
	op := opByPoint(t, frame, 1)
	if !op.Lit {
		t.Error("grid point (1,0) should be lit")
	}
	if diff := cmp.Diff(model.RGB(255, 255, 255), op.Color); diff != "" {
		t.Errorf("fallback color not correct: %s", diff)
	}
	if op.EntityID != 99 {
		t.Errorf("entity not correct: %d", op.EntityID)
	}
}

func TestComposeOffGridEvent(t *testing.T) {
	comp := newTestCompositor()
	events := []model.TelemetryEvent{ev(5, 0.5, 0.5, 100)}
	lit := comp.LitState(events, 1)
	if len(lit) != 1 {
		t.Errorf("lit state size not correct: %d", len(lit))
	}
	frame := comp.Compose(events, 1)
	for i, op := range frame.Ops {
		if op.Lit {
			t.Errorf("op %d should not be lit, event matches no grid point", i)
		}
	}
}

func TestLitStateClampsCursor(t *testing.T) {
	comp := newTestCompositor()
	events := []model.TelemetryEvent{ev(5, 0, 0, 100)}
	if got := len(comp.LitState(events, 17)); got != 1 {
		t.Errorf("lit state size not correct: %d", got)
	}
	if got := len(comp.LitState(events, -1)); got != 0 {
		t.Errorf("lit state size not correct: %d", got)
	}
}

func TestComposePixelMapping(t *testing.T) {
	comp := newTestCompositor()
	frame := comp.Compose(nil, 0)
	wantPixels := []struct{ x, y float64 }{
		{0, 100},   // (0,0): left edge, bottom (flipped)
		{100, 100}, // (1,0): right edge, bottom
		{0, 0},     // (0,1): left edge, top
	}
	for i, want := range wantPixels {
		op := frame.Ops[i]
		if op.X != want.x || op.Y != want.y {
			t.Errorf("pixel %d not correct: (%v,%v), want (%v,%v)",
				i, op.X, op.Y, want.x, want.y)
		}
		if op.Size != 20 {
			t.Errorf("cell size %d not correct: %v", i, op.Size)
		}
	}
}

func TestComposeDegenerateBounds(t *testing.T) {
	// all points share the same x: the x extent is zero
	line := []model.GridPoint{{X: 2, Y: 0}, {X: 2, Y: 5}}
	comp := NewCompositor(line, WithCanvas(testCanvas()))
	frame := comp.Compose(nil, 0)
	for i, op := range frame.Ops {
		if op.X != 0 {
			t.Errorf("op %d x not correct: %v, degenerate axis maps to 0", i, op.X)
		}
	}
	// y axis still normalizes
	if frame.Ops[0].Y != 100 || frame.Ops[1].Y != 0 {
		t.Errorf("y mapping not correct: %v, %v", frame.Ops[0].Y, frame.Ops[1].Y)
	}
}

func TestComposeIsIdempotent(t *testing.T) {
	comp := newTestCompositor()
	events := []model.TelemetryEvent{ev(5, 0, 0, 100), ev(7, 1, 0, 50)}
	first := comp.Compose(events, 2)
	second := comp.Compose(events, 2)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("frames differ: %s", diff)
	}
}

// Full playback pass: two events on the same spot, the later entity wins
// once both deadlines have passed.
func TestPlaybackScenario(t *testing.T) {
	events := []model.TelemetryEvent{ev(5, 0, 0, 100), ev(7, 0, 0, 50)}
	engine := NewEngine(events)
	comp := newTestCompositor()

	engine.Start(testBase)
	engine.Tick(testBase.Add(150 * time.Millisecond))
	engine.Tick(testBase.Add(300 * time.Millisecond))
	if !engine.Done() {
		t.Fatalf("engine should be done, cursor %d", engine.Cursor())
	}

	frame := comp.Compose(engine.Events(), engine.Cursor())
	op := opByPoint(t, frame, 0)
	if !op.Lit {
		t.Error("grid point (0,0) should be lit")
	}
	if diff := cmp.Diff(model.RGB(0, 20, 0), op.Color); diff != "" {
		t.Errorf("entity 7 must win on (0,0): %s", diff)
	}
}
