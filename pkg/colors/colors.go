package colors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

// Table maps entity ids to their display color.
// Tables are immutable once created. Lookups never fail: unknown ids
// resolve to the fallback color.
type Table struct {
	assignments map[uint32]model.Color
	fallback    model.Color
	base        model.Color
}

type Option func(*Table)

// WithAssignments sets the entity color assignments. The map is copied.
func WithAssignments(assignments map[uint32]model.Color) Option {
	return func(t *Table) {
		t.assignments = make(map[uint32]model.Color, len(assignments))
		for k, v := range assignments {
			t.assignments[k] = v
		}
	}
}

// WithFallback sets the color used for unknown entity ids.
func WithFallback(c model.Color) Option {
	return func(t *Table) { t.fallback = c }
}

// WithBase sets the color of unlit grid points.
func WithBase(c model.Color) Option {
	return func(t *Table) { t.base = c }
}

func New(opts ...Option) *Table {
	ret := &Table{
		assignments: map[uint32]model.Color{},
		fallback:    model.RGB(255, 255, 255),
		base:        model.RGB(0, 0, 0),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (t *Table) Lookup(id uint32) model.Color {
	if c, ok := t.assignments[id]; ok {
		return c
	}
	return t.fallback
}

func (t *Table) Has(id uint32) bool {
	_, ok := t.assignments[id]
	return ok
}

func (t *Table) Fallback() model.Color { return t.fallback }
func (t *Table) Base() model.Color     { return t.base }

// the car colors of the recorded 2023 season
//
//nolint:gomnd // color values
var defaultAssignments = map[uint32]model.Color{
	1:  model.RGB(30, 65, 255),
	2:  model.RGB(0, 82, 255),
	4:  model.RGB(255, 135, 0),
	10: model.RGB(2, 144, 240),
	11: model.RGB(30, 65, 255),
	14: model.RGB(0, 110, 120),
	16: model.RGB(220, 0, 0),
	18: model.RGB(0, 110, 120),
	20: model.RGB(160, 207, 205),
	22: model.RGB(60, 130, 200),
	23: model.RGB(0, 82, 255),
	24: model.RGB(165, 160, 155),
	27: model.RGB(160, 207, 205),
	31: model.RGB(2, 144, 240),
	40: model.RGB(60, 130, 200),
	44: model.RGB(0, 210, 190),
	55: model.RGB(220, 0, 0),
	63: model.RGB(0, 210, 190),
	77: model.RGB(165, 160, 155),
	81: model.RGB(255, 135, 0),
}

// DefaultTable returns the built-in color assignments.
func DefaultTable() *Table {
	return New(WithAssignments(defaultAssignments))
}

// colorValue decodes "#rrggbb" strings, which yaml does not route
// through encoding.TextUnmarshaler on its own.
type colorValue struct {
	model.Color
}

func (c *colorValue) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := model.ParseColor(s)
	if err != nil {
		return err
	}
	c.Color = parsed
	return nil
}

type tableFile struct {
	Fallback    *colorValue           `yaml:"fallback"`
	Base        *colorValue           `yaml:"base"`
	Assignments map[uint32]colorValue `yaml:"assignments"`
}

// Load reads a color table from a yaml file. Omitted attributes keep
// their defaults. Malformed color values abort the load.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read color table: %w", err)
	}
	var content tableFile
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("could not parse color table %s: %w", path, err)
	}
	assignments := make(map[uint32]model.Color, len(content.Assignments))
	for k, v := range content.Assignments {
		assignments[k] = v.Color
	}
	opts := []Option{WithAssignments(assignments)}
	if content.Fallback != nil {
		opts = append(opts, WithFallback(content.Fallback.Color))
	}
	if content.Base != nil {
		opts = append(opts, WithBase(content.Base.Color))
	}
	return New(opts...), nil
}
