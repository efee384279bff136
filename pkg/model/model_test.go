package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQuantizeCoord(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		y    float64
		want Coord
	}{
		{name: "exact", x: 1, y: 2, want: Coord{X: 1_000_000, Y: 2_000_000}},
		{name: "truncated", x: 0.1234567891, y: 0, want: Coord{X: 123456}},
		{
			name: "negative truncates towards zero",
			x:    -0.9999999, y: -1,
			want: Coord{X: -999_999, Y: -1_000_000},
		},
		{name: "noise below scale", x: 2.0000000004, y: 0, want: Coord{X: 2_000_000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuantizeCoord(tt.x, tt.y)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("QuantizeCoord() result not correct: %s", diff)
			}
		})
	}
}

func TestCoordEquality(t *testing.T) {
	p := GridPoint{X: 0.5, Y: 1.5}
	e := TelemetryEvent{X: 0.5000000001, Y: 1.5}
	if p.Coord() != e.Coord() {
		t.Errorf("coords of %v and %v should match", p, e)
	}
}
