package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color. The text form is "#rrggbb".
// The zero value is black.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var ErrInvalidColor = errors.New("invalid color")

func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ParseColor accepts "#rrggbb", "rrggbb" and the short form "#rgb".
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	num, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{
		R: uint8(num >> 16 & 0xff),
		G: uint8(num >> 8 & 0xff),
		B: uint8(num & 0xff),
	}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
