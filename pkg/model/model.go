package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// GridPoint is one LED position in track plane coordinates.
type GridPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TelemetryEvent is one recorded sample of the event log.
// DelayMs is the gap to the predecessor event in milliseconds.
// For the first event of a log it is the gap to the playback start.
type TelemetryEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EntityID  uint32    `json:"entityId"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	DelayMs   uint64    `json:"delayMs"`
}

func (e TelemetryEvent) Delay() time.Duration {
	return time.Duration(e.DelayMs) * time.Millisecond
}

// Session describes a stored dataset.
// ID, ExternalID and RecordStamp are assigned by the database.
type Session struct {
	ID              int       `json:"id"`
	Key             string    `json:"key"`
	ExternalID      uuid.UUID `json:"externalId"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	EventTime       time.Time `json:"eventTime"`
	RecorderVersion string    `json:"recorderVersion"`
	RecordStamp     time.Time `json:"recordStamp"`
}

// CoordScale is the quantization scale used when float coordinates
// act as map keys.
const CoordScale = 1_000_000

// Coord is the fixed precision form of a track plane coordinate.
// Instances are created via QuantizeCoord only. Two float positions are
// considered the same location iff their Coords are equal.
type Coord struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// QuantizeCoord scales x,y by CoordScale and truncates towards zero.
func QuantizeCoord(x, y float64) Coord {
	return Coord{X: int64(x * CoordScale), Y: int64(y * CoordScale)}
}

func (p GridPoint) Coord() Coord {
	return QuantizeCoord(p.X, p.Y)
}

func (e TelemetryEvent) Coord() Coord {
	return QuantizeCoord(e.X, e.Y)
}
