package model

import "time"

// Canvas is the target area frames are composed for.
type Canvas struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cellSize"`
}

// DrawOp describes one cell of a composed frame.
// X,Y are canvas pixels (top left of the cell). EntityID carries the
// entity whose event lit the cell, zero for unlit cells.
type DrawOp struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Color    Color   `json:"color"`
	Lit      bool    `json:"lit"`
	EntityID uint32  `json:"entityId,omitempty"`
}

// Frame is the complete picture of the grid for one cursor position.
// Ops are ordered like the grid points of the layout.
type Frame struct {
	Seq       uint64    `json:"seq"`
	Cursor    int       `json:"cursor"`
	Timestamp time.Time `json:"timestamp"`
	Ops       []DrawOp  `json:"ops"`
}

// PlaybackState is the status payload published to clients.
// Current contains the wall clock label of the event at the cursor
// (format 15:04:05.000), empty once the log is exhausted.
type PlaybackState struct {
	SessionKey string `json:"sessionKey,omitempty"`
	Running    bool   `json:"running"`
	Done       bool   `json:"done"`
	Cursor     int    `json:"cursor"`
	Total      int    `json:"total"`
	Current    string `json:"current,omitempty"`
}
