// Package dataset reads recorded track datasets from disk.
// A dataset directory contains the LED layout, the event log and
// optionally a manifest and a color table:
//
//	led_coords.csv
//	master_track_data_with_time_deltas.csv
//	manifest.yaml  (optional)
//	colors.yaml    (optional)
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/colors"
	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

const (
	GridFile     = "led_coords.csv"
	EventsFile   = "master_track_data_with_time_deltas.csv"
	ManifestFile = "manifest.yaml"
	ColorsFile   = "colors.yaml"
)

var ErrNoGridPoints = errors.New("dataset contains no grid points")

type Dataset struct {
	Manifest *Manifest // nil when the directory has no manifest
	Grid     []model.GridPoint
	Events   []model.TelemetryEvent
	Colors   *colors.Table // nil when the directory has no color table
}

// Stats summarizes a dataset for the check command.
type Stats struct {
	GridPoints    int
	Events        int
	Entities      int
	LitCoords     int
	Duration      time.Duration
	OffGridEvents int
	First         time.Time
	Last          time.Time
}

// LoadDir reads a complete dataset from dir. Loading is fail fast:
// the first unreadable file or invalid row aborts with an error.
func LoadDir(dir string) (*Dataset, error) {
	ret := &Dataset{}
	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		if !CheckFormatVersion(manifest.FormatVersion) {
			return nil, fmt.Errorf("%w: %q (want %s)",
				ErrUnsupportedFormat, manifest.FormatVersion, CurrentFormatVersion)
		}
		ret.Manifest = manifest
	}
	var err error
	if ret.Grid, err = ReadGridPointsFile(filepath.Join(dir, GridFile)); err != nil {
		return nil, err
	}
	if ret.Events, err = ReadEventsFile(filepath.Join(dir, EventsFile)); err != nil {
		return nil, err
	}
	colorsPath := filepath.Join(dir, ColorsFile)
	if _, err := os.Stat(colorsPath); err == nil {
		if ret.Colors, err = colors.Load(colorsPath); err != nil {
			return nil, err
		}
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *Dataset) Validate() error {
	if len(d.Grid) == 0 {
		return ErrNoGridPoints
	}
	return nil
}

// ColorTable returns the dataset color table or the built in default.
func (d *Dataset) ColorTable() *colors.Table {
	if d.Colors != nil {
		return d.Colors
	}
	return colors.DefaultTable()
}

func (d *Dataset) Stats() Stats {
	onGrid := make(map[model.Coord]struct{}, len(d.Grid))
	for _, p := range d.Grid {
		onGrid[p.Coord()] = struct{}{}
	}
	entities := map[uint32]struct{}{}
	coords := map[model.Coord]struct{}{}
	var total time.Duration
	offGrid := 0
	for i := range d.Events {
		ev := &d.Events[i]
		entities[ev.EntityID] = struct{}{}
		coords[ev.Coord()] = struct{}{}
		total += ev.Delay()
		if _, ok := onGrid[ev.Coord()]; !ok {
			offGrid++
		}
	}
	ret := Stats{
		GridPoints:    len(d.Grid),
		Events:        len(d.Events),
		Entities:      len(entities),
		LitCoords:     len(coords),
		Duration:      total,
		OffGridEvents: offGrid,
	}
	if len(d.Events) > 0 {
		ret.First = d.Events[0].Timestamp
		ret.Last = d.Events[len(d.Events)-1].Timestamp
	}
	return ret
}
