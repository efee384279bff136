package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

const sampleGrid = `x_led,y_led
0,0
1,0
0,1
`

const sampleEvents = `date,driver_number,x_led,y_led,time_delta
2023-08-27T12:58:56.234Z,44,0,0,100
2023-08-27T12:58:56.334Z,1,1,0,100
2023-08-27T12:58:56.434Z,44,0.5,0.5,300
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("could not write %s: %v", name, err)
	}
}

func TestLoadDirMinimal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GridFile, sampleGrid)
	writeFile(t, dir, EventsFile, sampleEvents)

	ds, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if ds.Manifest != nil || ds.Colors != nil {
		t.Error("optional files should stay nil when absent")
	}
	if len(ds.Grid) != 3 || len(ds.Events) != 3 {
		t.Errorf("sizes not correct: grid %d events %d", len(ds.Grid), len(ds.Events))
	}
	// without a color file the built in table is used
	if ds.ColorTable().Lookup(44) != model.RGB(0, 210, 190) {
		t.Errorf("default color table not used: %v", ds.ColorTable().Lookup(44))
	}
}

func TestLoadDirComplete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GridFile, sampleGrid)
	writeFile(t, dir, EventsFile, sampleEvents)
	writeFile(t, dir, ManifestFile, `
name: Zandvoort 2023
description: Race recording
eventTime: 2023-08-27T13:00:00Z
recorderVersion: v0.3.0
formatVersion: v1.0.0
`)
	writeFile(t, dir, ColorsFile, "assignments:\n  44: \"#123456\"\n")

	ds, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if ds.Manifest == nil || ds.Manifest.Name != "Zandvoort 2023" {
		t.Errorf("manifest not correct: %+v", ds.Manifest)
	}
	want := time.Date(2023, 8, 27, 13, 0, 0, 0, time.UTC)
	if !ds.Manifest.EventTime.Equal(want) {
		t.Errorf("event time not correct: %v", ds.Manifest.EventTime)
	}
	if ds.Colors == nil || ds.ColorTable().Lookup(44) != model.RGB(0x12, 0x34, 0x56) {
		t.Errorf("color table not loaded: %+v", ds.Colors)
	}
}

func TestLoadDirRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GridFile, sampleGrid)
	writeFile(t, dir, EventsFile, sampleEvents)
	writeFile(t, dir, ManifestFile, "name: x\nformatVersion: v2.0.0\n")

	if _, err := LoadDir(dir); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadDirMissingGrid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, EventsFile, sampleEvents)
	if _, err := LoadDir(dir); err == nil {
		t.Error("expected error when the layout file is missing")
	}
}

func TestLoadDirEmptyGrid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GridFile, "x_led,y_led\n")
	writeFile(t, dir, EventsFile, sampleEvents)
	if _, err := LoadDir(dir); !errors.Is(err, ErrNoGridPoints) {
		t.Errorf("expected ErrNoGridPoints, got %v", err)
	}
}

func TestCheckFormatVersion(t *testing.T) {
	cases := []struct {
		version string
		want    bool
	}{
		{"v1.0.0", true},
		{"1.0.0", true},
		{"v1.2.3", true},
		{"v2.0.0", false},
		{"v0.9.0", false},
		{"garbage", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := CheckFormatVersion(tc.version); got != tc.want {
			t.Errorf("CheckFormatVersion(%q) = %v, want %v", tc.version, got, tc.want)
		}
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, GridFile, sampleGrid)
	writeFile(t, dir, EventsFile, sampleEvents)
	ds, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	stats := ds.Stats()
	if stats.GridPoints != 3 || stats.Events != 3 || stats.Entities != 2 {
		t.Errorf("counts not correct: %+v", stats)
	}
	if stats.LitCoords != 3 {
		t.Errorf("lit coords not correct: %d", stats.LitCoords)
	}
	if stats.Duration != 500*time.Millisecond {
		t.Errorf("duration not correct: %v", stats.Duration)
	}
	if stats.OffGridEvents != 1 {
		t.Errorf("off grid events not correct: %d", stats.OffGridEvents)
	}
	if !stats.First.Equal(time.Date(2023, 8, 27, 12, 58, 56, 234_000_000, time.UTC)) {
		t.Errorf("first timestamp not correct: %v", stats.First)
	}
	if !stats.Last.Equal(time.Date(2023, 8, 27, 12, 58, 56, 434_000_000, time.UTC)) {
		t.Errorf("last timestamp not correct: %v", stats.Last)
	}
}
