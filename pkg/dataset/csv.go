package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mpapenbr/ledtrack-go/pkg/model"
)

// column names used by the recorder
const (
	colX      = "x_led"
	colY      = "y_led"
	colDate   = "date"
	colEntity = "driver_number"
	colDelay  = "time_delta"
)

var ErrMissingColumn = errors.New("missing column")

// ReadGridPoints reads the layout file (columns x_led,y_led).
// Column order in the file does not matter, extra columns are ignored.
func ReadGridPoints(r io.Reader) ([]model.GridPoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	idx, err := indexColumns(cr, colX, colY)
	if err != nil {
		return nil, err
	}
	ret := []model.GridPoint{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		x, err := parseFloat(rec, idx, colX, line)
		if err != nil {
			return nil, err
		}
		y, err := parseFloat(rec, idx, colY, line)
		if err != nil {
			return nil, err
		}
		ret = append(ret, model.GridPoint{X: x, Y: y})
	}
	return ret, nil
}

// ReadEvents reads the recorded event log
// (columns date,driver_number,x_led,y_led,time_delta).
// Rows keep their file order, which is the playback order.
func ReadEvents(r io.Reader) ([]model.TelemetryEvent, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	idx, err := indexColumns(cr, colDate, colEntity, colX, colY, colDelay)
	if err != nil {
		return nil, err
	}
	ret := []model.TelemetryEvent{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		ts, err := time.Parse(time.RFC3339, rec[idx[colDate]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, colDate, err)
		}
		entity, err := strconv.ParseUint(rec[idx[colEntity]], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, colEntity, err)
		}
		x, err := parseFloat(rec, idx, colX, line)
		if err != nil {
			return nil, err
		}
		y, err := parseFloat(rec, idx, colY, line)
		if err != nil {
			return nil, err
		}
		delay, err := strconv.ParseUint(rec[idx[colDelay]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, colDelay, err)
		}
		ret = append(ret, model.TelemetryEvent{
			Timestamp: ts,
			EntityID:  uint32(entity),
			X:         x,
			Y:         y,
			DelayMs:   delay,
		})
	}
	return ret, nil
}

func ReadGridPointsFile(path string) ([]model.GridPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := ReadGridPoints(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ret, nil
}

func ReadEventsFile(path string) ([]model.TelemetryEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret, err := ReadEvents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ret, nil
}

// indexColumns reads the header row and resolves the required columns.
func indexColumns(cr *csv.Reader, required ...string) (map[string]int, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return idx, nil
}

func parseFloat(rec []string, idx map[string]int, col string, line int) (float64, error) {
	ret, err := strconv.ParseFloat(rec[idx[col]], 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s: %w", line, col, err)
	}
	return ret, nil
}
