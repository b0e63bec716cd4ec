// Package liftlog loads bridge-lift event logs exported from the operator's
// spreadsheet. Rows that cannot be parsed are dropped rather than failing the
// whole load since real logs are sparse and hand-entered.
package liftlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingHeader = errors.New("missing required column in header")
	ErrEmptyLog      = errors.New("no parseable rows in lift log")
)

// Required columns of the source log export.
const (
	ColETA       = "ETA Bridge"
	ColStart     = "Start Time"
	ColEnd       = "End Time"
	ColDuration  = "Duration"
	ColVessels   = "Vessel(s)"
	ColDirection = "Direction"
)

// LiftEvent is one bridge-opening occurrence from the log. Vessels holds the
// raw comma separated vessel field; feature derivation tokenizes it later.
type LiftEvent struct {
	ETA         time.Time
	Start       time.Time
	End         time.Time
	DurationMin float64
	Vessels     string
	Direction   string
}

// Result carries the parsed events along with row accounting for logging.
type Result struct {
	Events  []LiftEvent
	Total   int
	Dropped int
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	time.RFC3339,
}

// Load reads a CSV export of the lift log. The first row must be a header
// containing the required columns in any order. Row order is preserved.
func Load(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read lift log header, %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Total++
			res.Dropped++
			continue
		}
		res.Total++

		ev, ok := parseRow(row, idx)
		if !ok {
			res.Dropped++
			continue
		}
		res.Events = append(res.Events, ev)
	}

	if len(res.Events) == 0 {
		return nil, ErrEmptyLog
	}
	return res, nil
}

func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range []string{ColETA, ColStart, ColEnd, ColDuration, ColVessels, ColDirection} {
		if _, exists := idx[col]; !exists {
			return nil, fmt.Errorf("%s, %w", col, ErrMissingHeader)
		}
	}
	return idx, nil
}

func parseRow(row []string, idx map[string]int) (LiftEvent, bool) {
	get := func(col string) (string, bool) {
		i := idx[col]
		if i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			return "", false
		}
		return v, true
	}

	var ev LiftEvent
	for _, f := range []struct {
		col string
		dst *time.Time
	}{
		{ColETA, &ev.ETA},
		{ColStart, &ev.Start},
		{ColEnd, &ev.End},
	} {
		raw, ok := get(f.col)
		if !ok {
			return LiftEvent{}, false
		}
		t, err := parseTime(raw)
		if err != nil {
			return LiftEvent{}, false
		}
		*f.dst = t
	}

	durRaw, ok := get(ColDuration)
	if !ok {
		return LiftEvent{}, false
	}
	dur, err := DurationMinutes(durRaw)
	if err != nil || dur < 0 {
		return LiftEvent{}, false
	}
	ev.DurationMin = dur

	vessels, ok := get(ColVessels)
	if !ok {
		return LiftEvent{}, false
	}
	ev.Vessels = vessels

	direction, ok := get(ColDirection)
	if !ok {
		return LiftEvent{}, false
	}
	ev.Direction = direction

	return ev, true
}

func parseTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// DurationMinutes converts a time-of-day shaped duration value such as
// "00:05:30" to minutes: hours*60 + minutes + seconds/60.
func DurationMinutes(raw string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("duration %q is not HH:MM or HH:MM:SS shaped", raw)
	}

	vals := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q has non-numeric component, %w", raw, err)
		}
		vals[i] = v
	}
	return vals[0]*60 + vals[1] + vals[2]/60, nil
}
