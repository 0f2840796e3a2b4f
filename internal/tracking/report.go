// Package tracking implements the GPS/LTE report protocol spoken by
// the tracking server: parsing a report, answering it, persisting it
// as JSON lines, and summarising signal quality along a track.
package tracking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultRSRP is assumed when a report carries no LTE signal reading.
const DefaultRSRP = -100

var (
	ErrBadJSON     = errors.New("bad JSON")
	ErrNoLocation  = errors.New("no location")
	ErrBadLocation = errors.New("bad location")
)

// Location is the position block of a report.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Speed     float64 `json:"speed"`
	Accuracy  float64 `json:"accuracy"`
}

// CellInfoLTE is the serving LTE cell as reported by the device.
type CellInfoLTE struct {
	Identity struct {
		MCC int `json:"mcc"`
		MNC int `json:"mnc"`
	} `json:"cell_identity_lte"`
	Signal struct {
		RSRP *int `json:"rsrp"`
		RSRQ *int `json:"rsrq"`
	} `json:"cell_signal_strength_lte"`
}

// Report is one decoded tracking message.  Raw keeps every field the
// device sent so persistence is lossless.
type Report struct {
	Location Location
	Cell     *CellInfoLTE
	Raw      map[string]interface{}
}

// RSRP returns the reported signal strength and whether one was sent.
func (r *Report) RSRP() (int, bool) {
	if r.Cell == nil || r.Cell.Signal.RSRP == nil {
		return DefaultRSRP, false
	}
	return *r.Cell.Signal.RSRP, true
}

// Point reduces the report to a track point.
func (r *Report) Point() Point {
	rsrp, _ := r.RSRP()
	return Point{Lat: r.Location.Latitude, Lon: r.Location.Longitude, RSRP: rsrp}
}

// ParseReport decodes one message.  The error is ErrBadJSON,
// ErrNoLocation, or ErrBadLocation (all wrapped).
func ParseReport(data []byte) (*Report, error) {
	if !json.Valid(data) {
		return nil, ErrBadJSON
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		// Valid JSON that is not an object has no location either.
		return nil, ErrNoLocation
	}
	if _, ok := raw["location"]; !ok {
		return nil, ErrNoLocation
	}

	var typed struct {
		Location *Location   `json:"location"`
		Cell     *CellInfoLTE `json:"cell_info_lte"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLocation, err)
	}
	if typed.Location == nil {
		return nil, ErrNoLocation
	}
	return &Report{Location: *typed.Location, Cell: typed.Cell, Raw: raw}, nil
}

// Reply returns the line (without newline) answering the count-th
// message of a connection.
func Reply(count int, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("OK#%d", count)
	case errors.Is(err, ErrBadJSON):
		return "ERROR: Bad JSON"
	case errors.Is(err, ErrNoLocation):
		return "ERROR: No location"
	default:
		return "ERROR: Bad location"
	}
}
