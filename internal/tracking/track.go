package tracking

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Quality is a coarse RSRP band.
type Quality string

const (
	Excellent Quality = "Excellent"
	Good      Quality = "Good"
	Fair      Quality = "Fair"
	Poor      Quality = "Poor"
	VeryPoor  Quality = "Very Poor"
)

// Qualities lists the bands from best to worst.
var Qualities = []Quality{Excellent, Good, Fair, Poor, VeryPoor}

// Classify maps an RSRP reading in dBm to its band.
func Classify(rsrp int) Quality {
	switch {
	case rsrp >= -80:
		return Excellent
	case rsrp >= -90:
		return Good
	case rsrp >= -100:
		return Fair
	case rsrp >= -110:
		return Poor
	default:
		return VeryPoor
	}
}

// Point is one position on a track.
type Point struct {
	Lat  float64
	Lon  float64
	RSRP int
}

// Track is an ordered list of points.
type Track []Point

// Recorder accumulates the points of every accepted report across all
// connections of a server.  The zero value is ready to use.
type Recorder struct {
	mu    sync.Mutex
	track Track
}

// Add appends p.
func (r *Recorder) Add(p Point) {
	r.mu.Lock()
	r.track = append(r.track, p)
	r.mu.Unlock()
}

// Track returns a copy of the points recorded so far.
func (r *Recorder) Track() Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(Track(nil), r.track...)
}

// Summarize summarizes the points recorded so far.
func (r *Recorder) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.track.Summarize()
}

// Summary aggregates a track.
type Summary struct {
	Points  int
	MinRSRP int
	MaxRSRP int
	AvgRSRP float64
	Bands   map[Quality]int
}

// Summarize computes a Summary.  An empty track yields a zero Summary
// with an empty Bands map.
func (t Track) Summarize() Summary {
	s := Summary{Bands: make(map[Quality]int)}
	if len(t) == 0 {
		return s
	}
	s.Points = len(t)
	s.MinRSRP, s.MaxRSRP = t[0].RSRP, t[0].RSRP
	total := 0
	for _, p := range t {
		if p.RSRP < s.MinRSRP {
			s.MinRSRP = p.RSRP
		}
		if p.RSRP > s.MaxRSRP {
			s.MaxRSRP = p.RSRP
		}
		total += p.RSRP
		s.Bands[Classify(p.RSRP)]++
	}
	s.AvgRSRP = float64(total) / float64(len(t))
	return s
}

// WriteTo prints the summary in a human-readable form.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "points: %d\n", s.Points)
	if s.Points > 0 {
		fmt.Fprintf(&b, "rsrp: min %d dBm, max %d dBm, avg %.1f dBm\n", s.MinRSRP, s.MaxRSRP, s.AvgRSRP)
		for _, q := range Qualities {
			if n := s.Bands[q]; n > 0 {
				fmt.Fprintf(&b, "  %-10s %d\n", q, n)
			}
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// BandCounts renders the non-empty bands best first, e.g.
// "Excellent 2, Fair 1".  It returns "no points" for an empty summary.
func (s Summary) BandCounts() string {
	var parts []string
	for _, q := range Qualities {
		if n := s.Bands[q]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", q, n))
		}
	}
	if len(parts) == 0 {
		return "no points"
	}
	return strings.Join(parts, ", ")
}

// logLine accepts both the stored report shape and the flat
// {"lat","lon","rsrp"} shape.
type logLine struct {
	Location *Location   `json:"location"`
	Cell     *CellInfoLTE `json:"cell_info_lte"`
	Lat      *float64     `json:"lat"`
	Lon      *float64     `json:"lon"`
	RSRP     *int         `json:"rsrp"`
}

func (l *logLine) point() (Point, bool) {
	switch {
	case l.Location != nil:
		r := Report{Location: *l.Location, Cell: l.Cell}
		return r.Point(), true
	case l.Lat != nil && l.Lon != nil:
		p := Point{Lat: *l.Lat, Lon: *l.Lon, RSRP: DefaultRSRP}
		if l.RSRP != nil {
			p.RSRP = *l.RSRP
		}
		return p, true
	}
	return Point{}, false
}

// ReadTrack parses a JSON-lines log.  Lines that are blank, malformed,
// or carry no position are skipped; the count of skipped lines is
// returned alongside the track.
func ReadTrack(r io.Reader) (Track, int, error) {
	var (
		track   Track
		skipped int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ll logLine
		if err := json.Unmarshal([]byte(line), &ll); err != nil {
			skipped++
			continue
		}
		p, ok := ll.point()
		if !ok {
			skipped++
			continue
		}
		track = append(track, p)
	}
	return track, skipped, sc.Err()
}

// ReadLog is ReadTrack over a file.
func ReadLog(path string) (Track, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadTrack(f)
}

// LogFiles returns the daily logs in dir, oldest first.
func LogFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "gps_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
