package tracking

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rsrp int
		want Quality
	}{
		{-70, Excellent},
		{-80, Excellent},
		{-81, Good},
		{-90, Good},
		{-95, Fair},
		{-100, Fair},
		{-101, Poor},
		{-110, Poor},
		{-111, VeryPoor},
		{-140, VeryPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.rsrp), "rsrp %d", tt.rsrp)
	}
}

func TestReadTrack(t *testing.T) {
	in := strings.Join([]string{
		`{"location":{"latitude":1,"longitude":2},"cell_info_lte":{"cell_signal_strength_lte":{"rsrp":-75}}}`,
		``,
		`{"lat":3,"lon":4,"rsrp":-105}`,
		`{"lat":5,"lon":6}`,
		`garbage`,
		`{"other":true}`,
	}, "\n")

	track, skipped, err := ReadTrack(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, Track{
		{Lat: 1, Lon: 2, RSRP: -75},
		{Lat: 3, Lon: 4, RSRP: -105},
		{Lat: 5, Lon: 6, RSRP: DefaultRSRP},
	}, track)
}

func TestTrack_Summarize(t *testing.T) {
	s := Track{{RSRP: -75}, {RSRP: -105}, {RSRP: -100}}.Summarize()
	assert.Equal(t, 3, s.Points)
	assert.Equal(t, -105, s.MinRSRP)
	assert.Equal(t, -75, s.MaxRSRP)
	assert.InDelta(t, -93.33, s.AvgRSRP, 0.01)
	assert.Equal(t, map[Quality]int{Excellent: 1, Fair: 1, Poor: 1}, s.Bands)

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "points: 3")
	assert.Contains(t, out, "min -105 dBm, max -75 dBm, avg -93.3 dBm")
	assert.Contains(t, out, "Excellent")
	assert.NotContains(t, out, "Very Poor")
}

func TestTrack_SummarizeEmpty(t *testing.T) {
	s := Track(nil).Summarize()
	assert.Zero(t, s.Points)
	assert.Empty(t, s.Bands)

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "points: 0\n", buf.String())
}

func TestRecorder_ConcurrentAdd(t *testing.T) {
	var rec Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec.Add(Point{Lat: float64(i), RSRP: -70 - i})
		}(i)
	}
	wg.Wait()

	s := rec.Summarize()
	assert.Equal(t, 50, s.Points)
	assert.Equal(t, -119, s.MinRSRP)
	assert.Equal(t, -70, s.MaxRSRP)

	track := rec.Track()
	require.Len(t, track, 50)
	track[0].RSRP = 0
	assert.Equal(t, -70, rec.Summarize().MaxRSRP, "Track must return a copy")
}

func TestSummary_BandCounts(t *testing.T) {
	assert.Equal(t, "no points", Track(nil).Summarize().BandCounts())
	s := Track{{RSRP: -120}, {RSRP: -75}, {RSRP: -78}, {RSRP: -95}}.Summarize()
	assert.Equal(t, "Excellent 2, Fair 1, Very Poor 1", s.BandCounts())
}
