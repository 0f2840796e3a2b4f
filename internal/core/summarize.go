package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"tcphello/internal/tracking"
	"tcphello/util"
)

// SummarizeMode reads a stored tracking log (a file, or a directory of
// daily files) and prints the signal-quality summary.  It never opens
// a network connection.
type SummarizeMode struct {
	Path   string
	Logger *util.Logger

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

// Run loads the log and writes the summary.
func (m *SummarizeMode) Run(ctx context.Context) error {
	files, err := m.files()
	if err != nil {
		return err
	}

	var track tracking.Track
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, skipped, err := tracking.ReadLog(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if skipped > 0 {
			m.Logger.Warn("%s: skipped %d unreadable lines", f, skipped)
		}
		m.Logger.Verbose("%s: %d points", f, len(t))
		track = append(track, t...)
	}

	out := m.Stdout
	if out == nil {
		out = os.Stdout
	}
	_, err = track.Summarize().WriteTo(out)
	return err
}

func (m *SummarizeMode) files() ([]string, error) {
	fi, err := os.Stat(m.Path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{m.Path}, nil
	}
	files, err := tracking.LogFiles(m.Path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no gps_*.json logs in %s", m.Path)
	}
	return files, nil
}
