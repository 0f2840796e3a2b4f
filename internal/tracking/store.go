package tracking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ServerTimeLayout is the format of the server_time field added to
// every stored record.
const ServerTimeLayout = "2006-01-02T15:04:05.000000"

// Store appends accepted reports to one JSON-lines file per day.
// It is safe for concurrent use by connection handlers.
type Store struct {
	Dir string

	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates dir if needed and returns a store writing into it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("log dir %s: %w", dir, err)
	}
	return &Store{Dir: dir, now: time.Now}, nil
}

// PathFor returns the file a record received at t is written to.
func (s *Store) PathFor(t time.Time) string {
	return filepath.Join(s.Dir, "gps_"+t.Format("2006-01-02")+".json")
}

// Append writes r with a server_time stamp as one line.
func (s *Store) Append(r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	rec := make(map[string]interface{}, len(r.Raw)+1)
	for k, v := range r.Raw {
		rec[k] = v
	}
	rec["server_time"] = ts.Format(ServerTimeLayout)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	f, err := os.OpenFile(s.PathFor(ts), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
