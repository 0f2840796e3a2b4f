// Package metrics counts what a tcphello run did on the wire: the
// connections it held, the bytes it moved, and, for the tracking
// server, the reports it accepted or turned away.
//
// A nil *Collector is a valid no-op receiver.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime counters.  It is safe for concurrent use.
type Collector struct {
	active   atomic.Int64
	total    atomic.Int64
	in, out  atomic.Int64
	accepted atomic.Int64
	rejected atomic.Int64
	errs     atomic.Int64

	started time.Time

	mu        sync.Mutex
	lastErrAt time.Time
	lastErr   string
}

// New creates a collector whose uptime starts now.
func New() *Collector {
	return &Collector{started: time.Now()}
}

// ConnectionOpened counts a connection as active and in the total.
func (c *Collector) ConnectionOpened() {
	if c != nil {
		c.active.Add(1)
		c.total.Add(1)
	}
}

// ConnectionClosed drops a connection from the active count.
func (c *Collector) ConnectionClosed() {
	if c != nil {
		c.active.Add(-1)
	}
}

// BytesReceived adds n to the bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c != nil {
		c.in.Add(n)
	}
}

// BytesSent adds n to the bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c != nil {
		c.out.Add(n)
	}
}

// ReportAccepted counts a report answered with OK#n.
func (c *Collector) ReportAccepted() {
	if c != nil {
		c.accepted.Add(1)
	}
}

// ReportRejected counts a message answered with an ERROR reply.
func (c *Collector) ReportRejected() {
	if c != nil {
		c.rejected.Add(1)
	}
}

// RecordError counts an error and remembers it as the most recent.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errs.Add(1)
	c.mu.Lock()
	c.lastErrAt = time.Now()
	c.lastErr = msg
	c.mu.Unlock()
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	ReportsAccepted   int64  `json:"reports_accepted"`
	ReportsRejected   int64  `json:"reports_rejected"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot reads every counter.  A nil collector yields zeros.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Uptime:            time.Since(c.started).Truncate(time.Second).String(),
		ConnectionsActive: c.active.Load(),
		ConnectionsTotal:  c.total.Load(),
		BytesIn:           c.in.Load(),
		BytesOut:          c.out.Load(),
		ReportsAccepted:   c.accepted.Load(),
		ReportsRejected:   c.rejected.Load(),
		ErrorsTotal:       c.errs.Load(),
	}
	c.mu.Lock()
	if !c.lastErrAt.IsZero() {
		s.LastError = c.lastErrAt.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErr
	}
	c.mu.Unlock()
	return s
}

// JSON renders the snapshot as indented JSON for debug logging.
func (c *Collector) JSON() string {
	data, _ := json.MarshalIndent(c.Snapshot(), "", "  ")
	return string(data)
}
