package metrics

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Connections(t *testing.T) {
	c := New()

	c.ConnectionOpened()
	c.ConnectionOpened()
	s := c.Snapshot()
	assert.Equal(t, int64(2), s.ConnectionsActive)
	assert.Equal(t, int64(2), s.ConnectionsTotal)

	c.ConnectionClosed()
	s = c.Snapshot()
	assert.Equal(t, int64(1), s.ConnectionsActive)
	assert.Equal(t, int64(2), s.ConnectionsTotal, "total never decreases")
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)

	s := c.Snapshot()
	assert.Equal(t, int64(1124), s.BytesIn)
	assert.Equal(t, int64(512), s.BytesOut)
}

func TestCollector_Reports(t *testing.T) {
	c := New()

	c.ReportAccepted()
	c.ReportAccepted()
	c.ReportRejected()

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.ReportsAccepted)
	assert.Equal(t, int64(1), s.ReportsRejected)
}

func TestCollector_RecordError(t *testing.T) {
	c := New()
	assert.Empty(t, c.Snapshot().LastError)

	c.RecordError("first")
	c.RecordError("second")

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.ErrorsTotal)
	assert.Equal(t, "second", s.LastErrorMessage)
	assert.NotEmpty(t, s.LastError)
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.ConnectionOpened()
	c.BytesSent(42)

	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(c.JSON()), &snap))
	assert.Equal(t, int64(1), snap.ConnectionsActive)
	assert.Equal(t, int64(42), snap.BytesOut)
	assert.NotContains(t, c.JSON(), "last_error")
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	c.ConnectionOpened()
	c.ConnectionClosed()
	c.BytesReceived(100)
	c.BytesSent(100)
	c.ReportAccepted()
	c.ReportRejected()
	c.RecordError("test")

	assert.Equal(t, Snapshot{}, c.Snapshot())
	assert.NotEmpty(t, c.JSON())
}

func TestCount_RecordsTraffic(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	c := New()
	counted := Count(a, c)

	go func() {
		buf := make([]byte, 5)
		n, _ := b.Read(buf)
		b.Write(buf[:n]) //nolint:errcheck
	}()

	_, err := counted.Write([]byte("hello"))
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, err := counted.Read(buf)
	require.NoError(t, err)

	assert.Equal(t, "hello", string(buf[:n]))
	s := c.Snapshot()
	assert.Equal(t, int64(5), s.BytesOut)
	assert.Equal(t, int64(5), s.BytesIn)
}

func TestCount_NilCollectorPassthrough(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	assert.Same(t, a, Count(a, nil))
}
