package metrics

import "net"

// countedConn is a net.Conn that records traffic in a Collector.
type countedConn struct {
	net.Conn
	c *Collector
}

// Count wraps conn so every successful Read and Write is recorded in c.
// A nil collector returns conn unchanged.
func Count(conn net.Conn, c *Collector) net.Conn {
	if c == nil {
		return conn
	}
	return &countedConn{Conn: conn, c: c}
}

func (cc *countedConn) Read(b []byte) (int, error) {
	n, err := cc.Conn.Read(b)
	if n > 0 {
		cc.c.BytesReceived(int64(n))
	}
	return n, err
}

func (cc *countedConn) Write(b []byte) (int, error) {
	n, err := cc.Conn.Write(b)
	if n > 0 {
		cc.c.BytesSent(int64(n))
	}
	return n, err
}
