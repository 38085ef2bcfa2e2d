package healthcheck

import (
	"context"
	"fmt"
	"net"
)

// TCPProbe fails unless a TCP connection to Address succeeds within the
// context deadline.
type TCPProbe struct {
	Address string
}

// Check implements Probe.
func (p *TCPProbe) Check(ctx context.Context) (bool, string) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false, fmt.Sprintf("dial %s: %v", p.Address, err)
	}
	_ = conn.Close()
	return true, ""
}
