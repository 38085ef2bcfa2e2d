//go:build unix && !linux

package stream

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	appstream "github.com/kodflow/daemon/internal/application/stream"
)

// NewPoller returns the platform poller application/stream.Handler should
// use: select(2) on non-Linux Unixes.
func NewPoller() (appstream.Poller, error) { return NewSelectPoller() }

// SelectPoller implements application/stream.Poller via select(2) for
// Unix platforms without epoll (BSD family). Cardinality is bounded by
// the number of supervised apps' pipes, well within select's FD_SETSIZE.
type SelectPoller struct {
	mu        sync.Mutex
	fds       map[int]struct{}
	wakeR     int
	wakeW     int
	closed    bool
}

// NewSelectPoller creates a SelectPoller with a self-pipe used to wake a
// blocked Wait call when Close is invoked.
func NewSelectPoller() (*SelectPoller, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("pipe2: %w", err)
	}
	return &SelectPoller{fds: make(map[int]struct{}), wakeR: fds[0], wakeW: fds[1]}, nil
}

// Add implements Poller.
func (p *SelectPoller) Add(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fds[fd] = struct{}{}
	return nil
}

// Remove implements Poller.
func (p *SelectPoller) Remove(fd int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fds, fd)
}

// Wait implements Poller.
func (p *SelectPoller) Wait() ([]int, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, fmt.Errorf("poller closed")
		}
		set := &unix.FdSet{}
		maxFd := p.wakeR
		fdSet(set, p.wakeR)
		for fd := range p.fds {
			fdSet(set, fd)
			if fd > maxFd {
				maxFd = fd
			}
		}
		p.mu.Unlock()

		n, err := unix.Select(maxFd+1, set, nil, nil, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		if n == 0 {
			continue
		}
		if fdIsSet(set, p.wakeR) {
			return nil, fmt.Errorf("poller closed")
		}
		p.mu.Lock()
		ready := make([]int, 0, n)
		for fd := range p.fds {
			if fdIsSet(set, fd) {
				ready = append(ready, fd)
			}
		}
		p.mu.Unlock()
		if len(ready) > 0 {
			return ready, nil
		}
	}
}

// Close implements Poller.
func (p *SelectPoller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	_, _ = unix.Write(p.wakeW, []byte{0})
	_ = unix.Close(p.wakeW)
	return unix.Close(p.wakeR)
}

// Read performs one non-blocking read of fd.
func Read(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err == unix.EAGAIN {
		return 0, nil
	}
	return n, err
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}
