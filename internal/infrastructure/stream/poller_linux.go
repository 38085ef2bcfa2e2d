//go:build linux

package stream

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	appstream "github.com/kodflow/daemon/internal/application/stream"
)

// NewPoller returns the platform poller application/stream.Handler should
// use: epoll on Linux.
func NewPoller() (appstream.Poller, error) { return NewEpollPoller() }

// EpollPoller implements application/stream.Poller using Linux epoll, the
// same non-blocking readiness-notification primitive the rest of this
// module's infrastructure relies on for syscall-level plumbing.
type EpollPoller struct {
	epfd int

	mu       sync.Mutex
	fds      map[int]struct{}
	wakeR    int
	wakeW    int
}

// NewEpollPoller creates an epoll instance and a self-pipe used to wake
// Wait when Close is called while no fd is ready.
func NewEpollPoller() (*EpollPoller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("pipe2: %w", err)
	}
	p := &EpollPoller{epfd: epfd, fds: make(map[int]struct{}), wakeR: fds[0], wakeW: fds[1]}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, p.wakeR, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(p.wakeR)}); err != nil {
		return nil, fmt.Errorf("epoll_ctl(wake): %w", err)
	}
	return p, nil
}

// Add implements Poller.
func (p *EpollPoller) Add(fd int) error {
	p.mu.Lock()
	p.fds[fd] = struct{}{}
	p.mu.Unlock()
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)})
}

// Remove implements Poller.
func (p *EpollPoller) Remove(fd int) {
	p.mu.Lock()
	delete(p.fds, fd)
	p.mu.Unlock()
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait implements Poller.
func (p *EpollPoller) Wait() ([]int, error) {
	var events [64]unix.EpollEvent
	for {
		n, err := unix.EpollWait(p.epfd, events[:], -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("epoll_wait: %w", err)
		}
		ready := make([]int, 0, n)
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == p.wakeR {
				return nil, fmt.Errorf("poller closed")
			}
			ready = append(ready, fd)
		}
		if len(ready) > 0 {
			return ready, nil
		}
	}
}

// Close implements Poller.
func (p *EpollPoller) Close() error {
	_, _ = unix.Write(p.wakeW, []byte{0})
	_ = unix.Close(p.wakeW)
	_ = unix.Close(p.wakeR)
	return unix.Close(p.epfd)
}

// Read performs one non-blocking read of fd, suitable as the reader
// callback passed to application/stream.New.
func Read(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if err == unix.EAGAIN {
		return 0, nil
	}
	return n, err
}
