//go:build linux

package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sys/unix"
)

const (
	// MaxEvents caps the events returned by one Wait.
	MaxEvents = 1024

	// WaitTimeoutMillis bounds one Wait.
	WaitTimeoutMillis = 5000
)

// Reserved event ids.
const (
	HTTPSListenerID uint64 = 0
	HTTPListenerID  uint64 = 1

	// wakeID marks the internal eventfd used to interrupt Wait on Close.
	wakeID uint64 = 2

	// StreamIDStart is the first id handed out to connections.
	StreamIDStart uint64 = 16
)

const streamEvents = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLONESHOT | unix.EPOLLET

// ErrClosed is returned by operations on a closed reactor.
var ErrClosed = errors.New("reactor closed")

// Dispatcher handles listener readiness. OnListener runs on the reactor
// goroutine and should accept one connection and hand it off.
type Dispatcher interface {
	OnListener(id uint64)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(id uint64)

// OnListener implements Dispatcher.
func (f DispatcherFunc) OnListener(id uint64) { f(id) }

type waiter struct {
	fd    int
	ready chan struct{}
	once  sync.Once
}

func (w *waiter) signal() {
	w.once.Do(func() { close(w.ready) })
}

// Reactor owns one epoll instance.
type Reactor struct {
	epfd   int
	wakefd int

	nextID  atomic.Uint64
	waiters *xsync.MapOf[uint64, *waiter]
	closed  atomic.Bool

	logger *slog.Logger
}

// New creates the epoll instance. Failure here is fatal at startup.
func New(logger *slog.Logger) (*Reactor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	r := &Reactor{
		epfd:    epfd,
		wakefd:  wakefd,
		waiters: xsync.NewMapOf[uint64, *waiter](),
		logger:  logger.With("component", "reactor"),
	}
	r.nextID.Store(StreamIDStart)

	if err := r.ctl(unix.EPOLL_CTL_ADD, wakefd, unix.EPOLLIN, wakeID); err != nil {
		r.closeFds()
		return nil, fmt.Errorf("register wake fd: %w", err)
	}
	return r, nil
}

// RegisterListener adds a listening socket with level-triggered read
// interest under a reserved id.
func (r *Reactor) RegisterListener(fd int, id uint64) error {
	if id >= StreamIDStart || id == wakeID {
		return fmt.Errorf("listener id %d is not reserved", id)
	}
	if err := r.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN, id); err != nil {
		return fmt.Errorf("register listener %d: %w", id, err)
	}
	return nil
}

// RegisterStream adds a connection socket with one-shot read interest. The
// returned channel is closed on the first readiness notification.
func (r *Reactor) RegisterStream(fd int) (uint64, <-chan struct{}, error) {
	if r.closed.Load() {
		return 0, nil, ErrClosed
	}
	id := r.nextID.Add(1) - 1
	w := &waiter{fd: fd, ready: make(chan struct{})}
	r.waiters.Store(id, w)

	if err := r.ctl(unix.EPOLL_CTL_ADD, fd, streamEvents, id); err != nil {
		r.waiters.Delete(id)
		return 0, nil, fmt.Errorf("register stream: %w", err)
	}
	return id, w.ready, nil
}

// RegisterConn registers the socket behind c with RegisterStream.
func (r *Reactor) RegisterConn(c syscall.Conn) (uint64, <-chan struct{}, error) {
	fd, err := FD(c)
	if err != nil {
		return 0, nil, err
	}
	return r.RegisterStream(fd)
}

// Deregister removes a stream registration. It must run before the socket
// is closed.
func (r *Reactor) Deregister(id uint64) error {
	w, ok := r.waiters.LoadAndDelete(id)
	if !ok {
		return nil
	}
	w.signal()
	err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, w.fd, nil)
	if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
		return fmt.Errorf("deregister stream %d: %w", id, err)
	}
	return nil
}

// Pending returns the number of registered streams.
func (r *Reactor) Pending() int {
	return r.waiters.Size()
}

// Wait fills events with up to MaxEvents ready events, blocking at most
// WaitTimeoutMillis. EINTR is retried.
func (r *Reactor) Wait(events []unix.EpollEvent) (int, error) {
	if len(events) > MaxEvents {
		events = events[:MaxEvents]
	}
	for {
		n, err := unix.EpollWait(r.epfd, events, WaitTimeoutMillis)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("epoll_wait: %w", err)
		}
		return n, nil
	}
}

// Run drives the loop until ctx is cancelled or the reactor is closed.
// Listener events go to d; stream events close the stream's readiness
// channel. Unknown ids are logged and ignored.
func (r *Reactor) Run(ctx context.Context, d Dispatcher) error {
	stop := context.AfterFunc(ctx, func() { r.wake() })
	defer stop()

	events := make([]unix.EpollEvent, MaxEvents)
	for {
		if ctx.Err() != nil || r.closed.Load() {
			return nil
		}

		n, err := r.Wait(events)
		if err != nil {
			if r.closed.Load() {
				return nil
			}
			return err
		}

		for i := 0; i < n; i++ {
			id := eventID(&events[i])
			switch {
			case id == wakeID:
				r.drainWake()
			case id < StreamIDStart:
				d.OnListener(id)
			default:
				w, ok := r.waiters.Load(id)
				if !ok {
					r.logger.Warn("unknown event id", "id", id, "events", events[i].Events)
					continue
				}
				w.signal()
			}
		}
	}
}

// Close releases the epoll instance and wakes every pending stream.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.wake()
	r.waiters.Range(func(id uint64, w *waiter) bool {
		w.signal()
		return true
	})
	return r.closeFds()
}

func (r *Reactor) closeFds() error {
	err := unix.Close(r.epfd)
	if werr := unix.Close(r.wakefd); err == nil {
		err = werr
	}
	return err
}

func (r *Reactor) wake() {
	var one [8]byte
	one[0] = 1
	_, _ = unix.Write(r.wakefd, one[:])
}

func (r *Reactor) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(r.wakefd, buf[:])
}

func (r *Reactor) ctl(op, fd int, events uint32, id uint64) error {
	ev := unix.EpollEvent{Events: events}
	setEventID(&ev, id)
	return unix.EpollCtl(r.epfd, op, fd, &ev)
}

// FD returns the file descriptor behind c.
func FD(c syscall.Conn) (int, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return -1, fmt.Errorf("syscall conn: %w", err)
	}
	fd := -1
	if err := raw.Control(func(s uintptr) { fd = int(s) }); err != nil {
		return -1, fmt.Errorf("raw control: %w", err)
	}
	return fd, nil
}
