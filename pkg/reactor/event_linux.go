//go:build linux

package reactor

import "golang.org/x/sys/unix"

// The epoll data word is a union; x/sys exposes it as Fd and Pad. The id
// is stored as two 32-bit halves.

func setEventID(ev *unix.EpollEvent, id uint64) {
	ev.Fd = int32(uint32(id))
	ev.Pad = int32(uint32(id >> 32))
}

func eventID(ev *unix.EpollEvent) uint64 {
	return uint64(uint32(ev.Fd)) | uint64(uint32(ev.Pad))<<32
}
