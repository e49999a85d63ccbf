// Copyright (c) 2022 The rcproxy Authors
// Copyright (c) 2021 Andy Pan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux
// +build linux

// Package netpoll wraps epoll so the reactor's single event-loop goroutine
// never has to touch golang.org/x/sys/unix directly. There is no
// asyncTaskQueue here the way the kqueue-based teacher poller has one: this
// server never hands work to the loop from another goroutine (there is no
// background dialer and no admin-triggered write), so the cross-goroutine
// wakeup machinery the teacher needs has nothing to serve in this domain.
package netpoll

import (
	"os"
	"runtime"

	"golang.org/x/sys/unix"

	"redikv/core/pkg/errors"
	"redikv/core/pkg/logging"
)

// IOEvent is a bitmask of the epoll events that fired on a descriptor.
type IOEvent uint32

const (
	// EVReadable fires when a descriptor has data ready to read, or a
	// listening socket has a pending connection.
	EVReadable IOEvent = unix.EPOLLIN
	// EVWritable fires when a descriptor's outbound buffer has room.
	EVWritable IOEvent = unix.EPOLLOUT
	// EVError fires on a socket error or peer hangup.
	EVError IOEvent = unix.EPOLLERR | unix.EPOLLHUP | unix.EPOLLRDHUP
)

// PollEventHandler is invoked once per ready descriptor with the fd and the
// event bitmask that fired.
type PollEventHandler func(fd int, event IOEvent) error

// PollAttachment binds a file descriptor to the callback the poller invokes
// when that descriptor becomes ready.
type PollAttachment struct {
	FD       int
	Callback PollEventHandler
}

// InitPollEventsCap is the initial capacity of the epoll_wait event buffer.
const InitPollEventsCap = 128

// Poller is the single epoll instance driving the reactor's event loop.
type Poller struct {
	fd      int
	wakeFds [2]int // unused: no wake pipe is opened, and Close only closes the epoll descriptor
}

// OpenPoller instantiates a poller.
func OpenPoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	p := &Poller{fd: fd}
	return p, nil
}

// Close closes the poller.
func (p *Poller) Close() error {
	return os.NewSyscallError("close", unix.Close(p.fd))
}

// AddRead registers fd for readable events, edge-triggered: the caller must
// drain fd until EAGAIN on every wakeup since a second wakeup is not
// guaranteed while unread data remains.
func (p *Poller) AddRead(pa *PollAttachment) error {
	return p.ctl(unix.EPOLL_CTL_ADD, pa.FD, unix.EPOLLIN|unix.EPOLLET)
}

// AddReadWrite registers fd for both readable and writable events, edge-triggered.
func (p *Poller) AddReadWrite(pa *PollAttachment) error {
	return p.ctl(unix.EPOLL_CTL_ADD, pa.FD, unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET)
}

// AddWrite registers fd for writable events only, edge-triggered.
func (p *Poller) AddWrite(pa *PollAttachment) error {
	return p.ctl(unix.EPOLL_CTL_ADD, pa.FD, unix.EPOLLOUT|unix.EPOLLET)
}

// ModRead drops the writable interest on fd, keeping it readable.
func (p *Poller) ModRead(pa *PollAttachment) error {
	return p.ctl(unix.EPOLL_CTL_MOD, pa.FD, unix.EPOLLIN|unix.EPOLLET)
}

// ModReadWrite re-adds writable interest alongside readable interest.
func (p *Poller) ModReadWrite(pa *PollAttachment) error {
	return p.ctl(unix.EPOLL_CTL_MOD, pa.FD, unix.EPOLLIN|unix.EPOLLOUT|unix.EPOLLET)
}

// Delete removes fd from the poller.
func (p *Poller) Delete(fd int) error {
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err != nil && err != unix.ENOENT {
		return os.NewSyscallError("epoll_ctl del", err)
	}
	return nil
}

func (p *Poller) ctl(op int, fd int, events uint32) error {
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	return os.NewSyscallError("epoll_ctl", unix.EpollCtl(p.fd, op, fd, &ev))
}

// Polling blocks the calling goroutine, waiting for I/O events and running
// trick once per wakeup for periodic bookkeeping.
func (p *Poller) Polling(attach func(fd int) *PollAttachment, trick func()) error {
	events := make([]unix.EpollEvent, InitPollEventsCap)
	for {
		trick()

		n, err := unix.EpollWait(p.fd, events, 200)
		if n == 0 || (n < 0 && err == unix.EINTR) {
			runtime.Gosched()
			continue
		}
		if err != nil {
			logging.Errorf("error occurs in epoll_wait: %v", os.NewSyscallError("epoll_wait", err))
			return err
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			fd := int(ev.Fd)
			pa := attach(fd)
			if pa == nil {
				continue
			}
			ioEvent := IOEvent(ev.Events)
			switch err = pa.Callback(fd, ioEvent); err {
			case nil:
			case errors.ErrAcceptSocket, errors.ErrEngineShutdown:
				return err
			default:
				logging.Warnf("error occurs in event-loop: %v", err)
			}
		}

		if n == len(events) {
			events = append(events, make([]unix.EpollEvent, len(events))...)
		}
	}
}
