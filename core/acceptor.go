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

package core

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"redikv/core/internal/netpoll"
	"redikv/core/internal/socket"
	"redikv/core/pkg/logging"
)

// accept drains the listen backlog until accept(2) reports EAGAIN: the
// listener is registered edge-triggered, so connections still pending after
// this wakeup would not produce another one.
func (el *eventloop) accept(fd int, ev netpoll.IOEvent) error {
	for {
		if err := el.acceptOne(fd, ev); err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
	}
}

func (el *eventloop) acceptOne(_ int, _ netpoll.IOEvent) error {
	nfd, sa, err := unix.Accept(el.ln.fd)
	if err != nil {
		if err == unix.EAGAIN {
			return err
		}
		logging.Errorf("Accept() failed due to error: %v", err)
		return os.NewSyscallError("accept", err)
	}
	if err = os.NewSyscallError("fcntl nonblock", unix.SetNonblock(nfd, true)); err != nil {
		return err
	}

	remoteAddr := socket.SockaddrToTCPOrUnixAddr(sa)
	if el.engine.opts.TCPKeepAlive > 0 {
		err = socket.SetKeepAlivePeriod(nfd, int(el.engine.opts.TCPKeepAlive/time.Second))
		logging.Error(err)
	}

	c := newTCPConn(nfd, el, el.ln.addr, remoteAddr)
	if err = el.poller.AddRead(c.pollAttachment); err != nil {
		return err
	}
	el.connections[c.fd] = c
	return el.open(c)
}
