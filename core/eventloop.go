// Copyright (c) 2022 The rcproxy Authors
// Copyright (c) 2019 Andy Pan
// Copyright (c) 2018 Joshua J Baker
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
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"redikv/core/codec"
	"redikv/core/internal/netpoll"
	gerrors "redikv/core/pkg/errors"
	"redikv/core/pkg/logging"
)

type eventloop struct {
	ln           *listener       // listener
	engine       *engine         // engine in loop
	poller       *netpoll.Poller // epoll instance
	buffer       []byte          // read packet buffer whose capacity is set by user, default value is 64KB
	connCount    int32           // number of active connections in the event-loop
	connections  map[int]*conn   // TCP connection map: fd -> conn
	eventHandler EventHandler    // user eventHandler
	nextTicker   time.Time       // next available ticker time
	requests     [][][]byte      // scratch slice reused across Feed calls
}

func (el *eventloop) addConn(delta int32) {
	atomic.AddInt32(&el.connCount, delta)
}

func (el *eventloop) loadConnCount() int32 {
	return atomic.LoadInt32(&el.connCount)
}

func (el *eventloop) run() error {
	return el.poller.Polling(el.attachmentFor, el.ticker)
}

func (el *eventloop) attachmentFor(fd int) *netpoll.PollAttachment {
	if el.ln != nil && fd == el.ln.fd {
		return el.ln.pollAttachment
	}
	if c, ok := el.connections[fd]; ok {
		return c.pollAttachment
	}
	return nil
}

func (el *eventloop) closeAllSockets() {
	for _, c := range el.connections {
		_ = el.closeConn(c, nil)
	}
}

func (el *eventloop) open(c *conn) error {
	c.opened = true
	el.addConn(1)
	GlobalStats.TotalConnections.WithLabelValues().Inc()

	out, action := el.eventHandler.OnOpened(c)
	if out != nil {
		if err := c.open(out); err != nil {
			return err
		}
	}

	if c.outbound.Len() > 0 {
		if err := el.poller.AddWrite(c.pollAttachment); err != nil {
			return err
		}
	}

	return el.handleAction(c, action)
}

// handleEvent is the callback every client connection's PollAttachment
// carries; it is the single dispatch point for readable, writable and
// error events on that fd.
func (el *eventloop) handleEvent(fd int, ev netpoll.IOEvent) error {
	c, ok := el.connections[fd]
	if !ok {
		return nil
	}
	if ev&netpoll.EVError != 0 {
		return el.closeConn(c, os.NewSyscallError("poll", unix.ECONNRESET))
	}
	if ev&netpoll.EVWritable != 0 {
		if err := el.flush(c); err != nil {
			return err
		}
	}
	if ev&netpoll.EVReadable != 0 {
		return el.read(c)
	}
	return nil
}

// read drains c's socket buffer to EAGAIN, as required by the poller's
// edge-triggered registration: epoll only re-fires on new data arriving,
// not on data left unread from a prior wakeup.
func (el *eventloop) read(c *conn) error {
	for {
		n, err := unix.Read(c.fd, el.buffer)
		if err != nil || n == 0 {
			if err == unix.EAGAIN {
				return nil
			}
			if n == 0 {
				return el.closeConn(c, nil)
			}
			return el.closeConn(c, os.NewSyscallError("read", err))
		}

		c.buffer = el.buffer[:n]

		el.requests, err = c.session.Parser.Feed(c.buffer, el.requests[:0])
		if err != nil {
			logging.Warnf("[fd=%d] protocol error: %s", c.fd, err)
			reply := codec.ErrorReply("ERR Protocol error: " + err.Error())
			_, _ = c.write(reply.Bytes())
			return el.closeConn(c, err)
		}
		c.buffer = c.buffer[:0]

		for _, args := range el.requests {
			out, action := el.eventHandler.OnReact([][]byte(args), c)
			if out != nil {
				if _, err = c.write(out); err != nil {
					return err
				}
			}
			switch action {
			case None:
			case Close:
				return el.closeConn(c, nil)
			case Shutdown:
				return gerrors.ErrEngineShutdown
			}
			if !c.opened {
				return nil
			}
		}

		if n < len(el.buffer) {
			return nil
		}
	}
}

// flush drains c's outbound buffer to EAGAIN for the same edge-triggered
// reason read does: a partial write must keep retrying here rather than
// waiting on a writable wakeup that may never come for already-buffered bytes.
func (el *eventloop) flush(c *conn) error {
	for c.outbound.Len() > 0 {
		n, err := unix.Write(c.fd, c.outbound.Bytes())
		if err != nil {
			if err == unix.EAGAIN {
				return el.poller.ModReadWrite(c.pollAttachment)
			}
			return el.closeConn(c, os.NewSyscallError("write", err))
		}
		c.outbound.Next(n)
	}
	return el.poller.ModRead(c.pollAttachment)
}

func (el *eventloop) closeConn(c *conn, err error) (rerr error) {
	if !c.opened {
		return
	}

	for c.outbound.Len() > 0 {
		n, e := unix.Write(c.fd, c.outbound.Bytes())
		if e != nil {
			logging.Warnf("closeConn: error occurs when sending data back to peer, %v", e)
			break
		}
		c.outbound.Next(n)
	}

	err0, err1 := el.poller.Delete(c.fd), unix.Close(c.fd)
	if err0 != nil {
		rerr = fmt.Errorf("failed to delete fd=%d from poller: %v", c.fd, err0)
	}
	if err1 != nil {
		err1 = fmt.Errorf("failed to close fd=%d: %v", c.fd, os.NewSyscallError("close", err1))
		if rerr != nil {
			rerr = fmt.Errorf("%s & %s", rerr, err1)
		} else {
			rerr = err1
		}
	}

	delete(el.connections, c.fd)
	el.eventHandler.OnClosed(c, err)
	el.addConn(-1)
	if err != nil {
		GlobalStats.ConnectionsClosedErr.WithLabelValues().Inc()
	} else {
		GlobalStats.ConnectionsClosedEOF.WithLabelValues().Inc()
	}

	c.release()
	return
}

func (el *eventloop) ticker() {
	now := time.Now()
	if now.Before(el.nextTicker) {
		return
	}
	el.nextTicker = now.Add(time.Second)
	refreshConnCount()
	el.eventHandler.OnTicker()
}

func (el *eventloop) handleAction(c *conn, action Action) error {
	switch action {
	case None:
		return nil
	case Close:
		return el.closeConn(c, nil)
	case Shutdown:
		return gerrors.ErrEngineShutdown
	default:
		return nil
	}
}
