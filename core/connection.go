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
	"bytes"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"redikv/core/internal/netpoll"
	"redikv/core/internal/socket"
)

// conn is the one kind of socket this reactor manages: a client speaking
// RESP. The teacher's CConn/SConn split and the elastic ring-buffer it reads
// into collapse here into a single struct and a pair of bytes.Buffer: this
// server never dials a backend, so there is no second connection role and
// no async write path crossing goroutines that would need a lock-free ring.
type conn struct {
	fd             int
	loop           *eventloop
	localAddr      net.Addr
	remoteAddr     net.Addr
	pollAttachment *netpoll.PollAttachment

	inbound  bytes.Buffer // bytes read but not yet consumed by Next/Peek/Discard
	outbound bytes.Buffer // bytes queued to write once the socket is writable again
	buffer   []byte       // latest chunk handed to the connection by the event loop

	opened  bool
	session *Session
}

func newTCPConn(fd int, el *eventloop, localAddr, remoteAddr net.Addr) *conn {
	c := &conn{
		fd:         fd,
		loop:       el,
		localAddr:  localAddr,
		remoteAddr: remoteAddr,
		session:    newSession(el.engine.opts.MaxBulkLen, el.engine.opts.MaxArrayLen),
	}
	c.pollAttachment = &netpoll.PollAttachment{FD: fd, Callback: el.handleEvent}
	return c
}

func (c *conn) release() {
	c.opened = false
	c.buffer = nil
	c.inbound.Reset()
	c.outbound.Reset()
	c.localAddr = nil
	c.remoteAddr = nil
	c.pollAttachment = nil
	c.session = nil
}

func (c *conn) open(buf []byte) error {
	n, err := unix.Write(c.fd, buf)
	if err != nil && err == unix.EAGAIN {
		_, _ = c.outbound.Write(buf)
		return nil
	}
	if err == nil && n < len(buf) {
		_, _ = c.outbound.Write(buf[n:])
	}
	return err
}

func (c *conn) write(data []byte) (n int, err error) {
	n = len(data)
	if c.outbound.Len() > 0 {
		_, _ = c.outbound.Write(data)
		return
	}

	var sent int
	if sent, err = unix.Write(c.fd, data); err != nil {
		if err == unix.EAGAIN {
			_, _ = c.outbound.Write(data)
			err = c.loop.poller.ModReadWrite(c.pollAttachment)
			return
		}
		return -1, c.loop.closeConn(c, os.NewSyscallError("write", err))
	}
	if sent < n {
		_, _ = c.outbound.Write(data[sent:])
		err = c.loop.poller.ModReadWrite(c.pollAttachment)
	}
	return
}

func (c *conn) writev(bs [][]byte) (n int, err error) {
	for _, b := range bs {
		n += len(b)
	}
	for _, b := range bs {
		if _, err = c.write(b); err != nil {
			return
		}
	}
	return
}

// ================================== Non-concurrency-safe API's ==================================

func (c *conn) Read(p []byte) (n int, err error) {
	if c.inbound.Len() == 0 {
		n = copy(p, c.buffer)
		c.buffer = c.buffer[n:]
		if n == 0 && len(p) > 0 {
			err = io.EOF
		}
		return
	}
	return c.inbound.Read(p)
}

func (c *conn) Next(n int) (buf []byte, err error) {
	total := c.inbound.Len() + len(c.buffer)
	if n > total {
		return nil, io.ErrShortBuffer
	} else if n <= 0 {
		n = total
	}
	out := make([]byte, n)
	read, _ := c.inbound.Read(out)
	if read < n {
		copy(out[read:], c.buffer[:n-read])
		c.buffer = c.buffer[n-read:]
	}
	return out, nil
}

func (c *conn) Peek(n int) (buf []byte, err error) {
	total := c.inbound.Len() + len(c.buffer)
	if n > total {
		return nil, io.ErrShortBuffer
	} else if n <= 0 {
		n = total
	}
	out := make([]byte, n)
	copy(out, c.inbound.Bytes())
	if c.inbound.Len() < n {
		copy(out[c.inbound.Len():], c.buffer[:n-c.inbound.Len()])
	}
	return out, nil
}

func (c *conn) Discard(n int) (int, error) {
	total := c.inbound.Len() + len(c.buffer)
	if n <= 0 || n > total {
		discarded := total
		c.inbound.Reset()
		c.buffer = c.buffer[:0]
		return discarded, nil
	}
	bufN := c.inbound.Len()
	if n <= bufN {
		c.inbound.Next(n)
		return n, nil
	}
	c.inbound.Reset()
	remaining := n - bufN
	c.buffer = c.buffer[remaining:]
	return n, nil
}

func (c *conn) Write(p []byte) (int, error) {
	return c.write(p)
}

func (c *conn) Writev(bs [][]byte) (int, error) {
	return c.writev(bs)
}

func (c *conn) ReadFrom(r io.Reader) (int64, error) {
	return c.outbound.ReadFrom(r)
}

func (c *conn) WriteTo(w io.Writer) (n int64, err error) {
	if c.inbound.Len() > 0 {
		if n, err = c.inbound.WriteTo(w); err != nil {
			return
		}
	}
	var m int
	m, err = w.Write(c.buffer)
	n += int64(m)
	c.buffer = c.buffer[m:]
	return
}

func (c *conn) Flush() error {
	if c.outbound.Len() == 0 {
		return nil
	}
	return c.loop.flush(c)
}

func (c *conn) InboundBuffered() int {
	return c.inbound.Len() + len(c.buffer)
}

func (c *conn) OutboundBuffered() int {
	return c.outbound.Len()
}

// SetDeadline, SetReadDeadline and SetWriteDeadline exist only to satisfy
// net.Conn-shaped code: an edge-triggered reactor has no per-call blocking
// read/write to bound with a deadline, so these are no-ops.
func (c *conn) SetDeadline(_ time.Time) error      { return nil }
func (c *conn) SetReadDeadline(_ time.Time) error  { return nil }
func (c *conn) SetWriteDeadline(_ time.Time) error { return nil }

func (c *conn) Session() *Session { return c.session }

// Implementation of Socket interface

func (c *conn) Fd() int { return c.fd }
func (c *conn) Dup() (int, error) {
	return unix.Dup(c.fd)
}
func (c *conn) SetReadBuffer(bytes int) error  { return socket.SetRecvBuffer(c.fd, bytes) }
func (c *conn) SetWriteBuffer(bytes int) error { return socket.SetSendBuffer(c.fd, bytes) }
func (c *conn) SetLinger(sec int) error        { return socket.SetLinger(c.fd, sec) }
func (c *conn) SetKeepAlivePeriod(d time.Duration) error {
	return socket.SetKeepAlivePeriod(c.fd, int(d.Seconds()))
}
func (c *conn) IsOpened() bool { return c.opened }

func (c *conn) LocalAddr() string {
	if c.localAddr == nil {
		return "-"
	}
	return c.localAddr.String()
}
func (c *conn) RemoteAddr() string {
	if c.remoteAddr == nil {
		return "-"
	}
	return c.remoteAddr.String()
}

func (c *conn) Close() error {
	return c.loop.closeConn(c, nil)
}
