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

// Package socket wraps the raw syscalls needed to build a non-blocking TCP
// listener socket and tune it once accepted, isolating the reactor from
// golang.org/x/sys/unix's low-level calling conventions.
package socket

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Option is applied to a socket's file descriptor right after it is created.
type Option struct {
	SetSockOpt func(fd, opt int) error
	Opt        int
}

// TCPSocket creates a non-blocking, listening TCP socket bound to addr.
func TCPSocket(proto, addr string, passive bool, sockOpts ...Option) (int, net.Addr, error) {
	var family int
	switch proto {
	case "tcp4":
		family = unix.AF_INET
	case "tcp6":
		family = unix.AF_INET6
	default:
		family = unix.AF_INET
	}

	tcpAddr, err := net.ResolveTCPAddr(proto, addr)
	if err != nil {
		return 0, nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return 0, nil, os.NewSyscallError("socket", err)
	}

	for _, sockOpt := range sockOpts {
		if err := sockOpt.SetSockOpt(fd, sockOpt.Opt); err != nil {
			_ = unix.Close(fd)
			return 0, nil, err
		}
	}

	sa, err := tcpAddrToSockaddr(tcpAddr)
	if err != nil {
		_ = unix.Close(fd)
		return 0, nil, err
	}

	if passive {
		if err := unix.Bind(fd, sa); err != nil {
			_ = unix.Close(fd)
			return 0, nil, os.NewSyscallError("bind", err)
		}
		if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
			_ = unix.Close(fd)
			return 0, nil, os.NewSyscallError("listen", err)
		}
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return 0, nil, os.NewSyscallError("setnonblock", err)
	}

	return fd, tcpAddr, nil
}

func tcpAddrToSockaddr(addr *net.TCPAddr) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		var sa unix.SockaddrInet4
		copy(sa.Addr[:], ip4)
		sa.Port = addr.Port
		return &sa, nil
	}
	var sa unix.SockaddrInet6
	copy(sa.Addr[:], addr.IP.To16())
	sa.Port = addr.Port
	return &sa, nil
}

// SockaddrToTCPOrUnixAddr converts a raw accept()ed sockaddr into a net.Addr.
func SockaddrToTCPOrUnixAddr(sa unix.Sockaddr) net.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: append([]byte(nil), sa.Addr[:]...), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: append([]byte(nil), sa.Addr[:]...), Port: sa.Port}
	default:
		return nil
	}
}

// SetReuseAddr sets SO_REUSEADDR.
func SetReuseAddr(fd, _ int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

// SetNoDelay toggles TCP_NODELAY (Nagle's algorithm).
func SetNoDelay(fd, opt int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, opt))
}

// SetRecvBuffer sets SO_RCVBUF.
func SetRecvBuffer(fd, bytes int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, bytes))
}

// SetSendBuffer sets SO_SNDBUF.
func SetSendBuffer(fd, bytes int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, bytes))
}

// SetLinger sets SO_LINGER.
func SetLinger(fd, sec int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{
		Onoff:  boolToInt(sec >= 0),
		Linger: int32(sec),
	}))
}

// SetKeepAlivePeriod enables SO_KEEPALIVE and sets the probe interval.
func SetKeepAlivePeriod(fd, secs int) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, secs); err != nil {
		return os.NewSyscallError("setsockopt", err)
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, secs))
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
