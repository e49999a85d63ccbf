// Copyright (c) 2022 The rcproxy Authors
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

package server

import (
	"bytes"
	"strings"
	"time"

	"redikv/core"
	"redikv/core/authip"
	"redikv/core/codec"
	"redikv/core/pkg/constant"
	"redikv/core/pkg/logging"
	"redikv/core/pkg/utils"
)

// OnOpened fires when a new client connection has been opened. The only
// gate left from the proxy's CConn handshake is the optional IP allow-
// list; there is no backend handshake left to perform since this server
// terminates RESP itself rather than relaying it.
func (ls *listenServer) OnOpened(c core.Conn) (out []byte, action core.Action) {
	host := c.RemoteAddr()
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	if !authip.IpMap.Validate(host) {
		logging.Warnf("[fd=%d] unauthorized access from %s", c.Fd(), host)
		return nil, core.Close
	}

	logging.Debugf("[fd=%d] conn open, local: %s, remote: %s", c.Fd(), c.LocalAddr(), c.RemoteAddr())
	return nil, core.None
}

// OnClosed fires when a client connection has been closed.
func (ls *listenServer) OnClosed(c core.Conn, err error) {
	logging.Debugf("[fd=%d] conn closed, local: %s, remote: %s, err: %v", c.Fd(), c.LocalAddr(), c.RemoteAddr(), err)
}

// OnReact fires when a connection's socket receives one already-parsed
// command. There is no routing left to do here: the teacher's slot
// lookup, connection pool and MOVED/ASK handling existed to find a
// backend to forward to, and this server answers out of its own
// keyspace.Instance instead.
func (ls *listenServer) OnReact(packet [][]byte, c core.Conn) (out []byte, action core.Action) {
	sess := c.Session()
	name := "unknown"
	if len(packet) > 0 {
		name = strings.ToLower(string(packet[0]))
	}

	start := time.Now()
	reply := ls.inst.Dispatch(sess.Session, packet)
	elapsed := time.Since(start)
	core.GlobalStats.ReqCmdIncr(name, elapsed, ls.SlowlogSlowerThan)
	if ls.SlowlogSlowerThan > 0 && elapsed.Microseconds() >= ls.SlowlogSlowerThan {
		logging.Warnf("%s [fd=%d] %s took %s", constant.TitleSlowLog, c.Fd(), name, elapsed)
	}

	if reply.Piece.Kind == codec.KindError {
		// CR/LF inside a binary-safe bulk string must not be allowed to
		// forge extra log lines, so the raw command is sanitized before
		// it is logged.
		logging.Debugf("[fd=%d] %s -> %s", c.Fd(), utils.FormatRedisRESPMessages(bytes.Join(packet, []byte(" "))), reply.Piece.Str)
	}

	if reply.CloseAfter {
		return reply.Piece.Bytes(), core.Close
	}
	return reply.Piece.Bytes(), core.None
}
