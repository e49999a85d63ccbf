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

package core

import (
	"sync/atomic"

	"redikv/core/codec"
	"redikv/core/keyspace"
)

var nextSessionID uint64

// Session is the reactor-side state carried by one client connection: the
// keyspace.Session command handlers see, plus the resumable RESP parser
// that survives across partial reads on that connection's socket.
type Session struct {
	*keyspace.Session
	Parser *codec.RequestParser
}

// newSession allocates a Session with a process-unique client id, the same
// role CLIENT ID reports back to a RESP client.
func newSession(maxBulkLen, maxArrayLen int) *Session {
	id := atomic.AddUint64(&nextSessionID, 1)
	return &Session{
		Session: keyspace.NewSession(id),
		Parser:  codec.NewRequestParser(maxBulkLen, maxArrayLen),
	}
}
