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

package keyspace

// Session carries the per-connection state command handlers can see: the
// numbered database SELECT last pointed it at, and the name CLIENT
// SETNAME attached to it. The reactor's connection and parser state live
// one layer up, in core.Session, to keep this package free of any
// knowledge of sockets or RESP framing.
type Session struct {
	ID      uint64
	Name    string
	dbIndex int
}

func NewSession(id uint64) *Session {
	return &Session{ID: id}
}

func (s *Session) DBIndex() int { return s.dbIndex }

// SelectDB points the session at database index, failing if it does not
// exist in inst.
func (s *Session) SelectDB(inst *Instance, index int) bool {
	if inst.Database(index) == nil {
		return false
	}
	s.dbIndex = index
	return true
}

// CurrentDB resolves the session's selected database against inst.
func (s *Session) CurrentDB(inst *Instance) *Database {
	return inst.Database(s.dbIndex)
}
