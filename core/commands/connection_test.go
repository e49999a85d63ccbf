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

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"redikv/core/codec"
	"redikv/core/keyspace"
)

func newTestInstance() *keyspace.Instance {
	inst := keyspace.NewInstance(4)
	Register(inst)
	return inst
}

func dispatch(inst *keyspace.Instance, sess *keyspace.Session, args ...string) codec.Reply {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return inst.Dispatch(sess, raw)
}

func TestPing(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "PING")
	assert.Equal(t, codec.PONG, r.Piece)

	r = dispatch(inst, sess, "PING", "hello")
	assert.Equal(t, codec.BulkString("hello"), r.Piece)
}

func TestEcho(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "ECHO", "hi")
	assert.Equal(t, codec.BulkString("hi"), r.Piece)
}

func TestQuitClosesConnection(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "QUIT")
	assert.True(t, r.CloseAfter)
	assert.Equal(t, codec.OK, r.Piece)
}

func TestSelectSwitchesCurrentDB(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "SELECT", "2")
	assert.Equal(t, codec.OK, r.Piece)
	assert.Equal(t, 2, sess.DBIndex())

	r = dispatch(inst, sess, "SELECT", "99")
	assert.Equal(t, codec.KindError, r.Piece.Kind)
	assert.Equal(t, 2, sess.DBIndex(), "failed select must not move the session")
}

func TestUnknownCommandReportsArgs(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "FROBNICATE", "a", "b")
	assert.Equal(t, codec.KindError, r.Piece.Kind)
	assert.Equal(t, "ERR unknown command 'FROBNICATE', with args beginning with: 'a' 'b' ", r.Piece.Str)
}

func TestClientSetNameGetName(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(7)

	r := dispatch(inst, sess, "CLIENT", "SETNAME", "conn1")
	assert.Equal(t, codec.OK, r.Piece)

	r = dispatch(inst, sess, "CLIENT", "GETNAME")
	assert.Equal(t, codec.BulkString("conn1"), r.Piece)

	r = dispatch(inst, sess, "CLIENT", "ID")
	assert.Equal(t, codec.Integer(7), r.Piece)
}
