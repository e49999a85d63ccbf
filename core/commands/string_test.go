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

func TestGetSetRoundTrip(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "GET", "missing")
	assert.True(t, r.Piece.Null)

	r = dispatch(inst, sess, "SET", "k", "v")
	assert.Equal(t, codec.OK, r.Piece)

	r = dispatch(inst, sess, "GET", "k")
	assert.Equal(t, codec.BulkString("v"), r.Piece)
}

func TestSetNXAndXX(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "SET", "k", "v1", "NX")
	assert.Equal(t, codec.OK, r.Piece)

	r = dispatch(inst, sess, "SET", "k", "v2", "NX")
	assert.True(t, r.Piece.Null, "NX must refuse an existing key")

	r = dispatch(inst, sess, "SET", "missing", "v", "XX")
	assert.True(t, r.Piece.Null, "XX must refuse a missing key")
}

func TestSetWithExpire(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "k", "v", "EX", "10")
	r := dispatch(inst, sess, "PTTL", "k")
	assert.True(t, r.Piece.Int > 0 && r.Piece.Int <= 10000)
}

func TestAppendAndStrlen(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "APPEND", "k", "hello")
	assert.Equal(t, codec.Integer(5), r.Piece)

	r = dispatch(inst, sess, "APPEND", "k", " world")
	assert.Equal(t, codec.Integer(11), r.Piece)

	r = dispatch(inst, sess, "STRLEN", "k")
	assert.Equal(t, codec.Integer(11), r.Piece)

	r = dispatch(inst, sess, "GET", "k")
	assert.Equal(t, codec.BulkString("hello world"), r.Piece)
}

func TestGetDel(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "k", "v")
	r := dispatch(inst, sess, "GETDEL", "k")
	assert.Equal(t, codec.BulkString("v"), r.Piece)

	r = dispatch(inst, sess, "EXISTS", "k")
	assert.Equal(t, codec.Integer(0), r.Piece)
}

func TestGetRange(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "k", "This is a string")

	r := dispatch(inst, sess, "GETRANGE", "k", "0", "3")
	assert.Equal(t, codec.BulkString("This"), r.Piece)

	r = dispatch(inst, sess, "GETRANGE", "k", "-3", "-1")
	assert.Equal(t, codec.BulkString("ing"), r.Piece)

	r = dispatch(inst, sess, "GETRANGE", "k", "0", "-1")
	assert.Equal(t, codec.BulkString("This is a string"), r.Piece)
}

func TestIncrDecrFamily(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "INCR", "counter")
	assert.Equal(t, codec.Integer(1), r.Piece)

	r = dispatch(inst, sess, "INCRBY", "counter", "10")
	assert.Equal(t, codec.Integer(11), r.Piece)

	r = dispatch(inst, sess, "DECR", "counter")
	assert.Equal(t, codec.Integer(10), r.Piece)

	r = dispatch(inst, sess, "DECRBY", "counter", "5")
	assert.Equal(t, codec.Integer(5), r.Piece)

	dispatch(inst, sess, "SET", "notanum", "abc")
	r = dispatch(inst, sess, "INCR", "notanum")
	assert.Equal(t, codec.KindError, r.Piece.Kind)
}

func TestIncrPreservesTTL(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "k", "1", "EX", "100")
	dispatch(inst, sess, "INCR", "k")

	r := dispatch(inst, sess, "PTTL", "k")
	assert.True(t, r.Piece.Int > 0, "INCR must not clear an existing TTL")
}

func TestMGetMSetMSetNX(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "MSET", "a", "1", "b", "2")
	assert.Equal(t, codec.OK, r.Piece)

	r = dispatch(inst, sess, "MGET", "a", "b", "missing")
	assert.Equal(t, []codec.Piece{codec.BulkString("1"), codec.BulkString("2"), codec.NullBulkString()}, r.Piece.Items)

	r = dispatch(inst, sess, "MSETNX", "a", "9", "c", "3")
	assert.Equal(t, codec.Integer(0), r.Piece, "msetnx must refuse if any key already exists")

	r = dispatch(inst, sess, "MSETNX", "c", "3", "d", "4")
	assert.Equal(t, codec.Integer(1), r.Piece)
}
