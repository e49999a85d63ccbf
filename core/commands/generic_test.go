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

func TestDelExistsTouch(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "a", "1")
	dispatch(inst, sess, "SET", "b", "2")

	r := dispatch(inst, sess, "EXISTS", "a", "b", "missing")
	assert.Equal(t, codec.Integer(2), r.Piece)

	r = dispatch(inst, sess, "TOUCH", "a", "missing")
	assert.Equal(t, codec.Integer(1), r.Piece)

	r = dispatch(inst, sess, "DEL", "a", "b", "missing")
	assert.Equal(t, codec.Integer(2), r.Piece)

	r = dispatch(inst, sess, "EXISTS", "a")
	assert.Equal(t, codec.Integer(0), r.Piece)
}

func TestTypeReportsNoneForMissingKey(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	r := dispatch(inst, sess, "TYPE", "missing")
	assert.Equal(t, codec.SimpleString("none"), r.Piece)

	dispatch(inst, sess, "SET", "k", "v")
	r = dispatch(inst, sess, "TYPE", "k")
	assert.Equal(t, codec.SimpleString("string"), r.Piece)
}

func TestRenameAndRenameNX(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "a", "1")
	r := dispatch(inst, sess, "RENAME", "a", "b")
	assert.Equal(t, codec.OK, r.Piece)

	r = dispatch(inst, sess, "RENAME", "missing", "c")
	assert.Equal(t, codec.KindError, r.Piece.Kind)

	dispatch(inst, sess, "SET", "d", "9")
	r = dispatch(inst, sess, "RENAMENX", "b", "d")
	assert.Equal(t, codec.Integer(0), r.Piece)

	r = dispatch(inst, sess, "RENAMENX", "b", "e")
	assert.Equal(t, codec.Integer(1), r.Piece)
}

func TestExpireFamilyAndTTL(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "k", "v")

	r := dispatch(inst, sess, "TTL", "k")
	assert.Equal(t, codec.Integer(-1), r.Piece)

	r = dispatch(inst, sess, "EXPIRE", "k", "100")
	assert.Equal(t, codec.Integer(1), r.Piece)

	r = dispatch(inst, sess, "PTTL", "k")
	assert.True(t, r.Piece.Int > 0 && r.Piece.Int <= 100000)

	r = dispatch(inst, sess, "PERSIST", "k")
	assert.Equal(t, codec.Integer(1), r.Piece)

	r = dispatch(inst, sess, "TTL", "k")
	assert.Equal(t, codec.Integer(-1), r.Piece)

	r = dispatch(inst, sess, "TTL", "missing")
	assert.Equal(t, codec.Integer(-2), r.Piece)
}

func TestExpireOptions(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "k", "v")

	// NX only sets a TTL when one is not already present.
	r := dispatch(inst, sess, "EXPIRE", "k", "100", "NX")
	assert.Equal(t, codec.Integer(1), r.Piece)
	r = dispatch(inst, sess, "EXPIRE", "k", "200", "NX")
	assert.Equal(t, codec.Integer(0), r.Piece)

	// XX only updates an existing TTL.
	r = dispatch(inst, sess, "EXPIRE", "k", "300", "XX")
	assert.Equal(t, codec.Integer(1), r.Piece)
	r = dispatch(inst, sess, "PERSIST", "k")
	assert.Equal(t, codec.Integer(1), r.Piece)
	r = dispatch(inst, sess, "EXPIRE", "k", "300", "XX")
	assert.Equal(t, codec.Integer(0), r.Piece)

	// GT only replaces a TTL with a strictly greater one.
	dispatch(inst, sess, "EXPIRE", "k", "100")
	r = dispatch(inst, sess, "EXPIRE", "k", "50", "GT")
	assert.Equal(t, codec.Integer(0), r.Piece)
	r = dispatch(inst, sess, "EXPIRE", "k", "1000", "GT")
	assert.Equal(t, codec.Integer(1), r.Piece)

	// LT only replaces a TTL with a strictly smaller one.
	r = dispatch(inst, sess, "EXPIRE", "k", "2000", "LT")
	assert.Equal(t, codec.Integer(0), r.Piece)
	r = dispatch(inst, sess, "EXPIRE", "k", "10", "LT")
	assert.Equal(t, codec.Integer(1), r.Piece)

	// NX is mutually exclusive with the others, GT with LT.
	r = dispatch(inst, sess, "EXPIRE", "k", "10", "NX", "GT")
	assert.Equal(t, codec.KindError, r.Piece.Kind)
	r = dispatch(inst, sess, "EXPIRE", "k", "10", "GT", "LT")
	assert.Equal(t, codec.KindError, r.Piece.Kind)
}

func TestObjectEncodingIdletimeRefcount(t *testing.T) {
	inst := newTestInstance()
	sess := keyspace.NewSession(1)

	dispatch(inst, sess, "SET", "int", "123")
	dispatch(inst, sess, "SET", "raw", "hello")

	r := dispatch(inst, sess, "OBJECT", "ENCODING", "int")
	assert.Equal(t, codec.BulkString("int"), r.Piece)

	r = dispatch(inst, sess, "OBJECT", "ENCODING", "raw")
	assert.Equal(t, codec.BulkString("raw"), r.Piece)

	r = dispatch(inst, sess, "OBJECT", "REFCOUNT", "raw")
	assert.Equal(t, codec.Integer(1), r.Piece)

	r = dispatch(inst, sess, "OBJECT", "IDLETIME", "missing")
	assert.Equal(t, codec.KindError, r.Piece.Kind)
}
