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
	"strconv"
	"strings"

	"redikv/core/codec"
	"redikv/core/keyspace"
)

func registerStringCommands(inst *keyspace.Instance) {
	reg(inst, "get", 2, cmdGet)
	reg(inst, "set", -3, cmdSet)
	reg(inst, "append", 3, cmdAppend)
	reg(inst, "strlen", 2, cmdStrlen)
	reg(inst, "getdel", 2, cmdGetDel)
	reg(inst, "getrange", 4, cmdGetRange)
	reg(inst, "incr", 2, cmdIncr)
	reg(inst, "decr", 2, cmdDecr)
	reg(inst, "incrby", 3, cmdIncrBy)
	reg(inst, "decrby", 3, cmdDecrBy)
	reg(inst, "mget", -2, cmdMGet)
	reg(inst, "mset", -3, cmdMSet)
	reg(inst, "msetnx", -3, cmdMSetNX)
}

// stringObj fetches key, reporting a WRONGTYPE error via ok=false when it
// exists but is not a string.
func stringObj(db *keyspace.Database, key string, now int64) (*keyspace.Object, bool) {
	obj := db.Lookup(key, now)
	if obj == nil {
		return nil, true
	}
	if obj.Type() != keyspace.TypeString {
		return nil, false
	}
	return obj, true
}

func cmdGet(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	obj, ok := stringObj(db, string(args[1]), keyspace.NowMs())
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrWrongType.Error()))
	}
	if obj == nil {
		return codec.ReplyPiece(codec.NullBulkString())
	}
	return codec.ReplyPiece(codec.BulkString(obj.Str()))
}

func cmdSet(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	key, val := string(args[1]), string(args[2])

	var pttl int64 = -1
	var nx, xx bool
	for i := 3; i < len(args); i++ {
		opt := strings.ToLower(string(args[i]))
		switch opt {
		case "nx":
			nx = true
		case "xx":
			xx = true
		case "ex", "px":
			i++
			if i >= len(args) {
				return codec.ReplyPiece(codec.ErrorReply("ERR syntax error"))
			}
			n, err := strconv.ParseInt(string(args[i]), 10, 64)
			if err != nil {
				return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
			}
			if opt == "ex" {
				n *= 1000
			}
			pttl = n
		default:
			return codec.ReplyPiece(codec.ErrorReply("ERR syntax error"))
		}
	}

	exists := db.Peek(key, now) != nil
	if nx && exists {
		return codec.ReplyPiece(codec.NullBulkString())
	}
	if xx && !exists {
		return codec.ReplyPiece(codec.NullBulkString())
	}

	obj := keyspace.NewString(val, now)
	if pttl >= 0 {
		obj.SetPTTL(now, pttl)
	}
	db.Set(key, obj)
	return codec.ReplyOK()
}

func cmdAppend(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	obj, ok := stringObj(db, string(args[1]), now)
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrWrongType.Error()))
	}
	suffix := string(args[2])
	if obj == nil {
		db.Set(string(args[1]), keyspace.NewString(suffix, now))
		return codec.ReplyPiece(codec.Integer(int64(len(suffix))))
	}
	merged := obj.Str() + suffix
	db.Set(string(args[1]), keyspace.NewString(merged, now))
	return codec.ReplyPiece(codec.Integer(int64(len(merged))))
}

func cmdStrlen(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	obj, ok := stringObj(sess.CurrentDB(inst), string(args[1]), keyspace.NowMs())
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrWrongType.Error()))
	}
	if obj == nil {
		return codec.ReplyPiece(codec.Integer(0))
	}
	return codec.ReplyPiece(codec.Integer(int64(len(obj.Str()))))
}

func cmdGetDel(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	obj, ok := stringObj(db, string(args[1]), now)
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrWrongType.Error()))
	}
	if obj == nil {
		return codec.ReplyPiece(codec.NullBulkString())
	}
	val := obj.Str()
	db.Delete(string(args[1]), now)
	return codec.ReplyPiece(codec.BulkString(val))
}

func cmdGetRange(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	obj, ok := stringObj(sess.CurrentDB(inst), string(args[1]), keyspace.NowMs())
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrWrongType.Error()))
	}
	if obj == nil {
		return codec.ReplyPiece(codec.BulkString(""))
	}
	start, err1 := strconv.Atoi(string(args[2]))
	end, err2 := strconv.Atoi(string(args[3]))
	if err1 != nil || err2 != nil {
		return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
	}
	s := obj.Str()
	start, end = normalizeRange(start, end, len(s))
	if start > end || len(s) == 0 {
		return codec.ReplyPiece(codec.BulkString(""))
	}
	return codec.ReplyPiece(codec.BulkString(s[start : end+1]))
}

func normalizeRange(start, end, length int) (int, int) {
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	return start, end
}

func cmdIncr(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	return incrBy(inst, sess, string(args[1]), 1)
}

func cmdDecr(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	return incrBy(inst, sess, string(args[1]), -1)
}

func cmdIncrBy(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
	}
	return incrBy(inst, sess, string(args[1]), n)
}

func cmdDecrBy(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	n, err := strconv.ParseInt(string(args[2]), 10, 64)
	if err != nil {
		return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
	}
	return incrBy(inst, sess, string(args[1]), -n)
}

func incrBy(inst *keyspace.Instance, sess *keyspace.Session, key string, delta int64) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	obj, ok := stringObj(db, key, now)
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrWrongType.Error()))
	}
	var cur int64
	if obj != nil {
		n, err := strconv.ParseInt(obj.Str(), 10, 64)
		if err != nil {
			return codec.ReplyPiece(codec.ErrorReply(keyspace.ErrNotInteger.Error()))
		}
		cur = n
	}
	next := cur + delta
	fresh := keyspace.NewInt(next, now)
	if obj != nil {
		fresh.SetPTTL(now, obj.PTTL(now))
	}
	db.Set(key, fresh)
	return codec.ReplyPiece(codec.Integer(next))
}

func cmdMGet(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	items := make([]codec.Piece, 0, len(args)-1)
	for _, k := range args[1:] {
		obj, ok := stringObj(db, string(k), now)
		if !ok || obj == nil {
			items = append(items, codec.NullBulkString())
			continue
		}
		items = append(items, codec.BulkString(obj.Str()))
	}
	return codec.ReplyPiece(codec.Array(items...))
}

func cmdMSet(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	if (len(args)-1)%2 != 0 {
		return codec.ReplyPiece(codec.ErrorReply("ERR wrong number of arguments for 'mset' command"))
	}
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	for i := 1; i < len(args); i += 2 {
		db.Set(string(args[i]), keyspace.NewString(string(args[i+1]), now))
	}
	return codec.ReplyOK()
}

func cmdMSetNX(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	if (len(args)-1)%2 != 0 {
		return codec.ReplyPiece(codec.ErrorReply("ERR wrong number of arguments for 'msetnx' command"))
	}
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	for i := 1; i < len(args); i += 2 {
		if db.Peek(string(args[i]), now) != nil {
			return codec.ReplyPiece(codec.Integer(0))
		}
	}
	for i := 1; i < len(args); i += 2 {
		db.Set(string(args[i]), keyspace.NewString(string(args[i+1]), now))
	}
	return codec.ReplyPiece(codec.Integer(1))
}
