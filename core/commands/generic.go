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

func registerGenericCommands(inst *keyspace.Instance) {
	reg(inst, "del", -2, cmdDel)
	reg(inst, "exists", -2, cmdExists)
	reg(inst, "type", 2, cmdType)
	reg(inst, "touch", -2, cmdTouch)
	reg(inst, "rename", 3, cmdRename)
	reg(inst, "renamenx", 3, cmdRenameNX)
	reg(inst, "expire", -3, cmdExpire)
	reg(inst, "pexpire", -3, cmdPExpire)
	reg(inst, "expireat", -3, cmdExpireAt)
	reg(inst, "pexpireat", -3, cmdPExpireAt)
	reg(inst, "persist", 2, cmdPersist)
	reg(inst, "ttl", 2, cmdTTL)
	reg(inst, "pttl", 2, cmdPTTL)
	reg(inst, "object", -2, cmdObject)
}

func cmdDel(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	var n int64
	for _, k := range args[1:] {
		if db.Delete(string(k), now) {
			n++
		}
	}
	return codec.ReplyPiece(codec.Integer(n))
}

func cmdExists(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	var n int64
	for _, k := range args[1:] {
		if db.Peek(string(k), now) != nil {
			n++
		}
	}
	return codec.ReplyPiece(codec.Integer(n))
}

func cmdType(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	obj := sess.CurrentDB(inst).Peek(string(args[1]), keyspace.NowMs())
	if obj == nil {
		return codec.ReplyPiece(codec.SimpleString("none"))
	}
	return codec.ReplyPiece(codec.SimpleString(obj.Type().String()))
}

func cmdTouch(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	var n int64
	for _, k := range args[1:] {
		if db.Lookup(string(k), now) != nil {
			n++
		}
	}
	return codec.ReplyPiece(codec.Integer(n))
}

func cmdRename(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	if !db.Rename(string(args[1]), string(args[2]), keyspace.NowMs()) {
		return codec.ReplyPiece(codec.ErrorReply("ERR no such key"))
	}
	return codec.ReplyOK()
}

func cmdRenameNX(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	db := sess.CurrentDB(inst)
	now := keyspace.NowMs()
	if db.Peek(string(args[1]), now) == nil {
		return codec.ReplyPiece(codec.ErrorReply("ERR no such key"))
	}
	if db.Peek(string(args[2]), now) != nil {
		return codec.ReplyPiece(codec.Integer(0))
	}
	db.Rename(string(args[1]), string(args[2]), now)
	return codec.ReplyPiece(codec.Integer(1))
}

func parseExpireArg(raw []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(raw), 10, 64)
	return n, err == nil
}

// expireOptions holds the parsed NX/XX/GT/LT flags shared by the EXPIRE
// command family, mirroring cmdSet's inline option loop in string.go.
type expireOptions struct {
	nx, xx, gt, lt bool
}

func parseExpireOptions(args [][]byte) (expireOptions, *codec.Piece) {
	var opt expireOptions
	for i := 3; i < len(args); i++ {
		switch strings.ToLower(string(args[i])) {
		case "nx":
			opt.nx = true
		case "xx":
			opt.xx = true
		case "gt":
			opt.gt = true
		case "lt":
			opt.lt = true
		default:
			p := codec.ErrorReply("ERR Unsupported option " + string(args[i]))
			return opt, &p
		}
	}
	if opt.nx && (opt.xx || opt.gt || opt.lt) {
		p := codec.ErrorReply("ERR NX and XX, GT or LT options at the same time are not compatible")
		return opt, &p
	}
	if opt.gt && opt.lt {
		p := codec.ErrorReply("ERR GT and LT options at the same time are not compatible")
		return opt, &p
	}
	return opt, nil
}

// allows reports whether obj's current TTL state satisfies opt, given
// newPttl is the proposed new expiry in milliseconds-from-now (-1 meaning
// persistent). GT/LT compare against the object's current remaining TTL;
// a key with no TTL is treated as infinite for GT and as already satisfied
// for LT per the documented semantics.
func (opt expireOptions) allows(obj *keyspace.Object, now, newPttl int64) bool {
	hasTTL := obj.HasExpire()
	if opt.nx && hasTTL {
		return false
	}
	if opt.xx && !hasTTL {
		return false
	}
	if opt.gt {
		if !hasTTL {
			return false
		}
		return newPttl > obj.PTTL(now)
	}
	if opt.lt {
		if !hasTTL {
			return true
		}
		return newPttl < obj.PTTL(now)
	}
	return true
}

func cmdExpire(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	return setExpireSeconds(inst, sess, args, false)
}

func cmdPExpire(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	return setExpireMillis(inst, sess, args, false)
}

func cmdExpireAt(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	return setExpireSeconds(inst, sess, args, true)
}

func cmdPExpireAt(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	return setExpireMillis(inst, sess, args, true)
}

func setExpireSeconds(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte, at bool) codec.Reply {
	n, ok := parseExpireArg(args[2])
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
	}
	opt, errPiece := parseExpireOptions(args)
	if errPiece != nil {
		return codec.ReplyPiece(*errPiece)
	}
	now := keyspace.NowMs()
	obj := sess.CurrentDB(inst).Peek(string(args[1]), now)
	if obj == nil {
		return codec.ReplyPiece(codec.Integer(0))
	}
	pttl := n * 1000
	if at {
		pttl -= now
	}
	if !opt.allows(obj, now, pttl) {
		return codec.ReplyPiece(codec.Integer(0))
	}
	obj.SetPTTL(now, pttl)
	return codec.ReplyPiece(codec.Integer(1))
}

func setExpireMillis(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte, at bool) codec.Reply {
	n, ok := parseExpireArg(args[2])
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
	}
	opt, errPiece := parseExpireOptions(args)
	if errPiece != nil {
		return codec.ReplyPiece(*errPiece)
	}
	now := keyspace.NowMs()
	obj := sess.CurrentDB(inst).Peek(string(args[1]), now)
	if obj == nil {
		return codec.ReplyPiece(codec.Integer(0))
	}
	pttl := n
	if at {
		pttl -= now
	}
	if !opt.allows(obj, now, pttl) {
		return codec.ReplyPiece(codec.Integer(0))
	}
	obj.SetPTTL(now, pttl)
	return codec.ReplyPiece(codec.Integer(1))
}

func cmdPersist(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	now := keyspace.NowMs()
	obj := sess.CurrentDB(inst).Peek(string(args[1]), now)
	if obj == nil || !obj.HasExpire() {
		return codec.ReplyPiece(codec.Integer(0))
	}
	obj.SetPTTL(now, -1)
	return codec.ReplyPiece(codec.Integer(1))
}

func cmdTTL(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	now := keyspace.NowMs()
	obj := sess.CurrentDB(inst).Peek(string(args[1]), now)
	if obj == nil {
		return codec.ReplyPiece(codec.Integer(-2))
	}
	pttl := obj.PTTL(now)
	if pttl < 0 {
		return codec.ReplyPiece(codec.Integer(pttl))
	}
	return codec.ReplyPiece(codec.Integer((pttl + 999) / 1000))
}

func cmdPTTL(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	now := keyspace.NowMs()
	obj := sess.CurrentDB(inst).Peek(string(args[1]), now)
	if obj == nil {
		return codec.ReplyPiece(codec.Integer(-2))
	}
	return codec.ReplyPiece(codec.Integer(obj.PTTL(now)))
}

func cmdObject(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	if len(args) < 3 {
		return codec.ReplyPiece(codec.ErrorReply("ERR wrong number of arguments for 'object' command"))
	}
	sub := strings.ToLower(string(args[1]))
	now := keyspace.NowMs()
	obj := sess.CurrentDB(inst).Peek(string(args[2]), now)
	if obj == nil {
		return codec.ReplyPiece(codec.ErrorReply("ERR no such key"))
	}
	switch sub {
	case "encoding":
		return codec.ReplyPiece(codec.BulkString(obj.Encoding().String()))
	case "idletime":
		return codec.ReplyPiece(codec.Integer(obj.IdleTimeSeconds(now)))
	case "refcount":
		return codec.ReplyPiece(codec.Integer(1))
	default:
		return codec.ReplyPiece(codec.ErrorReply("ERR unknown subcommand or wrong number of arguments for '" + sub + "'"))
	}
}
