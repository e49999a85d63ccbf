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

func registerConnectionCommands(inst *keyspace.Instance) {
	reg(inst, "ping", -1, cmdPing)
	reg(inst, "echo", 2, cmdEcho)
	reg(inst, "quit", 1, cmdQuit)
	reg(inst, "select", 2, cmdSelect)
	reg(inst, "client", -2, cmdClient)
}

func cmdPing(_ *keyspace.Instance, _ *keyspace.Session, args [][]byte) codec.Reply {
	if len(args) > 2 {
		return codec.ReplyPiece(codec.ErrorReply("ERR wrong number of arguments for 'ping' command"))
	}
	if len(args) == 2 {
		return codec.ReplyPiece(codec.BulkString(string(args[1])))
	}
	return codec.ReplyPiece(codec.PONG)
}

func cmdEcho(_ *keyspace.Instance, _ *keyspace.Session, args [][]byte) codec.Reply {
	return codec.ReplyPiece(codec.BulkString(string(args[1])))
}

func cmdQuit(_ *keyspace.Instance, _ *keyspace.Session, _ [][]byte) codec.Reply {
	return codec.ReplyAndClose(codec.OK)
}

func cmdSelect(inst *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	index, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return codec.ReplyPiece(codec.ErrorReply("ERR value is not an integer or out of range"))
	}
	if !sess.SelectDB(inst, index) {
		return codec.ReplyPiece(codec.ErrorReply("ERR DB index is out of range"))
	}
	return codec.ReplyOK()
}

func cmdClient(_ *keyspace.Instance, sess *keyspace.Session, args [][]byte) codec.Reply {
	sub := strings.ToLower(string(args[1]))
	switch sub {
	case "setname":
		if len(args) != 3 {
			return codec.ReplyPiece(codec.ErrorReply("ERR wrong number of arguments for 'client|setname' command"))
		}
		sess.Name = string(args[2])
		return codec.ReplyOK()
	case "getname":
		if sess.Name == "" {
			return codec.ReplyPiece(codec.NullBulkString())
		}
		return codec.ReplyPiece(codec.BulkString(sess.Name))
	case "id":
		return codec.ReplyPiece(codec.Integer(int64(sess.ID)))
	default:
		return codec.ReplyPiece(codec.ErrorReply("ERR unknown subcommand or wrong number of arguments for '" + sub + "'"))
	}
}
