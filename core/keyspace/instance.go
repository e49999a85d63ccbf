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

import (
	"strings"
	"time"

	"redikv/core/codec"
	"redikv/core/pkg/constant"
)

// Handler implements one RESP command. args[0] is the command name as the
// client sent it (kept for logging); args[1:] are its arguments.
type Handler func(inst *Instance, sess *Session, args [][]byte) codec.Reply

// Command is a registry entry. Arity counts the name itself as one
// argument and follows Redis's own convention: a non-negative arity is the
// exact argument count, a negative one is the minimum for variadic commands.
type Command struct {
	Name    string
	Arity   int
	Handler Handler
}

// Instance is the whole server's keyspace: every numbered database plus
// the command registry built once at boot by commands.Register. There is
// exactly one Instance per process; it is mutated only from the reactor's
// loop goroutine, so it carries no internal locking.
type Instance struct {
	databases []*Database
	registry  map[string]*Command
}

// NewInstance allocates numDatabases empty databases, falling back to
// constant.DefaultDatabases when numDatabases is not positive.
func NewInstance(numDatabases int) *Instance {
	if numDatabases <= 0 {
		numDatabases = constant.DefaultDatabases
	}
	inst := &Instance{
		databases: make([]*Database, numDatabases),
		registry:  make(map[string]*Command),
	}
	for i := range inst.databases {
		inst.databases[i] = newDatabase(i)
	}
	return inst
}

func (inst *Instance) NumDatabases() int { return len(inst.databases) }

// Database returns the numbered database, or nil if index is out of range.
func (inst *Instance) Database(index int) *Database {
	if index < 0 || index >= len(inst.databases) {
		return nil
	}
	return inst.databases[index]
}

// Databases returns every database, for the admin keyspace endpoint.
func (inst *Instance) Databases() []*Database { return inst.databases }

// Register installs cmd under its lower-cased name, the same normalization
// Dispatch applies to incoming command names.
func (inst *Instance) Register(cmd *Command) {
	inst.registry[strings.ToLower(cmd.Name)] = cmd
}

// Lookup returns the registered command for name, case-insensitively.
func (inst *Instance) Lookup(name string) (*Command, bool) {
	cmd, ok := inst.registry[strings.ToLower(name)]
	return cmd, ok
}

// Dispatch resolves args[0] against the registry and invokes its handler,
// replying with an unknown-command or wrong-arity error itself when the
// request does not resolve to a runnable command. There is no per-command
// virtual dispatch: every command, no matter its arity or side effects,
// flows through this one map lookup.
func (inst *Instance) Dispatch(sess *Session, args [][]byte) codec.Reply {
	if len(args) == 0 {
		return codec.ReplyPiece(codec.ErrorReply("ERR empty command"))
	}
	name := strings.ToLower(string(args[0]))
	cmd, ok := inst.registry[name]
	if !ok {
		return codec.ReplyPiece(codec.ErrorReply(unknownCommandError(args)))
	}
	if !arityOK(cmd.Arity, len(args)) {
		return codec.ReplyPiece(codec.ErrorReply("ERR wrong number of arguments for '" + name + "' command"))
	}
	return cmd.Handler(inst, sess, args)
}

// unknownCommandError builds the Redis-style unknown-command diagnostic,
// including the offending command's arguments so a caller can tell two
// differently-misspelled commands apart in a log.
func unknownCommandError(args [][]byte) string {
	var b strings.Builder
	b.WriteString("ERR unknown command '")
	b.WriteString(string(args[0]))
	b.WriteString("', with args beginning with: ")
	for _, a := range args[1:] {
		b.WriteByte('\'')
		b.Write(a)
		b.WriteString("' ")
	}
	return b.String()
}

func arityOK(arity, argc int) bool {
	if arity >= 0 {
		return argc == arity
	}
	return argc >= -arity
}

// NowMs is the millisecond monotone epoch timestamp every TTL and idle
// time computation in the keyspace is measured against.
func NowMs() int64 { return time.Now().UnixMilli() }
