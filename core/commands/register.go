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

// Package commands implements the server's RESP command surface and
// registers every handler into a keyspace.Instance's command table.
package commands

import "redikv/core/keyspace"

// Register builds the full command table and installs it into inst. It
// is called once at boot, before the reactor starts accepting connections.
func Register(inst *keyspace.Instance) {
	registerConnectionCommands(inst)
	registerGenericCommands(inst)
	registerStringCommands(inst)
}

func reg(inst *keyspace.Instance, name string, arity int, h keyspace.Handler) {
	inst.Register(&keyspace.Command{Name: name, Arity: arity, Handler: h})
}
