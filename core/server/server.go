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

package server

import (
	"redikv/core"
	"redikv/core/keyspace"
	"redikv/core/pkg/logging"
)

// NewListenServer builds the core.EventHandler that wires the reactor to
// a keyspace.Instance: every registered command family is already
// installed on inst by the caller (commands.Register), this type only
// glues connection lifecycle events to keyspace.Instance.Dispatch.
func NewListenServer(inst *keyspace.Instance, opts ...Option) *listenServer {
	return &listenServer{
		Options: loadOptions(opts...),
		inst:    inst,
	}
}

type listenServer struct {
	*core.BuiltinEventEngine

	*Options
	inst *keyspace.Instance
}

// OnBoot fires when redikv is ready for accepting connections.
func (ls *listenServer) OnBoot(eng core.Engine) (action core.Action) {
	logging.Infof("redikv accepting connections, %d databases", ls.inst.NumDatabases())
	return
}
