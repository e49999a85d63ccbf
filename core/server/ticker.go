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
	"redikv/core/keyspace"
	"redikv/core/pkg/logging"
)

// OnTicker fires once a second. The teacher used this cadence to poll a
// random cluster node for topology changes; there is no topology here,
// so the tick instead walks every database once, which both logs a
// liveness summary and reaps any keys whose TTL elapsed since the last
// access-triggered sweep (keyspace.Database.Len already does the
// reaping as it counts).
func (ls *listenServer) OnTicker() {
	now := keyspace.NowMs()
	databases := ls.inst.Databases()
	snapshot := make([]DatabaseStat, 0, len(databases))
	for _, db := range databases {
		n := db.Len(now)
		if n > 0 {
			logging.Debugf("db[%d] keys: %d", db.Index(), n)
		}
		snapshot = append(snapshot, DatabaseStat{Index: db.Index(), Keys: n})
	}
	dbSnapshot.Store(snapshot)
}
