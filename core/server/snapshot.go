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

import "sync/atomic"

// DatabaseStat is one numbered database's key count as of the last tick.
type DatabaseStat struct {
	Index int
	Keys  int
}

// dbSnapshot holds the result of the most recent OnTicker scan. It is
// written only from the reactor's loop goroutine and read only from the
// admin HTTP goroutine, so an atomic.Value swap (rather than a mutex)
// keeps the write off the hot loop entirely.
var dbSnapshot atomic.Value

func init() {
	dbSnapshot.Store([]DatabaseStat{})
}

// DatabaseSnapshot returns the key count per database as of the last
// second's tick, for the admin /keyspace endpoint.
func DatabaseSnapshot() []DatabaseStat {
	return dbSnapshot.Load().([]DatabaseStat)
}
