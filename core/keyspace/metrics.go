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

import "github.com/prometheus/client_golang/prometheus"

// ExpiredKeys counts keys reaped lazily at access time across every
// database. It lives next to Database rather than in core/stats.go
// because the reaping itself happens here, at the point of discovery,
// not in the reactor that merely calls into the keyspace.
var ExpiredKeys = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "redikv",
	Name:      "expired_keys_total",
	Help:      "keys reaped lazily because their TTL had elapsed",
})

func init() {
	prometheus.MustRegister(ExpiredKeys)
}
