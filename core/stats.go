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

package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var GlobalStats ServerStats

// ServerStats is the whole process's Prometheus surface. It replaces the
// teacher's ProxyStats: there is no backend Redis to track ejects/forwards
// against, so those vectors drop out, and TimeoutTree (the GoLLRB request
// timeout queue's health gauge) drops out along with the queue itself,
// since this server never issues a request it has to time out.
type ServerStats struct {
	Request *prometheus.HistogramVec

	TotalConnections     *prometheus.CounterVec
	CurrConnections      *prometheus.GaugeVec
	ConnectionsClosedEOF *prometheus.CounterVec
	ConnectionsClosedErr *prometheus.CounterVec

	CommandsProcessed *prometheus.CounterVec
	SlowCommands      *prometheus.CounterVec
}

func init() {
	GlobalStats = NewServerStats("redikv")
}

func NewServerStats(namespace string) ServerStats {
	stats := ServerStats{
		TotalConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_connections",
			Help:      "total connections accepted since startup",
		}, nil),
		CurrConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "curr_connections",
			Help:      "currently open connections",
		}, nil),
		ConnectionsClosedEOF: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_eof",
			Help:      "connections closed because the peer closed first",
		}, nil),
		ConnectionsClosedErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_err",
			Help:      "connections closed due to a socket or protocol error",
		}, nil),
		CommandsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_processed",
			Help:      "commands dispatched, labeled by command name",
		}, []string{"cmd"}),
		SlowCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_commands",
			Help:      "commands whose dispatch time exceeded the configured slowlog threshold",
		}, []string{"cmd"}),
		Request: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_microseconds",
			Help:      "time spent dispatching a single command",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}, nil),
	}
	prometheus.MustRegister(
		stats.TotalConnections, stats.CurrConnections,
		stats.ConnectionsClosedEOF, stats.ConnectionsClosedErr,
		stats.CommandsProcessed, stats.SlowCommands, stats.Request,
	)
	return stats
}

// ReqCmdIncr records one dispatch of cmd, and additionally counts it as
// slow if elapsed is at or beyond threshold (microseconds); threshold <= 0
// disables slow-command tracking, matching SlowlogSlowerThan's semantics.
func (s *ServerStats) ReqCmdIncr(cmd string, elapsed time.Duration, threshold int64) {
	s.CommandsProcessed.WithLabelValues(cmd).Inc()
	if threshold > 0 && elapsed.Microseconds() >= threshold {
		s.SlowCommands.WithLabelValues(cmd).Inc()
	}
}

// refreshConnCount updates the current-connections gauge from the live
// event-loop connection count; called from the ticker rather than on
// every open/close to keep the hot path free of gauge writes.
func refreshConnCount() {
	if EngineGlobal == nil || EngineGlobal.eng == nil || EngineGlobal.eng.el == nil {
		return
	}
	GlobalStats.CurrConnections.WithLabelValues().Set(float64(EngineGlobal.eng.el.loadConnCount()))
}
