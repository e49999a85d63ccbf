// Copyright (c) 2022 The rcproxy Authors
// Copyright (c) 2019 Andy Pan
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
)

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	return opts
}

// TCPSocketOpt is the type of TCP socket options.
type TCPSocketOpt int

// Options are configurations for the reactor engine.
type Options struct {
	// ReadBufferCap is the maximum number of bytes that can be read from the peer when the readable event comes.
	// The default value is 64KB, it can either be reduced to avoid starving the subsequent connections or increased
	// to read more data from a socket.
	//
	// The read buffer is allocated at exactly this size; the value is not rounded.
	ReadBufferCap int

	// WriteBufferCap defaults to 64KB in Run but is not read anywhere else: a connection's outbound buffer
	// grows without a cap while the peer applies backpressure.
	WriteBufferCap int

	// TCPKeepAlive sets up a duration for (SO_KEEPALIVE) socket option.
	TCPKeepAlive time.Duration

	// SocketRecvBuffer sets the maximum socket receive buffer in bytes.
	SocketRecvBuffer int

	// SocketSendBuffer sets the maximum socket send buffer in bytes.
	SocketSendBuffer int

	// ============================= Options for the keyspace engine =============================

	// MaxBulkLen is the maximum length in bytes the RESP parser accepts
	// for a single bulk string.
	MaxBulkLen int

	// MaxArrayLen is the maximum number of elements the RESP parser
	// accepts in a single request array.
	MaxArrayLen int

	// SlowlogSlowerThan is stored but not read by the reactor; the slow-log
	// threshold that takes effect is server.Options.SlowlogSlowerThan.
	SlowlogSlowerThan int64
}

// WithTCPKeepAlive sets up the SO_KEEPALIVE socket option with duration.
func WithTCPKeepAlive(tcpKeepAlive time.Duration) Option {
	return func(opts *Options) {
		opts.TCPKeepAlive = tcpKeepAlive
	}
}

// WithSocketRecvBuffer sets the maximum socket receive buffer in bytes.
func WithSocketRecvBuffer(recvBuf int) Option {
	return func(opts *Options) {
		opts.SocketRecvBuffer = recvBuf
	}
}

// WithSocketSendBuffer sets the maximum socket send buffer in bytes.
func WithSocketSendBuffer(sendBuf int) Option {
	return func(opts *Options) {
		opts.SocketSendBuffer = sendBuf
	}
}

// WithMaxBulkLen sets up the maximum allowed RESP bulk string length.
func WithMaxBulkLen(length int) Option {
	return func(opts *Options) {
		opts.MaxBulkLen = length
	}
}

// WithMaxArrayLen sets up the maximum allowed RESP request array length.
func WithMaxArrayLen(length int) Option {
	return func(opts *Options) {
		opts.MaxArrayLen = length
	}
}

// WithSlowlogSlowerThan sets up the slow log threshold in microseconds.
func WithSlowlogSlowerThan(num int64) Option {
	return func(opts *Options) {
		opts.SlowlogSlowerThan = num
	}
}
