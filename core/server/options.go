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

type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	return opts
}

type Options struct {
	// SlowlogSlowerThan is the dispatch-time threshold, in microseconds,
	// above which a command is also counted in GlobalStats.SlowCommands.
	// Zero or negative disables slow-command tracking.
	SlowlogSlowerThan int64
}

func WithSlowlogSlowerThan(microseconds int64) Option {
	return func(opts *Options) {
		opts.SlowlogSlowerThan = microseconds
	}
}
