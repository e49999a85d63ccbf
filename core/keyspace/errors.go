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

import "errors"

// ErrWrongType and ErrNoSuchKey are command-level error conditions
// distinct from wire/parse errors; handlers translate them into a
// codec.ErrorReply rather than tearing down the connection.
var (
	ErrWrongType  = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNoSuchKey  = errors.New("no such key")
	ErrNotInteger = errors.New("value is not an integer or out of range")
	ErrNoSuchDB   = errors.New("DB index is out of range")
)
