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

package errors

import "errors"

var (
	// ErrEngineShutdown occurs when server is closing.
	ErrEngineShutdown = errors.New("server is going to be shutdown")
	// ErrEngineInShutdown occurs when attempting to shut the server down more than once.
	ErrEngineInShutdown = errors.New("server is already in shutdown")
	// ErrAcceptSocket occurs when acceptor does not accept the new connection properly.
	ErrAcceptSocket = errors.New("accept a new connection error")
	// ErrUnsupportedProtocol occurs when trying to use a listen protocol that is not supported.
	ErrUnsupportedProtocol = errors.New("only tcp/tcp4/tcp6 are supported")

	// ================================================= codec errors =================================================.

	// ErrIncompletePacket is not returned by codec.RequestParser: a request
	// that spans more than the bytes delivered so far is kept as parser state,
	// without an error, and resumed on the next read.
	ErrIncompletePacket = errors.New("incomplete packet")
	// ErrProtocolError occurs when the byte stream does not conform to RESP
	// at the parser's current state.
	ErrProtocolError = errors.New("protocol error")
	// ErrBulkLenTooLarge occurs when a bulk string or array length exceeds
	// the configured maximum.
	ErrBulkLenTooLarge = errors.New("bulk length exceeds limit")
)
