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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPieceSerialize(t *testing.T) {
	cases := []struct {
		name string
		p    Piece
		want string
	}{
		{"simple string", SimpleString("OK"), "+OK\r\n"},
		{"error", ErrorReply("ERR bad"), "-ERR bad\r\n"},
		{"integer", Integer(42), ":42\r\n"},
		{"bulk string", BulkString("foo"), "$3\r\nfoo\r\n"},
		{"empty bulk string", BulkString(""), "$0\r\n\r\n"},
		{"null bulk string", NullBulkString(), "$-1\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{"empty array", Array(), "*0\r\n"},
		{"array of bulk strings", Array(BulkString("a"), BulkString("bc")), "*2\r\n$1\r\na\r\n$2\r\nbc\r\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, string(c.p.Bytes()))
		})
	}
}
