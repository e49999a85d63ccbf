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
	"fmt"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// Kind identifies which of the five RESP reply variants a Piece holds.
type Kind byte

const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
)

// Piece is a RESP reply value. It is a tagged struct rather than an
// interface hierarchy: one of Str/Int/Items is meaningful depending on
// Kind, and Null distinguishes a nil bulk string/array from an empty one.
type Piece struct {
	Kind  Kind
	Str   string
	Int   int64
	Null  bool
	Items []Piece
}

func SimpleString(s string) Piece { return Piece{Kind: KindSimpleString, Str: s} }
func ErrorReply(s string) Piece   { return Piece{Kind: KindError, Str: s} }
func Integer(n int64) Piece       { return Piece{Kind: KindInteger, Int: n} }
func BulkString(s string) Piece   { return Piece{Kind: KindBulkString, Str: s} }
func NullBulkString() Piece       { return Piece{Kind: KindBulkString, Null: true} }
func Array(items ...Piece) Piece  { return Piece{Kind: KindArray, Items: items} }
func NullArray() Piece            { return Piece{Kind: KindArray, Null: true} }

// OK and PONG are the two canned simple-string replies every connection
// and generic command handler reaches for.
var (
	OK   = SimpleString("OK")
	PONG = SimpleString("PONG")
)

// Serialize appends the wire form of p to buf.
func (p Piece) Serialize(buf *bytebufferpool.ByteBuffer) {
	switch p.Kind {
	case KindSimpleString, KindError:
		_ = buf.WriteByte(byte(p.Kind))
		_, _ = buf.WriteString(p.Str)
		_, _ = buf.WriteString("\r\n")
	case KindInteger:
		_ = buf.WriteByte(byte(KindInteger))
		_, _ = buf.WriteString(strconv.FormatInt(p.Int, 10))
		_, _ = buf.WriteString("\r\n")
	case KindBulkString:
		_ = buf.WriteByte(byte(KindBulkString))
		if p.Null {
			_, _ = buf.WriteString("-1\r\n")
			return
		}
		_, _ = buf.WriteString(strconv.Itoa(len(p.Str)))
		_, _ = buf.WriteString("\r\n")
		_, _ = buf.WriteString(p.Str)
		_, _ = buf.WriteString("\r\n")
	case KindArray:
		_ = buf.WriteByte(byte(KindArray))
		if p.Null {
			_, _ = buf.WriteString("-1\r\n")
			return
		}
		_, _ = buf.WriteString(strconv.Itoa(len(p.Items)))
		_, _ = buf.WriteString("\r\n")
		for _, item := range p.Items {
			item.Serialize(buf)
		}
	}
}

// Bytes renders p into a freshly allocated slice, borrowing a pooled
// scratch buffer for the intermediate write.
func (p Piece) Bytes() []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	p.Serialize(buf)
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out
}

// Reply pairs a Piece with whether the connection should be torn down
// once it has been flushed to the peer, mirroring the close flag a
// command handler attaches to a QUIT response.
type Reply struct {
	Piece      Piece
	CloseAfter bool
}

func ReplyOK() Reply                { return Reply{Piece: OK} }
func ReplyPiece(p Piece) Reply      { return Reply{Piece: p} }
func ReplyAndClose(p Piece) Reply   { return Reply{Piece: p, CloseAfter: true} }
func ReplyErrorf(format string, a ...interface{}) Reply {
	return Reply{Piece: ErrorReply(fmt.Sprintf(format, a...))}
}
