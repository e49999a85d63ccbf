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
	"github.com/stretchr/testify/require"

	"redikv/core/pkg/errors"
)

func decodeAll(t *testing.T, p *RequestParser, chunks ...[]byte) [][][]byte {
	t.Helper()
	var out [][][]byte
	for _, c := range chunks {
		var err error
		out, err = p.Feed(c, out)
		require.NoError(t, err)
	}
	return out
}

func TestRequestParserSingleShot(t *testing.T) {
	p := NewRequestParser(0, 0)
	reqs := decodeAll(t, p, []byte("*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"))
	require.Len(t, reqs, 1)
	assert.Equal(t, [][]byte{[]byte("GET"), []byte("foo")}, reqs[0])
}

func TestRequestParserArbitraryFragmentation(t *testing.T) {
	whole := []byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n")
	for split := 1; split < len(whole); split++ {
		p := NewRequestParser(0, 0)
		reqs := decodeAll(t, p, whole[:split], whole[split:])
		require.Len(t, reqs, 1, "split at %d", split)
		assert.Equal(t, [][]byte{[]byte("SET"), []byte("foo"), []byte("bar")}, reqs[0])
	}
}

func TestRequestParserByteAtATime(t *testing.T) {
	whole := []byte("*1\r\n$4\r\nPING\r\n")
	p := NewRequestParser(0, 0)
	var out [][][]byte
	var err error
	for _, b := range whole {
		out, err = p.Feed([]byte{b}, out)
		require.NoError(t, err)
	}
	require.Len(t, out, 1)
	assert.Equal(t, [][]byte{[]byte("PING")}, out[0])
}

func TestRequestParserPipelined(t *testing.T) {
	p := NewRequestParser(0, 0)
	reqs := decodeAll(t, p, []byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))
	require.Len(t, reqs, 2)
}

func TestRequestParserEmptyBulk(t *testing.T) {
	p := NewRequestParser(0, 0)
	reqs := decodeAll(t, p, []byte("*2\r\n$3\r\nGET\r\n$0\r\n\r\n"))
	require.Len(t, reqs, 1)
	assert.Equal(t, []byte{}, reqs[0][1])
}

func TestRequestParserRejectsBadType(t *testing.T) {
	p := NewRequestParser(0, 0)
	_, err := p.Feed([]byte("+OK\r\n"), nil)
	assert.ErrorIs(t, err, errors.ErrProtocolError)
}

func TestRequestParserRejectsOversizedBulk(t *testing.T) {
	p := NewRequestParser(4, 0)
	_, err := p.Feed([]byte("*1\r\n$10\r\n"), nil)
	assert.ErrorIs(t, err, errors.ErrBulkLenTooLarge)
}

func TestRequestParserResumesAfterCompletedRequest(t *testing.T) {
	p := NewRequestParser(0, 0)
	reqs := decodeAll(t, p, []byte("*1\r\n$4\r\nPING\r\n"))
	require.Len(t, reqs, 1)
	more := decodeAll(t, p, []byte("*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n"))
	require.Len(t, more, 1)
	assert.Equal(t, [][]byte{[]byte("ECHO"), []byte("hi")}, more[0])
}
