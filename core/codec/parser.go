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
	"redikv/core/pkg/constant"
	"redikv/core/pkg/errors"
)

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

type bulkState int

const (
	bsTypeChar bulkState = iota
	bsLenFirstNum
	bsLen
	bsLenN
	bsData
	bsR
	bsN
)

// bulkStringParser consumes one RESP bulk string ("$<len>\r\n<data>\r\n")
// a single byte at a time, resuming from wherever it left off across calls.
type bulkStringParser struct {
	state     bulkState
	value     []byte
	targetLen uint64
}

func (p *bulkStringParser) reset() {
	p.state = bsTypeChar
	p.value = p.value[:0]
	p.targetLen = 0
}

func (p *bulkStringParser) step(ch byte, maxBulkLen uint64) (completed bool, err error) {
	switch p.state {
	case bsTypeChar:
		if ch != '$' {
			return false, errors.ErrProtocolError
		}
		p.state = bsLenFirstNum
	case bsLenFirstNum:
		if !isDigit(ch) {
			return false, errors.ErrProtocolError
		}
		p.targetLen = uint64(ch - '0')
		p.state = bsLen
	case bsLen:
		switch {
		case isDigit(ch):
			if p.targetLen > maxBulkLen/10 {
				return false, errors.ErrBulkLenTooLarge
			}
			p.targetLen = p.targetLen*10 + uint64(ch-'0')
		case ch == '\r':
			if p.targetLen > maxBulkLen {
				return false, errors.ErrBulkLenTooLarge
			}
			p.state = bsLenN
		default:
			return false, errors.ErrProtocolError
		}
	case bsLenN:
		if ch != '\n' {
			return false, errors.ErrProtocolError
		}
		if uint64(cap(p.value)) < p.targetLen {
			p.value = make([]byte, 0, p.targetLen)
		}
		if p.targetLen == 0 {
			p.state = bsR
		} else {
			p.state = bsData
		}
	case bsData:
		p.value = append(p.value, ch)
		if uint64(len(p.value)) == p.targetLen {
			p.state = bsR
		}
	case bsR:
		if ch != '\r' {
			return false, errors.ErrProtocolError
		}
		p.state = bsN
	case bsN:
		if ch != '\n' {
			return false, errors.ErrProtocolError
		}
		return true, nil
	}
	return false, nil
}

type reqState int

const (
	reqArrayChar reqState = iota
	reqArrayLenFirstNum
	reqArrayLen
	reqArrayN
	reqStr
)

// RequestParser turns a byte stream into a sequence of requests, each a
// slice of argument byte strings (RESP arrays of bulk strings). It is
// resumable: Feed may be called with arbitrarily small fragments of the
// stream, including a single byte at a time, and state survives across
// calls. A request never straddles a reset: once Feed returns a completed
// request, the parser is ready to decode the next one from byte zero.
type RequestParser struct {
	state       reqState
	bulk        bulkStringParser
	args        [][]byte
	arrayLen    uint64
	strCount    uint64
	maxBulkLen  uint64
	maxArrayLen uint64
}

// NewRequestParser builds a parser bounding bulk-string and array lengths.
// A zero limit falls back to the package defaults.
func NewRequestParser(maxBulkLen, maxArrayLen int) *RequestParser {
	if maxBulkLen <= 0 {
		maxBulkLen = constant.MaxBulkLen
	}
	if maxArrayLen <= 0 {
		maxArrayLen = constant.MaxArrayLen
	}
	p := &RequestParser{
		maxBulkLen:  uint64(maxBulkLen),
		maxArrayLen: uint64(maxArrayLen),
	}
	p.reset()
	return p
}

func (p *RequestParser) reset() {
	p.state = reqArrayChar
	p.bulk.reset()
	p.args = p.args[:0]
	p.arrayLen = 0
	p.strCount = 0
}

// Feed consumes buf byte by byte, appending each argument vector produced
// to out, and returns the extended slice. A non-nil error means buf (or an
// earlier fragment) violated RESP; the parser's internal state at that
// point is undefined and it should be discarded along with the connection.
func (p *RequestParser) Feed(buf []byte, out [][][]byte) ([][][]byte, error) {
	for _, ch := range buf {
		completed, err := p.step(ch)
		if err != nil {
			return out, err
		}
		if !completed {
			continue
		}
		req := make([][]byte, len(p.args))
		for i, a := range p.args {
			cp := make([]byte, len(a))
			copy(cp, a)
			req[i] = cp
		}
		out = append(out, req)
		p.reset()
	}
	return out, nil
}

func (p *RequestParser) step(ch byte) (bool, error) {
	switch p.state {
	case reqArrayChar:
		if ch != '*' {
			return false, errors.ErrProtocolError
		}
		p.state = reqArrayLenFirstNum
	case reqArrayLenFirstNum:
		if !isDigit(ch) {
			return false, errors.ErrProtocolError
		}
		p.arrayLen = uint64(ch - '0')
		p.state = reqArrayLen
	case reqArrayLen:
		switch {
		case isDigit(ch):
			if p.arrayLen > p.maxArrayLen/10 {
				return false, errors.ErrBulkLenTooLarge
			}
			p.arrayLen = p.arrayLen*10 + uint64(ch-'0')
		case ch == '\r':
			if p.arrayLen == 0 {
				return false, errors.ErrProtocolError
			}
			if p.arrayLen > p.maxArrayLen {
				return false, errors.ErrBulkLenTooLarge
			}
			p.state = reqArrayN
		default:
			return false, errors.ErrProtocolError
		}
	case reqArrayN:
		if ch != '\n' {
			return false, errors.ErrProtocolError
		}
		p.state = reqStr
		p.bulk.reset()
	case reqStr:
		completed, err := p.bulk.step(ch, p.maxBulkLen)
		if err != nil {
			return false, err
		}
		if !completed {
			return false, nil
		}
		value := make([]byte, len(p.bulk.value))
		copy(value, p.bulk.value)
		p.args = append(p.args, value)
		p.strCount++
		p.bulk.reset()
		if p.strCount == p.arrayLen {
			return true, nil
		}
	}
	return false, nil
}
