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

import (
	"container/list"
	"math"
	"strconv"
)

// Type is the logical value type a client sees from the TYPE command.
type Type int

const (
	TypeString Type = iota
	TypeList
	TypeHash
	TypeSet
	TypeZSet
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeHash:
		return "hash"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	default:
		return "none"
	}
}

// Encoding is the physical representation backing an Object. A string
// value is encoded as Int when it parses as a base-10 int64 that fits the
// 64-bit range and Raw otherwise, matching the distinction Redis itself
// draws between "int" and "raw"/"embstr" string encodings.
type Encoding int

const (
	EncodingInt Encoding = iota
	EncodingRaw
	EncodingLinkedList
	EncodingHashTable
	EncodingHashSet
	EncodingSortedSet
)

func (e Encoding) String() string {
	switch e {
	case EncodingInt:
		return "int"
	case EncodingRaw:
		return "raw"
	case EncodingLinkedList:
		return "linkedlist"
	case EncodingHashTable:
		return "hashtable"
	case EncodingHashSet:
		return "hashset"
	case EncodingSortedSet:
		return "skiplist"
	default:
		return "unknown"
	}
}

// noExpire is the expire_time_ sentinel the original implementation uses
// for "never expires": the maximum representable millisecond timestamp.
const noExpire = math.MaxInt64

// Object is a tagged union over the value encodings a key can hold. It
// replaces the polymorphic class hierarchy of the C++ source with a single
// Go struct carrying one live field set per encoding, selected by Encoding.
type Object struct {
	typ      Type
	encoding Encoding

	accessTimeMs int64
	expireTimeMs int64

	intVal int64
	raw    string
	list   *list.List
	hash   map[string]string
	set    map[string]struct{}
	zset   map[string]float64
}

func newObject(typ Type, enc Encoding, nowMs int64) *Object {
	return &Object{typ: typ, encoding: enc, accessTimeMs: nowMs, expireTimeMs: noExpire}
}

// NewInt builds a string-typed object encoded as a 64-bit integer.
func NewInt(v int64, nowMs int64) *Object {
	o := newObject(TypeString, EncodingInt, nowMs)
	o.intVal = v
	return o
}

// NewRaw builds a string-typed object holding an arbitrary byte string.
func NewRaw(v string, nowMs int64) *Object {
	o := newObject(TypeString, EncodingRaw, nowMs)
	o.raw = v
	return o
}

// NewString picks NewInt when v round-trips cleanly through a base-10
// int64 and NewRaw otherwise, mirroring how Redis chooses the "int"
// string encoding automatically on SET.
func NewString(v string, nowMs int64) *Object {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil && strconv.FormatInt(n, 10) == v {
		return NewInt(n, nowMs)
	}
	return NewRaw(v, nowMs)
}

func NewList(nowMs int64) *Object {
	o := newObject(TypeList, EncodingLinkedList, nowMs)
	o.list = list.New()
	return o
}

func NewHash(nowMs int64) *Object {
	o := newObject(TypeHash, EncodingHashTable, nowMs)
	o.hash = make(map[string]string)
	return o
}

func NewSet(nowMs int64) *Object {
	o := newObject(TypeSet, EncodingHashSet, nowMs)
	o.set = make(map[string]struct{})
	return o
}

func NewZSet(nowMs int64) *Object {
	o := newObject(TypeZSet, EncodingSortedSet, nowMs)
	o.zset = make(map[string]float64)
	return o
}

func (o *Object) Type() Type         { return o.typ }
func (o *Object) Encoding() Encoding { return o.encoding }

// Str returns the string value of a TypeString object regardless of
// whether it is encoded as Int or Raw.
func (o *Object) Str() string {
	if o.encoding == EncodingInt {
		return strconv.FormatInt(o.intVal, 10)
	}
	return o.raw
}

// List, Hash, Set and Zset expose the live containers for the command
// handlers that operate on those types; callers must check Type() first.
func (o *Object) List() *list.List          { return o.list }
func (o *Object) Hash() map[string]string   { return o.hash }
func (o *Object) Set() map[string]struct{}  { return o.set }
func (o *Object) Zset() map[string]float64  { return o.zset }

// Touch refreshes the access timestamp used by OBJECT IDLETIME, in
// milliseconds since the Unix epoch.
func (o *Object) Touch(nowMs int64) { o.accessTimeMs = nowMs }

// AccessTimeMs returns the last access timestamp set by Touch.
func (o *Object) AccessTimeMs() int64 { return o.accessTimeMs }

// IdleTimeSeconds implements OBJECT IDLETIME's semantics directly off
// module::Object::IdleTime() in the reference implementation.
func (o *Object) IdleTimeSeconds(nowMs int64) int64 {
	return (nowMs - o.accessTimeMs) / 1000
}

// HasExpire reports whether a TTL has ever been set on this object.
func (o *Object) HasExpire() bool { return o.expireTimeMs != noExpire }

// PTTL returns the remaining time to live in milliseconds, -1 if the key
// has no expiry, or 0 if it has already expired but has not yet been
// reaped from the keyspace.
func (o *Object) PTTL(nowMs int64) int64 {
	if o.expireTimeMs == noExpire {
		return -1
	}
	if o.expireTimeMs <= nowMs {
		return 0
	}
	return o.expireTimeMs - nowMs
}

// SetPTTL sets the object's expiry msec milliseconds from now, or clears
// it entirely when msec is -1.
func (o *Object) SetPTTL(nowMs, msec int64) {
	if msec == -1 {
		o.expireTimeMs = noExpire
		return
	}
	o.expireTimeMs = nowMs + msec
}

// Expired reports whether the object's TTL has elapsed as of nowMs.
func (o *Object) Expired(nowMs int64) bool {
	return o.expireTimeMs != noExpire && o.expireTimeMs <= nowMs
}

