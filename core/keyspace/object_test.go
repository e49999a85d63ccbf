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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStringPicksIntEncoding(t *testing.T) {
	o := NewString("12345", 0)
	assert.Equal(t, EncodingInt, o.Encoding())
	assert.Equal(t, "12345", o.Str())
}

func TestNewStringPicksRawEncoding(t *testing.T) {
	cases := []string{"012", "+5", "hello", "", "9223372036854775808"}
	for _, v := range cases {
		o := NewString(v, 0)
		assert.Equal(t, EncodingRaw, o.Encoding(), "value %q", v)
		assert.Equal(t, v, o.Str())
	}
}

func TestObjectPTTLNoExpire(t *testing.T) {
	o := NewRaw("v", 1000)
	assert.Equal(t, int64(-1), o.PTTL(1000))
	assert.False(t, o.HasExpire())
}

func TestObjectSetPTTLAndExpiry(t *testing.T) {
	o := NewRaw("v", 1000)
	o.SetPTTL(1000, 500)
	assert.True(t, o.HasExpire())
	assert.Equal(t, int64(500), o.PTTL(1000))
	assert.False(t, o.Expired(1000))
	assert.True(t, o.Expired(1501))
	assert.Equal(t, int64(0), o.PTTL(1501))
}

func TestObjectSetPTTLPersist(t *testing.T) {
	o := NewRaw("v", 1000)
	o.SetPTTL(1000, 500)
	o.SetPTTL(2000, -1)
	assert.False(t, o.HasExpire())
	assert.Equal(t, int64(-1), o.PTTL(9999))
}

func TestObjectIdleTime(t *testing.T) {
	o := NewRaw("v", 1000)
	o.Touch(1000)
	assert.Equal(t, int64(2), o.IdleTimeSeconds(3000))
}
