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

func TestDatabaseLookupExpiresLazily(t *testing.T) {
	db := newDatabase(0)
	o := NewRaw("v", 0)
	o.SetPTTL(0, 10)
	db.Set("k", o)

	assert.NotNil(t, db.Lookup("k", 5))
	assert.Nil(t, db.Lookup("k", 20))
	assert.Nil(t, db.Lookup("k", 20), "expired key must be reaped")
	assert.Equal(t, 0, db.Len(20))
}

func TestDatabaseDeleteAndRename(t *testing.T) {
	db := newDatabase(0)
	db.Set("a", NewRaw("1", 0))

	assert.True(t, db.Rename("a", "b", 0))
	assert.Nil(t, db.Peek("a", 0))
	assert.NotNil(t, db.Peek("b", 0))

	assert.False(t, db.Rename("missing", "c", 0))
	assert.True(t, db.Delete("b", 0))
	assert.False(t, db.Delete("b", 0))
}

func TestDatabaseKeysReapsExpired(t *testing.T) {
	db := newDatabase(0)
	db.Set("live", NewRaw("1", 0))
	expired := NewRaw("2", 0)
	expired.SetPTTL(0, 1)
	db.Set("dead", expired)

	keys := db.Keys(100)
	assert.Equal(t, []string{"live"}, keys)
}
