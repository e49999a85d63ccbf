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

// Database is one numbered keyspace namespace (the target of SELECT).
// Expired keys are reaped lazily: Lookup deletes a key it finds expired
// instead of returning it, matching the reference Db::Timeout() check
// being folded into every access rather than run as a periodic sweep.
type Database struct {
	index int
	data  map[string]*Object
}

func newDatabase(index int) *Database {
	return &Database{index: index, data: make(map[string]*Object)}
}

func (d *Database) Index() int { return d.index }

// Lookup returns the live object for key, or nil if it is absent or has
// expired. A found object has its access time refreshed to nowMs.
func (d *Database) Lookup(key string, nowMs int64) *Object {
	obj, ok := d.data[key]
	if !ok {
		return nil
	}
	if obj.Expired(nowMs) {
		delete(d.data, key)
		ExpiredKeys.Inc()
		return nil
	}
	obj.Touch(nowMs)
	return obj
}

// Peek is like Lookup but does not refresh the access time, used by
// OBJECT ENCODING/REFCOUNT/IDLETIME which must not disturb idle time.
func (d *Database) Peek(key string, nowMs int64) *Object {
	obj, ok := d.data[key]
	if !ok {
		return nil
	}
	if obj.Expired(nowMs) {
		delete(d.data, key)
		ExpiredKeys.Inc()
		return nil
	}
	return obj
}

// Set installs obj under key, overwriting anything previously there.
func (d *Database) Set(key string, obj *Object) {
	d.data[key] = obj
}

// Delete removes key unconditionally (ignoring TTL), reporting whether it
// was present and unexpired.
func (d *Database) Delete(key string, nowMs int64) bool {
	if d.Peek(key, nowMs) == nil {
		return false
	}
	delete(d.data, key)
	return true
}

// Rename moves the value at src to dst, overwriting dst if present.
// Returns false if src does not exist (or has expired).
func (d *Database) Rename(src, dst string, nowMs int64) bool {
	obj := d.Peek(src, nowMs)
	if obj == nil {
		return false
	}
	delete(d.data, src)
	d.data[dst] = obj
	return true
}

// Len reports the number of live (unexpired) keys, reaping expired ones
// as it scans. Used by the admin keyspace-introspection endpoint.
func (d *Database) Len(nowMs int64) int {
	for k, obj := range d.data {
		if obj.Expired(nowMs) {
			delete(d.data, k)
			ExpiredKeys.Inc()
		}
	}
	return len(d.data)
}

// Keys returns a snapshot of every live key name, reaping expired keys
// as it scans. Intended for introspection/tests, not the command surface.
func (d *Database) Keys(nowMs int64) []string {
	keys := make([]string, 0, len(d.data))
	for k, obj := range d.data {
		if obj.Expired(nowMs) {
			delete(d.data, k)
			ExpiredKeys.Inc()
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
