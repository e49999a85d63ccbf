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

package authip

import (
	"encoding/json"
	"os"
	"path"

	"github.com/cornelk/hashmap"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"redikv/core/pkg/logging"
)

// AuthIp watches one directory for an authip.json allow-list and reloads
// IpMap whenever the file changes.
type AuthIp struct {
	dir  string
	name string
}

var IpMap ipMap

type ipMap struct {
	enable bool
	hashmap.HashMap
}

// Validate reports whether ip may open a connection. With no whitelist
// directory configured, admission control is disabled and every address
// is allowed.
func (i *ipMap) Validate(ip string) bool {
	if !i.enable {
		return true
	}
	_, ok := i.Get(ip)
	return ok
}

func (i *ipMap) insert(key string) {
	i.HashMap.GetOrInsert(key, struct{}{})
}

// Enabled reports whether a whitelist is currently in force, for the
// admin /authip introspection endpoint.
func (i *ipMap) Enabled() bool { return i.enable }

type authIpFile struct {
	Enable bool     `json:"enable"`
	IpList []string `json:"ip_white_list"`
}

// LoopIPWhiteList loads dir/authip.json once and then watches dir for
// changes, reloading the allow-list on every write or rename. An empty
// dir disables admission control entirely (the default).
func LoopIPWhiteList(dir string) error {
	if len(dir) == 0 {
		return nil
	}
	a := &AuthIp{dir: dir, name: path.Join(dir, "authip.json")}
	if err := a.parse(); err != nil {
		return err
	}
	return a.watch()
}

func (a *AuthIp) watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err = watcher.Add(a.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", a.dir)
	}
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != a.name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if err := a.parse(); err != nil {
					logging.Errorf("authip: reload failed: %s", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Errorf("authip: watcher error: %s", err)
			}
		}
	}()
	return nil
}

func (a *AuthIp) parse() error {
	file, err := os.ReadFile(a.name)
	if err != nil {
		return errors.Wrapf(err, "failed to read file from %s", a.name)
	}
	var cfg authIpFile
	if err = json.Unmarshal(file, &cfg); err != nil {
		return errors.Wrapf(err, "failed to unmarshal config from %s", a.name)
	}

	IpMap.enable = cfg.Enable
	if !IpMap.enable {
		return nil
	}
	for _, ip := range cfg.IpList {
		IpMap.insert(ip)
	}
	return nil
}
