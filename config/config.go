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

package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"redikv/core/pkg/logging"
)

// Config is the whole process's configuration, parsed from JSON. The
// teacher's own config.go parses YAML; this server follows the spec's
// own mandated JSON schema instead of the teacher's format (see
// DESIGN.md), while keeping the teacher's load-then-validate shape and
// github.com/pkg/errors wrapping.
type Config struct {
	Server []ServerConfig `json:"server"`
	DB     DBConfig       `json:"db"`
	Log    LogConfig      `json:"log"`
	Admin  AdminConfig    `json:"admin"`
}

type ServerConfig struct {
	Type    string `json:"type"`
	IP      string `json:"ip"`
	Port    int    `json:"port"`
	Backlog int    `json:"backlog"`
}

type DBConfig struct {
	DBNum int `json:"db_num"`
}

type LogConfig struct {
	Path       string `json:"path"`
	Level      string `json:"level"`
	ExpireDays int    `json:"expire_days"`
}

type AdminConfig struct {
	WebPort        int    `json:"web_port"`
	IPWhitelistDir string `json:"ip_whitelist_dir"`
}

func LoadConfig(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file from %s", fileName)
	}
	var cfg Config
	if err = json.Unmarshal(file, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", fileName)
	}
	cfg.applyDefaults()
	if err = cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "config validate failed")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Server) == 0 {
		c.Server = []ServerConfig{{}}
	}
	for i := range c.Server {
		s := &c.Server[i]
		if len(s.Type) == 0 {
			s.Type = "ipv4"
		}
		if len(s.IP) == 0 {
			s.IP = "127.0.0.1"
		}
		if s.Port == 0 {
			s.Port = 6379
		}
		if s.Backlog == 0 {
			s.Backlog = 512
		}
	}
	if c.DB.DBNum == 0 {
		c.DB.DBNum = 16
	}
	if len(c.Log.Level) == 0 {
		c.Log.Level = logging.LevelInfo
	}
	c.Log.Level = strings.ToUpper(c.Log.Level)
	if c.Log.ExpireDays == 0 {
		c.Log.ExpireDays = 7
	}
}

func (c *Config) validate() error {
	if _, ok := logging.LevelMapperRev[c.Log.Level]; !ok {
		return errors.Errorf("unknown log level %s", c.Log.Level)
	}
	if c.DB.DBNum < 1 || c.DB.DBNum > 255 {
		return errors.Errorf("db.db_num must be in [1, 255], got %d", c.DB.DBNum)
	}
	for _, s := range c.Server {
		if s.Type != "ipv4" && s.Type != "ipv6" {
			return errors.Errorf("unknown server type %q", s.Type)
		}
		if s.Port < 1 || s.Port > 65535 {
			return errors.Errorf("server port %d out of range", s.Port)
		}
	}
	return nil
}
