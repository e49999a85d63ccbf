// Copyright (c) 2022 The rcproxy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"): you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"

	"redikv/config"
	"redikv/core"
	"redikv/core/authip"
	"redikv/core/commands"
	"redikv/core/keyspace"
	"redikv/core/pkg/logging"
	"redikv/core/server"
	"redikv/web"
)

var (
	configFile     string
	version        bool
	help           bool
	ipWhitelistDir = flag.String("ip-whitelist-dir", "", "Directory fsnotify watches for authip.json (optional)")
)

func init() {
	const defaultConfigFile = "conf/redikv.json"
	flag.StringVar(&configFile, "c", defaultConfigFile, "Config file path")
	flag.StringVar(&configFile, "config", defaultConfigFile, "Config file path")
	flag.BoolVar(&version, "version", false, "Show version")
	flag.BoolVar(&help, "help", false, "Show usage info")
}

var (
	CommitSHA string
	Tag       string
	BuildTime string
)

func init() {
	if len(Tag) < 1 {
		Tag = "unknown"
	}
	if len(CommitSHA) < 1 {
		CommitSHA = "unknown"
	}
	if len(BuildTime) < 1 {
		BuildTime = "unknown"
	}
}

const banner string = `
____          _ _ _
|  _ \ ___  __| (_) | ___   __
| |_) / _ \/ _` + "`" + ` | | |/ / \ / /
|  _ <  __/ (_| | |   <\ V /
|_| \_\___|\__,_|_|_|\_\\_/

`

func parseCli() {
	flag.Parse()
	if version {
		fmt.Printf("version: %s\ncommit: %s\ntime: %s\n", Tag, CommitSHA, BuildTime)
		os.Exit(0)
	}
	if help {
		flag.Usage()
		os.Exit(0)
	}
}

func main() {
	parseCli()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logging.Errorf("parse config file err: %v", err)
		os.Exit(1)
	}

	if err = logging.InitializeLogger(
		logging.WithPath(cfg.Log.Path),
		logging.WithExpireDay(cfg.Log.ExpireDays),
		logging.WithLogLevel(cfg.Log.Level),
	); err != nil {
		logging.Errorf("failed to initialize logger, err: %s", err)
		os.Exit(1)
	}

	srvCfg := cfg.Server[0]
	if len(cfg.Server) > 1 {
		logging.Warnf("config lists %d server entries; this reactor binds a single listener, using server[0] (%s:%d)",
			len(cfg.Server), srvCfg.IP, srvCfg.Port)
	}

	fmt.Print(banner)
	fmt.Printf("redikv version: %s\n", Tag)
	fmt.Printf("redikv started with port: %d, pid: %d\n", srvCfg.Port, syscall.Getpid())
	logging.Infof("redikv started with port: %d, pid: %d, version: %s", srvCfg.Port, syscall.Getpid(), Tag)

	whitelistDir := *ipWhitelistDir
	if len(whitelistDir) == 0 {
		whitelistDir = cfg.Admin.IPWhitelistDir
	}
	if err = authip.LoopIPWhiteList(whitelistDir); err != nil {
		logging.Errorf("failed to start IP whitelist watcher, err: %s", err)
		os.Exit(1)
	}

	build := web.BuildInfo{Tag: Tag, CommitSHA: CommitSHA, BuildTime: BuildTime}

	if cfg.Admin.WebPort > 0 {
		addr := fmt.Sprintf(":%d", cfg.Admin.WebPort)
		gin.SetMode(gin.ReleaseMode)
		ginSrv := gin.New()
		web.Init(ginSrv, build)
		httpSrv := &http.Server{Handler: ginSrv, Addr: addr}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil {
				logging.Errorf("failed to start http server, err: %s", err)
			}
		}()
	}

	inst := keyspace.NewInstance(cfg.DB.DBNum)
	commands.Register(inst)

	tcpServer := server.NewListenServer(inst, server.WithSlowlogSlowerThan(0))

	network := "tcp4"
	if srvCfg.Type == "ipv6" {
		network = "tcp6"
	}
	protoAddr := fmt.Sprintf("%s://%s:%d", network, srvCfg.IP, srvCfg.Port)

	if err = core.Run(tcpServer, protoAddr); err != nil {
		logging.Errorf("redikv run failed: %s", err)
	}

	logging.Infof("redikv shutdown, pid: %d, listen: %d", syscall.Getpid(), srvCfg.Port)
}
