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

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"redikv/core/server"
)

// HandleKeyspace reports every database's key count as of the reactor's
// last tick. It reads server.DatabaseSnapshot rather than keyspace.Instance
// directly: the keyspace is mutated only from the single reactor goroutine
// (spec.md §5), and the admin HTTP server runs on its own goroutine, so
// touching Instance here would race with command dispatch. The snapshot
// is the teacher's own pattern for this — core.GetClusterNodes() read a
// concurrent map the proxy's cluster-sync goroutine filled in, rather
// than reaching into the reactor's per-connection state.
func HandleKeyspace(c *gin.Context) {
	c.JSON(http.StatusOK, server.DatabaseSnapshot())
}
