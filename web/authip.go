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

	"redikv/core/authip"
)

// authIpStatus is the wire shape of the /authip endpoint. It was named
// in the teacher's own web/init.go route table but never implemented in
// the retrieved pack (see DESIGN.md); this follows the naming the route
// table already committed to.
type authIpStatus struct {
	Enabled bool `json:"enabled"`
}

func HandleAuthIp(c *gin.Context) {
	c.JSON(http.StatusOK, authIpStatus{Enabled: authip.IpMap.Enabled()})
}
