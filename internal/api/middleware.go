// Copyright 2026 The CrossCheck Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/crosscheck/internal/config"
	"github.com/traylinx/crosscheck/internal/util"
)

// requestIDHeader carries the request correlation id in both directions.
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware attaches a correlation id to every request, reusing a
// caller-provided one when present.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		log.WithField("request_id", id).Debugf("api: %s %s", c.Request.Method, c.Request.URL.Path)
		c.Next()
	}
}

// managementAuthMiddleware guards the management endpoints. Direct localhost
// connections pass without credentials; everything else must present the
// configured management key, either as a bearer token or in the
// X-Management-Key header. The config is fetched per request so key
// rotations via hot reload apply immediately.
func managementAuthMiddleware(current func() *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if util.IsLocalhostDirect(c) {
			c.Next()
			return
		}

		cfg := current()

		if cfg.ManagementKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "management endpoints are local-only: no management key configured",
			})
			return
		}

		presented := c.GetHeader("X-Management-Key")
		if presented == "" {
			presented = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if !cfg.CheckManagementKey(presented) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid management key",
			})
			return
		}

		c.Next()
	}
}
