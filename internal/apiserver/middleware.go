// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jac-lang/jac/internal/execctx"
	"github.com/jac-lang/jac/internal/jacerr"
	"github.com/jac-lang/jac/internal/usermgr"
)

const claimsContextKey = "jac.claims"

// authMiddleware validates a bearer token when present and, if valid,
// stashes its claims on the gin context and binds an Execution Context
// for the caller's root onto the request context. It never rejects a
// request by itself: some routes (public functions/walkers) are
// reachable without a token at all, so route handlers call authorize to
// enforce the access level a specific callable declares.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.Next()
			return
		}
		claims, err := s.users.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(claimsContextKey, claims)
		ec := &execctx.ExecCtx{RootID: claims.RootID, Store: s.store, Program: s.prog}
		c.Request = c.Request.WithContext(execctx.WithExecCtx(c.Request.Context(), ec))
		c.Next()
	}
}

func claimsFromContext(c *gin.Context) (*usermgr.Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*usermgr.Claims)
	return claims, ok
}

// rateLimiter enforces a per-principal (bearer subject, falling back to
// remote IP) token-bucket budget, matching the API Server's per-caller
// throttling requirement.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *rateLimiter) allow(principal string) bool {
	rl.mu.Lock()
	lim, ok := rl.limiters[principal]
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[principal] = lim
	}
	rl.mu.Unlock()
	return lim.Allow()
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := c.ClientIP()
		if claims, ok := claimsFromContext(c); ok {
			principal = claims.Subject
		}
		if !rl.allow(principal) {
			failWithStatus(c, http.StatusTooManyRequests, jacerr.CodeRateLimited, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
