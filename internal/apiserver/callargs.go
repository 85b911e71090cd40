// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// parseCallArgs implements the request-handling contract's argument
// unification: a top-level `{a, b, c}` object and a nested
// `{"args": {...}}` object are both accepted as the callable's keyword
// arguments. Returns (nil, true) for an empty body, since a zero-arg
// callable is a valid call.
func parseCallArgs(c *gin.Context) (map[string]any, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		failWithStatus(c, http.StatusBadRequest, "", "reading request body: "+err.Error())
		return nil, false
	}
	if len(body) == 0 {
		return nil, true
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		failWithStatus(c, http.StatusUnprocessableEntity, "unprocessable", "request body must be a JSON object")
		return nil, false
	}
	if nested, ok := raw["args"].(map[string]any); ok && len(raw) == 1 {
		return nested, true
	}
	return raw, true
}
