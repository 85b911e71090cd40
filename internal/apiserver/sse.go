// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// streamEvent is one frame of an SSE response: a streaming callable's
// yielded value plus the ordering metadata a client needs to detect
// drops or reordering.
type streamEvent struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	Data      any    `json:"data"`
}

// streamCall responds with text/event-stream and invokes emitFn once,
// giving it an emit callback the caller uses for every yielded value;
// the connection closes once emitFn returns.
func (s *Server) streamCall(c *gin.Context, emitFn func(emit func(any))) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)
	emitFn(func(data any) {
		evt := streamEvent{ID: uuid.NewString(), CreatedAt: time.Now().UnixMilli(), Data: data}
		b, err := json.Marshal(evt)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		if canFlush {
			flusher.Flush()
		}
	})
}
