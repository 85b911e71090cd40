// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jac-lang/jac/internal/jacerr"
)

// Envelope is the uniform response shape every handler returns, per the
// API Server's request-handling contract: {ok, type, data?, error?}.
type Envelope struct {
	OK    bool       `json:"ok"`
	Type  string     `json:"type"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the shape of Envelope.Error.
type ErrorBody struct {
	Code    jacerr.Code `json:"code"`
	Message string      `json:"message"`
	Details any         `json:"details,omitempty"`
}

func ok(c *gin.Context, status int, typ string, data any) {
	c.JSON(status, Envelope{OK: true, Type: typ, Data: data})
}

// fail writes an error envelope, deriving the HTTP status from the
// error's jacerr.Code classification.
func fail(c *gin.Context, err error) {
	code := jacerr.Classify(err)
	c.JSON(statusForCode(code), Envelope{
		OK:    false,
		Type:  "error",
		Error: &ErrorBody{Code: code, Message: err.Error()},
	})
}

func failWithStatus(c *gin.Context, status int, code jacerr.Code, message string) {
	c.JSON(status, Envelope{OK: false, Type: "error", Error: &ErrorBody{Code: code, Message: message}})
}

func statusForCode(code jacerr.Code) int {
	switch code {
	case jacerr.CodeNotFound:
		return http.StatusNotFound
	case jacerr.CodeUnauthorized:
		return http.StatusUnauthorized
	case jacerr.CodeForbidden:
		return http.StatusForbidden
	case jacerr.CodeConflict:
		return http.StatusConflict
	case jacerr.CodeUnprocessable, jacerr.CodeCompileFailure:
		return http.StatusUnprocessableEntity
	case jacerr.CodeRateLimited:
		return http.StatusTooManyRequests
	case jacerr.CodeBadRequest, jacerr.CodeAmbiguous:
		return http.StatusBadRequest
	case jacerr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
