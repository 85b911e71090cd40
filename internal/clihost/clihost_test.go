// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clihost

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceed_PlainMode(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, false)

	code := h.Succeed("run", time.Now(), "ok result")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out.String(), "ok result")
	assert.Empty(t, errBuf.String())
}

func TestSucceed_JSONMode(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, true)

	start := time.Now()
	code := h.Succeed("build", start, map[string]any{"files": 3})
	assert.Equal(t, ExitSuccess, code)

	var got Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "build", got.Command)
	assert.True(t, got.OK)
	assert.Empty(t, got.Error)
}

func TestFail_PlainMode(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, false)

	code := h.Fail("check", time.Now(), errors.New("boom"))
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errBuf.String(), "boom")
	assert.Empty(t, out.String())
}

func TestFail_JSONMode(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, true)

	code := h.Fail("check", time.Now(), errors.New("boom"))
	assert.Equal(t, ExitFailure, code)

	var got Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.False(t, got.OK)
	assert.Equal(t, "boom", got.Error)
}

func TestInfo_SuppressedInJSONMode(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, true)
	h.Info("hello %s", "world")
	assert.Empty(t, out.String())
}

func TestInfo_PlainModePrints(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, false)
	h.Info("hello %s", "world")
	assert.Equal(t, "hello world\n", out.String())
}

func TestWarn_WritesToStderr(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, false)
	h.Warn("careful: %s", "thing")
	assert.Contains(t, errBuf.String(), "careful: thing")
	assert.Empty(t, out.String())
}

func TestNewForTest_ColorDisabled(t *testing.T) {
	var out, errBuf bytes.Buffer
	h := NewForTest(&out, &errBuf, false)
	assert.False(t, h.color)
}
