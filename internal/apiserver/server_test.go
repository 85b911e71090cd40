// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jac-lang/jac/internal/bytecache"
	"github.com/jac-lang/jac/internal/config"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/program"
	"github.com/jac-lang/jac/internal/resolver"
	"github.com/jac-lang/jac/internal/usermgr"
)

const testSource = `
can greet(name) {
    report "hello";
}

can echo(word) {
    report word;
}

node Thing {}

public walker Greeter {
    can touch with Thing entry {
        report "touched";
    }
}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.jac"), []byte(testSource), 0o644))

	res := resolver.New([]string{dir})
	cache, err := bytecache.New(filepath.Join(dir, ".jac_cache"))
	require.NoError(t, err)
	prog := program.NewWithResolver(res, cache, nil)
	_, err = prog.Compile(context.Background(), "main")
	require.NoError(t, err)

	db, err := graphmem.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := graphmem.NewStore(db)

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	userDB, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { userDB.Close() })
	users := usermgr.New(userDB, usermgr.NewSigningKey(), "jac-test", time.Hour, time.Hour)
	t.Cleanup(users.Close)

	cfg := config.Default().Server
	cfg.RateLimitPerSec = 1000
	cfg.RateLimitBurst = 1000
	return New(prog, store, users, cfg, "main")
}

func doRequest(s *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoot_ListsFunctionsAndWalkers(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "greet")
	assert.Contains(t, rec.Body.String(), "Greeter")
}

func TestRegisterThenCallFunction(t *testing.T) {
	s := newTestServer(t)

	regRec := doRequest(s, http.MethodPost, "/user/register", map[string]string{"username": "ada", "password": "s3cret"}, "")
	require.Equal(t, http.StatusCreated, regRec.Code)

	var reg Envelope
	require.NoError(t, json.Unmarshal(regRec.Body.Bytes(), &reg))
	data := reg.Data.(map[string]any)
	token := data["token"].(string)
	require.NotEmpty(t, token)

	callRec := doRequest(s, http.MethodPost, "/function/greet", map[string]string{"name": "world"}, token)
	assert.Equal(t, http.StatusOK, callRec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(callRec.Body.Bytes(), &env))
	data = env.Data.(map[string]any)
	assert.Equal(t, []any{"hello"}, data["reports"])
}

// TestCallFunction_ReportsBoundRequestArg confirms handleFunction binds
// the request body onto the Execution Context rather than merely
// echoing it back unevaluated: echo's body resolves "word" against
// ec.Args, so the reported value must equal what the caller sent.
func TestCallFunction_ReportsBoundRequestArg(t *testing.T) {
	s := newTestServer(t)
	regRec := doRequest(s, http.MethodPost, "/user/register", map[string]string{"username": "ada", "password": "s3cret"}, "")
	var reg Envelope
	require.NoError(t, json.Unmarshal(regRec.Body.Bytes(), &reg))
	token := reg.Data.(map[string]any)["token"].(string)

	rec := doRequest(s, http.MethodPost, "/function/echo", map[string]string{"word": "ping"}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data := env.Data.(map[string]any)
	assert.Equal(t, []any{"ping"}, data["reports"])
}

func TestCallFunction_UnknownName(t *testing.T) {
	s := newTestServer(t)
	regRec := doRequest(s, http.MethodPost, "/user/register", map[string]string{"username": "ada", "password": "s3cret"}, "")
	var reg Envelope
	require.NoError(t, json.Unmarshal(regRec.Body.Bytes(), &reg))
	token := reg.Data.(map[string]any)["token"].(string)

	rec := doRequest(s, http.MethodPost, "/function/nope", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallWalker_SpawnsEphemeralRootWhenPublic(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/walker/Greeter", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	doRequest(s, http.MethodPost, "/user/register", map[string]string{"username": "ada", "password": "s3cret"}, "")

	rec := doRequest(s, http.MethodPost, "/user/login", map[string]string{"username": "ada", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenAPI_ListsRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/openapi.json", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/function/greet")
	assert.Contains(t, rec.Body.String(), "/walker/Greeter")
}
