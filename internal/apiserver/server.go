// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package apiserver implements the API Server: on top of a loaded
// module, it enumerates callable functions, walkers, and client pages
// and exposes them as gin routes with JWT-gated access control, an
// SSE streaming mode for callables declared "streaming," Prometheus
// metrics, OpenTelemetry tracing, and a generated OpenAPI document.
package apiserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/config"
	"github.com/jac-lang/jac/internal/execctx"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/program"
	"github.com/jac-lang/jac/internal/usermgr"
	"github.com/jac-lang/jac/internal/walker"
	"github.com/jac-lang/jac/pkg/logging"
)

// Server is the API Server bound to one Program, one Graph Memory
// store, and one User Manager.
type Server struct {
	engine  *gin.Engine
	prog    *program.Program
	store   *graphmem.Store
	users   *usermgr.Manager
	walker  *walker.Runtime
	cfg     config.ServerConfig
	limiter *rateLimiter
	metrics *metricsSet
	log     *logging.Logger

	entryModule string
}

// New builds a Server. entryModule is the dotted name of the module
// compiled at startup and reloaded in place by the Hot Reloader.
func New(prog *program.Program, store *graphmem.Store, users *usermgr.Manager, cfg config.ServerConfig, entryModule string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:      gin.New(),
		prog:        prog,
		store:       store,
		users:       users,
		walker:      walker.New(),
		cfg:         cfg,
		limiter:     newRateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst),
		metrics:     newMetricsSet(),
		log:         logging.New(logging.Config{Service: "jac-api"}),
		entryModule: entryModule,
	}
	s.routes()
	return s
}

// WithLogger overrides the Server's default logger, e.g. so a CLI
// command can share one Logger (and one log file) across the compiler,
// the Hot Reloader, and the API Server.
func (s *Server) WithLogger(l *logging.Logger) *Server {
	s.log = l
	return s
}

// Engine exposes the underlying gin.Engine, e.g. for httptest.
func (s *Server) Engine() http.Handler { return s.engine }

// Run starts the HTTP listener and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("api server listening", "addr", s.cfg.Addr, "module", s.entryModule)
	select {
	case <-ctx.Done():
		s.log.Info("api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		s.log.Error("api server listener exited", "error", err)
		return err
	}
}

func (s *Server) module() *ast.Module {
	m, _ := s.prog.Module(s.entryModule)
	return m
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), otelgin.Middleware("jac-api"), s.metrics.middleware())
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", s.metrics.handler())

	s.engine.Use(s.authMiddleware(), s.limiter.middleware())

	s.engine.GET("/", s.handleRoot)
	if s.cfg.EnableOpenAPI {
		s.engine.GET("/openapi.json", s.handleOpenAPI)
	}

	userGroup := s.engine.Group("/user")
	userGroup.POST("/register", s.handleRegister)
	userGroup.POST("/login", s.handleLogin)
	userGroup.POST("/refresh", s.handleRefresh)

	s.engine.POST("/function/:name", s.handleFunction)
	s.engine.POST("/walker/:name", s.handleWalker)
	s.engine.POST("/walker/:name/:startNodeID", s.handleWalker)

	clientPrefix := s.cfg.ClRoutePrefix
	if clientPrefix == "" {
		clientPrefix = "cl"
	}
	s.engine.GET("/"+clientPrefix+"/:name", s.handleClientPage)
}

func (s *Server) handleHealth(c *gin.Context) {
	ok(c, http.StatusOK, "health", gin.H{"status": "up"})
}

// handleRoot is the self-describing API directory, or — when
// base_route_app is configured — a redirect into that client page.
func (s *Server) handleRoot(c *gin.Context) {
	if s.cfg.BaseRouteApp != "" {
		c.Redirect(http.StatusFound, "/"+s.cfg.ClRoutePrefix+"/"+s.cfg.BaseRouteApp)
		return
	}
	mod := s.module()
	if mod == nil {
		failWithStatus(c, http.StatusServiceUnavailable, "", "module not yet compiled")
		return
	}
	ok(c, http.StatusOK, "directory", directoryOf(mod))
}

func directoryOf(mod *ast.Module) gin.H {
	var functions, walkers, clients []string
	for _, fn := range mod.Functions {
		functions = append(functions, fn.Name)
	}
	for _, a := range mod.Archetypes {
		if a.Kind == ast.KindWalker {
			walkers = append(walkers, a.Name)
		}
	}
	for _, c := range mod.Clients {
		clients = append(clients, c.Name)
	}
	return gin.H{"functions": functions, "walkers": walkers, "clients": clients}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failWithStatus(c, http.StatusUnprocessableEntity, "unprocessable", err.Error())
		return
	}
	u, err := s.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	token, err := s.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "user", gin.H{"root_id": u.RootID, "token": token})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failWithStatus(c, http.StatusUnprocessableEntity, "unprocessable", err.Error())
		return
	}
	token, err := s.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "token", gin.H{"token": token})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failWithStatus(c, http.StatusUnprocessableEntity, "unprocessable", err.Error())
		return
	}
	token, err := s.users.Refresh(req.Token)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "token", gin.H{"token": token})
}

func (s *Server) handleFunction(c *gin.Context) {
	name := c.Param("name")
	mod := s.module()
	if mod == nil {
		failWithStatus(c, http.StatusServiceUnavailable, "", "module not yet compiled")
		return
	}
	var fn *ast.Ability
	for _, f := range mod.Functions {
		if f.Name == name {
			fn = f
			break
		}
	}
	if fn == nil {
		failWithStatus(c, http.StatusNotFound, "", "unknown function "+name)
		return
	}
	if !s.authorize(c, fn.Access, "") {
		return
	}

	args, ok2 := parseCallArgs(c)
	if !ok2 {
		return
	}

	ec, err := s.boundExecCtx(c)
	if err != nil {
		fail(c, err)
		return
	}
	ec.Args = args

	if fn.Streaming {
		s.streamCall(c, func(emit func(any)) {
			res, err := s.walker.RunFunction(c.Request.Context(), ec, mod, fn)
			if err != nil {
				emit(gin.H{"error": err.Error()})
				return
			}
			emit(gin.H{"reports": res.Reports})
		})
		return
	}
	res, err := s.walker.RunFunction(c.Request.Context(), ec, mod, fn)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "result", gin.H{"reports": res.Reports})
}

// boundExecCtx returns the Execution Context bound to c's request,
// spawning an ephemeral scratch root for a caller with no bound root
// (the same accommodation handleWalker makes for public walkers) so a
// public function still has somewhere to read/write Graph Memory from.
func (s *Server) boundExecCtx(c *gin.Context) (*execctx.ExecCtx, error) {
	ec, err := execctx.FromContext(c.Request.Context())
	if err == nil {
		return ec, nil
	}
	root, rerr := s.store.CreateRoot(c.Request.Context())
	if rerr != nil {
		return nil, rerr
	}
	return &execctx.ExecCtx{RootID: root.ID, Store: s.store, Program: s.prog}, nil
}

func (s *Server) handleWalker(c *gin.Context) {
	name := c.Param("name")
	startNodeID := c.Param("startNodeID")
	mod := s.module()
	if mod == nil {
		failWithStatus(c, http.StatusServiceUnavailable, "", "module not yet compiled")
		return
	}
	var arch *ast.Archetype
	for _, a := range mod.Archetypes {
		if a.Kind == ast.KindWalker && a.Name == name {
			arch = a
			break
		}
	}
	if arch == nil {
		failWithStatus(c, http.StatusMethodNotAllowed, "", "unknown walker "+name)
		return
	}
	if startNodeID != "" && !strfmt.IsUUID(startNodeID) {
		failWithStatus(c, http.StatusBadRequest, "bad_request", "start_node_id must be a UUID")
		return
	}
	if !s.authorize(c, arch.Access, startNodeID) {
		return
	}

	args, ok2 := parseCallArgs(c)
	if !ok2 {
		return
	}

	ec, err := s.boundExecCtx(c)
	if err != nil {
		fail(c, err)
		return
	}
	ec.Args = args

	start := startNodeID
	if start == "" {
		start = ec.RootID
	}

	if arch.Streaming {
		s.streamCall(c, func(emit func(any)) {
			res, err := s.walker.Run(c.Request.Context(), ec, mod, name, start)
			if err != nil {
				emit(gin.H{"error": err.Error()})
				return
			}
			for _, r := range res.Reports {
				emit(r)
			}
		})
		return
	}
	res, err := s.walker.Run(c.Request.Context(), ec, mod, name, start)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "reports", gin.H{"reports": res.Reports, "disengaged": res.Disengaged})
}

func (s *Server) handleClientPage(c *gin.Context) {
	name := c.Param("name")
	mod := s.module()
	if mod == nil {
		failWithStatus(c, http.StatusServiceUnavailable, "", "module not yet compiled")
		return
	}
	for _, cl := range mod.Clients {
		if cl.Name == name {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(renderClientShell(name)))
			return
		}
	}
	failWithStatus(c, http.StatusNotFound, "", "unknown client page "+name)
}

func renderClientShell(name string) string {
	return "<!DOCTYPE html><html><head><title>" + name + "</title></head>" +
		"<body><div id=\"app\"></div><script src=\"/static/" + name + ".bundle.js\"></script></body></html>"
}

// authorize enforces §4.11's access rule: public needs nothing,
// protected/private need a valid bearer token, and private additionally
// requires the caller to own startNodeID when one is given.
func (s *Server) authorize(c *gin.Context, access ast.Access, startNodeID string) bool {
	if access == ast.AccessPublic || access == "" {
		return true
	}
	ec, err := execctx.FromContext(c.Request.Context())
	if err != nil {
		failWithStatus(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return false
	}
	if access == ast.AccessPrivate && startNodeID != "" {
		if _, err := s.store.Get(c.Request.Context(), ec.RootID, startNodeID); err != nil {
			fail(c, err)
			return false
		}
	}
	return true
}
