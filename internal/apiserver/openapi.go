// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package apiserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/spec"

	"github.com/jac-lang/jac/internal/ast"
)

// handleOpenAPI emits a Swagger document enumerating every function and
// walker route the currently loaded module exposes, rebuilt on each
// request so it always reflects the module the Hot Reloader last swapped
// in.
func (s *Server) handleOpenAPI(c *gin.Context) {
	mod := s.module()
	if mod == nil {
		failWithStatus(c, http.StatusServiceUnavailable, "", "module not yet compiled")
		return
	}
	c.JSON(http.StatusOK, buildOpenAPI(mod))
}

func buildOpenAPI(mod *ast.Module) *spec.Swagger {
	paths := &spec.Paths{Paths: map[string]spec.PathItem{}}

	for _, fn := range mod.Functions {
		op := spec.NewOperation(fn.Name).
			WithDescription("Invokes the " + fn.Name + " function.").
			WithTags("functions")
		op.AddParam(bodyParam())
		op.RespondsWith(http.StatusOK, spec.NewResponse().WithDescription("ok"))
		paths.Paths["/function/"+fn.Name] = spec.PathItem{
			PathItemProps: spec.PathItemProps{Post: op},
		}
	}

	for _, a := range mod.Archetypes {
		if a.Kind != ast.KindWalker {
			continue
		}
		op := spec.NewOperation(a.Name).
			WithDescription("Spawns the " + a.Name + " walker.").
			WithTags("walkers")
		op.AddParam(bodyParam())
		op.RespondsWith(http.StatusOK, spec.NewResponse().WithDescription("ok"))
		paths.Paths["/walker/"+a.Name] = spec.PathItem{
			PathItemProps: spec.PathItemProps{Post: op},
		}
	}

	doc := &spec.Swagger{
		SwaggerProps: spec.SwaggerProps{
			Swagger: "2.0",
			Info: &spec.Info{
				InfoProps: spec.InfoProps{
					Title:   mod.Name,
					Version: "0.1",
				},
			},
			Paths: paths,
		},
	}
	return doc
}

func bodyParam() *spec.Parameter {
	return spec.BodyParam("args", spec.MapProperty(nil)).AsOptional()
}
