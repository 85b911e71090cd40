// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jacerr provides the error taxonomy shared by every pass and
// runtime component in this module. Passes and runtime code return
// sentinel errors (wrapped with fmt.Errorf("%w: ...") context) so callers
// can classify a failure with errors.Is without parsing message text.
//
// # Thread Safety
//
// All sentinels are immutable package-level values; safe for concurrent
// use from any goroutine.
package jacerr

import "errors"

// Sentinel errors for the compile pipeline: Parse, Annex Attach, Import,
// Symbol/Def-Impl Match, Semantic/Type Check, Codegen.
var (
	// ErrModuleNotFound is returned by the Source Resolver when a dotted
	// module name does not resolve to any file on the configured search
	// path.
	ErrModuleNotFound = errors.New("module not found")

	// ErrCyclicImport classifies a module that transitively imports
	// itself. The Import pass reports a direct self-import as a fatal
	// diagnostic (failing with ErrCompileFailed) and does not return it.
	ErrCyclicImport = errors.New("cyclic import")

	// ErrAmbiguousImport classifies a dotted name that resolves to more
	// than one candidate file. The Source Resolver takes the first match
	// in search-path order and does not return it.
	ErrAmbiguousImport = errors.New("ambiguous module resolution")

	// ErrUnresolvedSymbol classifies a forward-declared archetype or
	// ability with no matching impl. The Symbol/Def-Impl Match pass
	// reports that case as a diagnostic and does not return it.
	ErrUnresolvedSymbol = errors.New("unresolved symbol")

	// ErrDuplicateDefinition classifies two declarations in the same
	// module claiming the same archetype or ability name. The
	// Semantic/Type Check pass reports a duplicate archetype name as a
	// fatal diagnostic and does not return it.
	ErrDuplicateDefinition = errors.New("duplicate definition")

	// ErrTypeMismatch classifies a Semantic/Type Check failure; the pass
	// records diagnostics and does not return it.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidAnnex classifies an `.impl.jac`/`.cl.jac`/`.test.jac`
	// file that cannot be matched to a base module by filename
	// convention. The Annex Loader skips such files and does not return
	// it.
	ErrInvalidAnnex = errors.New("invalid annex file")

	// ErrStaleCache classifies a cache entry whose content hash, mtime,
	// or host version no longer matches. The Bytecode Cache's Get reports
	// such an entry as a miss and does not return it.
	ErrStaleCache = errors.New("stale bytecode cache entry")

	// ErrCompileFailed wraps a terminal, non-recoverable failure of the
	// pass pipeline; diagnostics attached to the Program carry detail.
	ErrCompileFailed = errors.New("compilation failed")
)

// Sentinel errors for the persistent graph-spatial runtime: Graph
// Memory, Execution Context, Walker Runtime.
var (
	// ErrNotFound is returned for both a genuinely absent anchor and an
	// anchor the caller's root lacks access to. Graph Memory deliberately
	// collapses AccessDenied into ErrNotFound so an unauthorized caller
	// cannot distinguish "doesn't exist" from "exists but not yours".
	ErrNotFound = errors.New("anchor not found")

	// ErrAmbiguousAbility is returned by the Walker Runtime when a
	// visited node matches more than one entry/exit ability on the
	// active walker at equal specificity.
	ErrAmbiguousAbility = errors.New("ambiguous ability match")

	// ErrWalkerDisengaged classifies a walker ending on a disengage
	// statement. The Walker Runtime records that in Result.Disengaged
	// and does not return it.
	ErrWalkerDisengaged = errors.New("walker disengaged")

	// ErrRootRequired is returned when an operation needs a bound
	// Execution Context but none is present on the calling goroutine's
	// request scope.
	ErrRootRequired = errors.New("execution context has no bound root")

	// ErrAnchorExists is returned when creating an anchor with an ID
	// that already exists in the store.
	ErrAnchorExists = errors.New("anchor already exists")
)

// Sentinel errors for the User Manager and API Server.
var (
	// ErrInvalidCredentials is returned by authenticate on a bad
	// username/password pair. Deliberately generic: it must not reveal
	// whether the username exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenExpired is returned when a JWT's exp claim has passed but
	// it was issued within the configured refresh window; a token issued
	// before the window is ErrTokenInvalid instead.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for a JWT that fails signature
	// verification or claim validation.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrUserExists is returned by register when the username is
	// already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrRateLimited is returned by the API Server's throttling
	// middleware when a caller exceeds its configured request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Code is a stable, API-facing classification of an error, independent
// of the underlying Go sentinel's message text. The API Server's
// response envelope carries Code rather than raw error strings.
type Code string

const (
	CodeBadRequest     Code = "bad_request"
	CodeUnauthorized   Code = "unauthorized"
	CodeForbidden      Code = "forbidden"
	CodeNotFound       Code = "not_found"
	CodeConflict       Code = "conflict"
	CodeUnprocessable  Code = "unprocessable"
	CodeRateLimited    Code = "rate_limited"
	CodeUnavailable    Code = "unavailable"
	CodeInternal       Code = "internal"
	CodeAmbiguous      Code = "ambiguous"
	CodeCompileFailure Code = "compile_failure"
)

// Classify maps a known sentinel to its API-facing Code, defaulting to
// CodeInternal for anything this package does not recognize. Callers
// should use errors.Is-based matching upstream of Classify when they
// need to branch on a specific sentinel; Classify exists for the one
// place — the API Server's error-to-envelope translation — that needs a
// total function from error to status.
func Classify(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrModuleNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrAnchorExists):
		return CodeConflict
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid):
		return CodeUnauthorized
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrAmbiguousAbility), errors.Is(err, ErrAmbiguousImport):
		return CodeAmbiguous
	case errors.Is(err, ErrTypeMismatch), errors.Is(err, ErrDuplicateDefinition), errors.Is(err, ErrInvalidAnnex), errors.Is(err, ErrUnresolvedSymbol):
		return CodeUnprocessable
	case errors.Is(err, ErrCompileFailed), errors.Is(err, ErrCyclicImport):
		return CodeCompileFailure
	case errors.Is(err, ErrRootRequired):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}
