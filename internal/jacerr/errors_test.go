// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jacerr

import (
	"errors"
	"fmt"
	"testing"
)

// =============================================================================
// Classify Tests
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"not found", ErrNotFound, CodeNotFound},
		{"module not found", ErrModuleNotFound, CodeNotFound},
		{"user exists", ErrUserExists, CodeConflict},
		{"anchor exists", ErrAnchorExists, CodeConflict},
		{"invalid credentials", ErrInvalidCredentials, CodeUnauthorized},
		{"token expired", ErrTokenExpired, CodeUnauthorized},
		{"token invalid", ErrTokenInvalid, CodeUnauthorized},
		{"rate limited", ErrRateLimited, CodeRateLimited},
		{"ambiguous ability", ErrAmbiguousAbility, CodeAmbiguous},
		{"ambiguous import", ErrAmbiguousImport, CodeAmbiguous},
		{"type mismatch", ErrTypeMismatch, CodeUnprocessable},
		{"duplicate definition", ErrDuplicateDefinition, CodeUnprocessable},
		{"invalid annex", ErrInvalidAnnex, CodeUnprocessable},
		{"unresolved symbol", ErrUnresolvedSymbol, CodeUnprocessable},
		{"compile failed", ErrCompileFailed, CodeCompileFailure},
		{"cyclic import", ErrCyclicImport, CodeCompileFailure},
		{"root required", ErrRootRequired, CodeBadRequest},
		{"unknown", errors.New("mystery"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("resolving foo.bar: %w", ErrModuleNotFound)
	if got := Classify(wrapped); got != CodeNotFound {
		t.Errorf("Classify(wrapped) = %q, want %q", got, CodeNotFound)
	}
}

func TestClassify_ErrorsIsThroughChain(t *testing.T) {
	wrapped := fmt.Errorf("loading anchor: %w", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("errors.Is should find ErrNotFound through the chain")
	}
}

// =============================================================================
// Sentinel distinctness
// =============================================================================

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrModuleNotFound, ErrCyclicImport, ErrAmbiguousImport, ErrUnresolvedSymbol,
		ErrDuplicateDefinition, ErrTypeMismatch, ErrInvalidAnnex, ErrStaleCache,
		ErrCompileFailed, ErrNotFound, ErrAmbiguousAbility, ErrWalkerDisengaged,
		ErrRootRequired, ErrAnchorExists, ErrInvalidCredentials, ErrTokenExpired,
		ErrTokenInvalid, ErrUserExists, ErrRateLimited,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			if errors.Is(a, b) {
				t.Errorf("sentinel %d (%v) unexpectedly matches sentinel %d (%v)", i, a, j, b)
			}
		}
	}
}
