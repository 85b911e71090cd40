// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metaimport

import "testing"

type fakeProvider struct {
	pkg string
	val any
}

func (p fakeProvider) Provides(pkg string) bool { return pkg == p.pkg }
func (p fakeProvider) Resolve(pkg string) (any, error) {
	return p.val, nil
}

func TestResolve_RegisteredProviderWins(t *testing.T) {
	im := New()
	im.Register(fakeProvider{pkg: "jac.llm", val: "real-llm-client"})

	got, err := im.Resolve("jac.llm")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "real-llm-client" {
		t.Errorf("Resolve() = %v, want %q", got, "real-llm-client")
	}
}

func TestResolve_FirstMatchingProviderWins(t *testing.T) {
	im := New()
	im.Register(fakeProvider{pkg: "jac.llm", val: "first"})
	im.Register(fakeProvider{pkg: "jac.llm", val: "second"})

	got, _ := im.Resolve("jac.llm")
	if got != "first" {
		t.Errorf("Resolve() = %v, want %q", got, "first")
	}
}

func TestResolve_UnregisteredReturnsFallback(t *testing.T) {
	im := New()
	got, err := im.Resolve("jac.deploy.k8s")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	fb, ok := got.(*Fallback)
	if !ok {
		t.Fatalf("Resolve() type = %T, want *Fallback", got)
	}
	if fb.Package() != "jac.deploy.k8s" {
		t.Errorf("Package() = %q, want %q", fb.Package(), "jac.deploy.k8s")
	}
}

func TestFallback_ChainsIndefinitely(t *testing.T) {
	fb := newFallback("jac.deploy.k8s")
	chained := fb.Attr("Client").Call().Attr("Deploy").Call("arg1", "arg2")
	if chained == nil {
		t.Fatal("chained Fallback call should never return nil")
	}
	if chained.Value() != nil {
		t.Errorf("Value() = %v, want nil", chained.Value())
	}
}

func TestFallback_CallIgnoresArgsAndReturnsSelf(t *testing.T) {
	fb := newFallback("jac.llm")
	if fb.Call(1, 2, 3) != fb {
		t.Error("Call() should return the same Fallback instance")
	}
}
